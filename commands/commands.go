package commands

import (
	"sync"

	"github.com/swipecli/swipecli/utils"
)

// CommandResponse represents a standardized response format for all commands
type CommandResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) *CommandResponse {
	return &CommandResponse{
		Status: "ok",
		Data:   data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(err error) *CommandResponse {
	return &CommandResponse{
		Status: "error",
		Error:  err.Error(),
	}
}

// NewErrorResponseWithData creates an error response that still carries a
// result, e.g. the per-action outcome of a partially failed trigger
func NewErrorResponseWithData(err error, data interface{}) *CommandResponse {
	return &CommandResponse{
		Status: "error",
		Data:   data,
		Error:  err.Error(),
	}
}

// shutdownHook is run by main on SIGINT/SIGTERM. It is set once at
// application startup via SetShutdownHook; the listener registers its event
// loop and every resource it holds with it.
var shutdownHook *utils.ShutdownHook

// SetShutdownHook sets the global shutdown hook registry
func SetShutdownHook(hook *utils.ShutdownHook) {
	shutdownHook = hook
}

// GetShutdownHook returns the registry, nil if SetShutdownHook was not called
func GetShutdownHook() *utils.ShutdownHook {
	return shutdownHook
}

// RegisterCleanup registers release with the shutdown hook under name and
// returns a func for the normal return path. release runs at most once,
// whichever path gets there first; the returned func unregisters the hook
// and waits for a release already started by a shutdown.
func RegisterCleanup(name string, release func() error) func() error {
	once := sync.OnceValue(release)
	hook := GetShutdownHook()
	if hook == nil {
		return once
	}

	unregister := hook.Register(name, once)
	return func() error {
		unregister()
		return once()
	}
}
