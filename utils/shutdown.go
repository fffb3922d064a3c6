package utils

import (
	"errors"
	"fmt"
	"sync"
)

// ShutdownHook runs the listener's cleanup functions (event source, i3
// connection, stream server, pid file) when the process receives SIGINT or
// SIGTERM. Hooks run last registered first, like deferred calls.
type ShutdownHook struct {
	mu     sync.Mutex
	nextID int
	hooks  []namedHook
	done   bool
}

type namedHook struct {
	id   int
	name string
	fn   func() error
}

func NewShutdownHook() *ShutdownHook {
	return &ShutdownHook{}
}

// Register adds a cleanup function and returns a func that removes it again,
// for components that release their resources on a normal return. A hook
// registered after Shutdown has run is called immediately.
func (s *ShutdownHook) Register(name string, cleanupFn func() error) func() {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		Verbose("Shutdown already in progress, running %s now", name)
		if err := cleanupFn(); err != nil {
			Warn("Shutdown hook %s failed: %v", name, err)
		}
		return func() {}
	}

	s.nextID++
	id := s.nextID
	s.hooks = append(s.hooks, namedHook{id: id, name: name, fn: cleanupFn})
	s.mu.Unlock()

	Trace("Registered shutdown hook: %s", name)
	return func() { s.remove(id) }
}

func (s *ShutdownHook) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, h := range s.hooks {
		if h.id == id {
			s.hooks = append(s.hooks[:i], s.hooks[i+1:]...)
			return
		}
	}
}

// Shutdown runs every registered hook once, newest first. A failing hook
// does not stop the others; all failures are returned together. Later
// calls do nothing.
func (s *ShutdownHook) Shutdown() error {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return nil
	}
	s.done = true
	hooks := s.hooks
	s.hooks = nil
	s.mu.Unlock()

	Verbose("Executing %d shutdown hook(s)", len(hooks))

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		hook := hooks[i]
		Verbose("Running shutdown hook: %s", hook.name)
		if err := hook.fn(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", hook.name, err))
		}
	}

	return errors.Join(errs...)
}

// Count returns the number of hooks still waiting to run
func (s *ShutdownHook) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hooks)
}

// Names lists the pending hooks in the order they will run
func (s *ShutdownHook) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.hooks))
	for i := len(s.hooks) - 1; i >= 0; i-- {
		names = append(names, s.hooks[i].name)
	}
	return names
}
