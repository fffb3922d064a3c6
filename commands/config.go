package commands

import (
	"github.com/swipecli/swipecli/config"
)

type ConfigResponse struct {
	Files    []string         `json:"files"`
	Settings *config.Settings `json:"settings"`
	Actions  string           `json:"actions"`
	Warnings []string         `json:"warnings,omitempty"`
}

// ConfigCommand loads and validates the configuration the listener would use
func ConfigCommand(opts config.LoadOptions) *CommandResponse {
	loaded, err := config.Load(opts)
	if err != nil {
		return NewErrorResponse(err)
	}

	files := loaded.Files
	if files == nil {
		files = []string{}
	}

	return NewSuccessResponse(ConfigResponse{
		Files:    files,
		Settings: loaded.Settings,
		Actions:  loaded.Table.Summary(loaded.Enabled),
		Warnings: loaded.Warnings,
	})
}
