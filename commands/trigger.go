package commands

import (
	"fmt"

	"github.com/swipecli/swipecli/config"
	"github.com/swipecli/swipecli/controller"
	"github.com/swipecli/swipecli/gesture"
)

type TriggerRequest struct {
	Config config.LoadOptions
	Event  string
}

type TriggerActionResult struct {
	controller.ActionResult
	Succeeded bool `json:"ok"`
}

type TriggerResponse struct {
	Event   string                `json:"event"`
	Actions []TriggerActionResult `json:"actions"`
}

// TriggerCommand runs the actions configured for one event, exactly as the
// listener would after recognizing it
func TriggerCommand(req TriggerRequest) *CommandResponse {
	event, err := gesture.ParseEventName(req.Event)
	if err != nil {
		return NewErrorResponse(err)
	}

	loaded, err := config.Load(req.Config)
	if err != nil {
		return NewErrorResponse(err)
	}

	execs := newExecutors(loaded.Settings, loaded.Enabled)
	defer execs.Close()

	ctrl := controller.New(loaded.Table, execs.list, controller.Options{
		Options: gesture.Options{Threshold: loaded.Settings.Threshold},
		Enabled: loaded.Enabled,
	})

	return dispatchOnce(ctrl, event)
}

func dispatchOnce(ctrl *controller.Controller, event gesture.Event) *CommandResponse {
	results := ctrl.Dispatch(event)

	response := TriggerResponse{
		Event:   event.Name(),
		Actions: make([]TriggerActionResult, 0, len(results)),
	}
	failed := 0
	for _, r := range results {
		response.Actions = append(response.Actions, TriggerActionResult{ActionResult: r, Succeeded: r.OK()})
		if !r.OK() {
			failed++
		}
	}

	if failed > 0 {
		return NewErrorResponseWithData(fmt.Errorf("%d of %d action(s) failed", failed, len(results)), response)
	}
	return NewSuccessResponse(response)
}
