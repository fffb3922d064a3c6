package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/swipecli/swipecli/config"
	"github.com/swipecli/swipecli/controller"
	"github.com/swipecli/swipecli/gesture"
	"github.com/swipecli/swipecli/input"
	"github.com/swipecli/swipecli/server"
	"github.com/swipecli/swipecli/utils"
)

const serverShutdownTimeout = 2 * time.Second

type ListenRequest struct {
	Config config.LoadOptions

	// Verbosity raises the configured log level by this many steps
	Verbosity int

	// ServeAddr enables the event stream server when set
	ServeAddr  string
	EnableCORS bool

	Version string
}

// Listen runs the gesture listener until ctx is done, the event source is
// exhausted or fails, or a shutdown is requested through the shutdown hook
// or the event stream server.
func Listen(ctx context.Context, req ListenRequest) error {
	loaded, err := config.Load(req.Config)
	if err != nil {
		return err
	}
	settings := loaded.Settings

	level := utils.RaiseLevel(settings.LogLevel, req.Verbosity)
	if err := utils.SetLevel(level); err != nil {
		return err
	}
	utils.Verbose("Log level %s", utils.Level())

	for _, file := range loaded.Files {
		utils.Verbose("Using config file %s", file)
	}
	for _, warning := range loaded.Warnings {
		utils.Warn("%s", warning)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	execs := newExecutors(settings, loaded.Enabled)
	closeExecutors := RegisterCleanup("action executors", execs.Close)
	defer func() {
		if err := closeExecutors(); err != nil {
			utils.Verbose("Failed to close i3 connection: %v", err)
		}
	}()

	source, err := input.Open(ctx, input.OpenOptions{
		Backend:    settings.Backend,
		Seat:       settings.Seat,
		Device:     settings.Device,
		ReplayFile: settings.ReplayFile,
	})
	if err != nil {
		return fmt.Errorf("failed to open %s event source: %w", settings.Backend, err)
	}
	closeSource := RegisterCleanup("event source", source.Close)
	defer func() {
		if err := closeSource(); err != nil {
			utils.Verbose("Failed to close event source: %v", err)
		}
	}()

	ctrl := controller.New(loaded.Table, execs.list, controller.Options{
		Options: gesture.Options{
			Threshold: settings.Threshold,
			InvertX:   settings.InvertX,
			InvertY:   settings.InvertY,
		},
		Enabled: loaded.Enabled,
	})

	if req.ServeAddr != "" {
		srv, err := server.New(server.Options{
			Addr:        req.ServeAddr,
			EnableCORS:  req.EnableCORS,
			HistorySize: settings.HistorySize,
			Version:     req.Version,
			Listener:    ctrl,
			OnShutdown:  cancel,
		})
		if err != nil {
			return err
		}
		if err := srv.Start(); err != nil {
			return err
		}
		stopServer := RegisterCleanup("event stream server", func() error {
			shutdownCtx, done := context.WithTimeout(context.Background(), serverShutdownTimeout)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
		defer func() {
			if err := stopServer(); err != nil {
				utils.Verbose("Failed to stop event stream server: %v", err)
			}
		}()
		ctrl.SetObserver(srv)
	}

	// registered last so a shutdown stops the loop before releasing the
	// resources it uses
	stopLoop := RegisterCleanup("gesture listener", func() error {
		cancel()
		return nil
	})
	defer stopLoop()

	err = ctrl.Run(ctx, source)

	stats := ctrl.Stats()
	utils.Info("Listener stopped after %d gesture(s), %d action(s), %d failure(s)",
		stats.Gestures, stats.Actions, stats.Failures)

	return err
}
