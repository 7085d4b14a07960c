package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/skillpulse/internal/alarms"
	"github.com/julianstephens/skillpulse/internal/config"
	"github.com/julianstephens/skillpulse/internal/constants"
	"github.com/julianstephens/skillpulse/internal/engine"
	"github.com/julianstephens/skillpulse/internal/eventbus"
	"github.com/julianstephens/skillpulse/internal/httpapi"
	"github.com/julianstephens/skillpulse/internal/logger"
	"github.com/julianstephens/skillpulse/internal/notifier"
	"github.com/julianstephens/skillpulse/internal/scheduler"
)

// ServeCmd runs the daemon: alarms, the HTTP API and the event stream.
type ServeCmd struct {
	Addr string `help:"Listen address. Defaults to server.addr."`
}

// Daemon is a fully wired background instance.
type Daemon struct {
	Processor  *engine.Processor
	Reconciler *scheduler.Reconciler
	Alarms     *alarms.Manager
	Hub        *eventbus.Hub
}

// NewDaemon wires a processor whose alarms fire into the reconciler and
// whose badge changes reach the event stream.
func (c *Context) NewDaemon() (*Daemon, error) {
	repo, err := c.Repository()
	if err != nil {
		return nil, err
	}
	loc, err := c.Config.Location()
	if err != nil {
		return nil, err
	}

	hub := eventbus.NewHub()
	mgr := alarms.NewManager(nil, alarms.WithHandlerTimeout(constants.AlarmHandlerTimeout))
	badge := notifier.NewMemoryBadge(func(text string) {
		hub.Publish(eventbus.Event{Type: eventbus.BadgeUpdated, Data: map[string]any{"text": text}})
	})

	opts := append(c.ProcessorOptions(),
		engine.WithAlarms(mgr),
		engine.WithBadge(badge),
		engine.WithEvents(hub),
	)
	proc := engine.NewProcessor(repo, loc, opts...)
	rec := scheduler.New(proc)
	mgr.SetHandler(rec.HandleAlarm)

	c.proc = proc
	c.caller = proc
	return &Daemon{Processor: proc, Reconciler: rec, Alarms: mgr, Hub: hub}, nil
}

func (s *ServeCmd) Run(ctx *Context) error {
	d, err := ctx.NewDaemon()
	if err != nil {
		return err
	}
	defer d.Alarms.Close()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := d.Reconciler.EnsureScheduled(sigCtx); err != nil {
		return fmt.Errorf("failed to restore alarms: %w", err)
	}

	if ctx.Loader != nil {
		ctx.Loader.Watch(func(cfg *config.Config) {
			logger.SetDebug(cfg.Debug)
			if cfg.Storage != ctx.Config.Storage || cfg.Server != ctx.Config.Server || cfg.Timezone != ctx.Config.Timezone {
				logger.Warn("Storage, server and timezone changes apply after a restart")
			}
		})
	}

	addr := s.Addr
	if addr == "" {
		addr = ctx.Config.Server.Addr
	}
	srv, err := httpapi.Start(sigCtx, addr, d.Processor, d.Hub)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	ctx.printf("skillpulse daemon listening on http://%s (Ctrl+C to stop)\n", srv.Addr())
	<-sigCtx.Done()
	logger.Info("Shutting down")
	return nil
}
