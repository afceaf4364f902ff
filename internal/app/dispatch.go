package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
)

// Dispatcher handles confirmed signs from any recognizer: it appends them to
// the recognition log and runs the plugin actions bound to the sign.
// Plugins run in the background so a slow action never stalls a frame loop.
type Dispatcher struct {
	store    *store.Store
	plugins  *plugin.Manager
	executor *plugin.Executor
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher returns a dispatcher. A nil store disables both the log and
// the action lookup; a nil plugin manager disables actions only.
func NewDispatcher(s *store.Store, plugins *plugin.Manager, executor *plugin.Executor, logger *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		store:    s,
		plugins:  plugins,
		executor: executor,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Handle processes one recognizer event for a session. Only confirmations
// are acted on.
func (d *Dispatcher) Handle(session string, ev gesture.Event) {
	if ev.Type != gesture.EventConfirmed || d.store == nil {
		return
	}

	rec := &store.Recognition{
		SessionID:    session,
		SignKey:      ev.Key,
		Text:         ev.Text,
		Confidence:   ev.Confidence,
		Handedness:   ev.Handedness,
		Sequence:     ev.Sequence,
		RecognizedAt: ev.At,
	}
	if err := d.store.Recognitions().Create(rec); err != nil {
		d.logger.Error("failed to log recognition", "sign", ev.Key, "error", err)
	}

	if d.plugins == nil || d.executor == nil {
		return
	}

	actions, err := d.store.Actions().ListBySign(ev.Key)
	if err != nil {
		d.logger.Error("failed to load actions", "sign", ev.Key, "error", err)
		return
	}
	for _, a := range actions {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.run(a, ev)
		}()
	}
}

func (d *Dispatcher) run(a *store.Action, ev gesture.Event) {
	logger := d.logger.With("sign", ev.Key, "plugin", a.PluginName, "action", a.ActionName)

	if err := d.execute(a, ev); err != nil {
		logger.Warn("action failed", "error", err)
		return
	}
	logger.Debug("action executed")
}

func (d *Dispatcher) execute(a *store.Action, ev gesture.Event) error {
	p, err := d.plugins.Get(a.PluginName)
	if err != nil {
		return err
	}

	resp, err := d.executor.Execute(d.ctx, p, &plugin.Request{
		Action:     a.ActionName,
		Sign:       ev.Key,
		Text:       ev.Text,
		Confidence: ev.Confidence,
		Sequence:   ev.Sequence,
		Config:     a.Config,
	})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("plugin reported failure: %s", resp.Error)
	}
	return nil
}

// Close cancels running actions and waits for them to return.
func (d *Dispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}

// Wait blocks until every started action has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
