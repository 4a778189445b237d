package services

import (
	"context"
	"fmt"
)

// Start launches the HTTP server, the sync consumer and the watcher. They
// run until bgCtx is cancelled. A component that stops with an error before
// that is reported on Err.
func (m *Manager) Start(bgCtx context.Context) {
	if m.server != nil {
		m.run(bgCtx, "HTTP server", m.server.Start)
	}

	if m.consumer != nil {
		m.logger.Info("Starting sync consumer")
		m.run(bgCtx, "sync consumer", m.consumer.Start)
	}

	if m.watcher != nil {
		m.run(bgCtx, "change stream watcher", m.watcher.Run)
	}
}

func (m *Manager) run(ctx context.Context, name string, fn func(context.Context) error) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		err := fn(ctx)
		if err == nil || ctx.Err() != nil {
			return
		}
		m.logger.Error("Component stopped with error", "component_name", name, "error", err)
		m.fail(fmt.Errorf("%s: %w", name, err))
	}()
}
