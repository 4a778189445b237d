package services

import (
	"context"
)

// Shutdown stops the HTTP server, waits for background tasks and closes
// connections. The caller cancels the context given to Start first.
func (m *Manager) Shutdown(ctx context.Context) {
	if m.server != nil {
		if err := m.server.Stop(ctx); err != nil {
			m.logger.Error("Error shutting down HTTP server", "error", err)
		}
	}

	m.logger.Info("Waiting for background tasks to finish")
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("Background tasks finished")
	case <-ctx.Done():
		m.logger.Warn("Timeout waiting for background tasks")
	}

	if m.natsConn != nil {
		m.natsConn.Close()
		m.natsConn = nil
	}

	if m.provider != nil {
		if err := m.provider.Close(ctx); err != nil {
			m.logger.Error("Error closing storage", "error", err)
		}
		m.provider = nil
	}
}
