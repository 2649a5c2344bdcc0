package app

import (
	"errors"
	"fmt"
)

// Close releases the audit sink and the multistore. It is safe to call once
// on shutdown.
func (app *KernelApp) Close() error {
	app.mu.Lock()
	defer app.mu.Unlock()

	var errs []error

	if app.auditSink != nil {
		if err := app.auditSink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close audit sink: %w", err))
		}
		app.auditSink = nil
	}

	if app.cms != nil {
		if err := app.cms.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}

	app.logger.Info("kernel app closed")
	return errors.Join(errs...)
}
