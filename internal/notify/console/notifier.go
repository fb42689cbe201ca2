// Package console implements the run notifier as a structured log line.
package console

import (
	"context"

	"go.uber.org/zap"
)

// Notifier reports crawl completion through the application logger.
type Notifier struct {
	logger *zap.Logger
}

// New builds a Notifier writing to logger.
func New(logger *zap.Logger) *Notifier {
	return &Notifier{logger: logger}
}

// Notify logs the completion message.
func (n *Notifier) Notify(_ context.Context, message string) error {
	n.logger.Info("scraping notification", zap.String("message", message))
	return nil
}
