// Package logging builds the zap loggers used across the application.
// Logs go to stderr so subtitle output can be piped from stdout.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New creates a logger for the given verbosity, falling back to a no-op
// logger if construction fails.
func New(verbose bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if verbose {
		logger, err = NewDevelopment()
	} else {
		logger, err = NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// NewProduction creates a JSON logger at info level writing to stderr.
func NewProduction() (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build production logger: %w", err)
	}
	return logger, nil
}

// NewDevelopment creates a console logger at debug level writing to stderr.
func NewDevelopment() (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build development logger: %w", err)
	}
	return logger, nil
}
