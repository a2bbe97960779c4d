package sweeper

import (
	"context"
)

// Sweeper is a long-running background task that performs periodic market maintenance
type Sweeper interface {
	// Start runs the main loop until the context is canceled or Stop is called
	Start(ctx context.Context) error

	// Stop signals the loop to exit and waits for the in-flight cycle to finish
	Stop(ctx context.Context) error

	// Name returns the sweeper's name for logging
	Name() string
}
