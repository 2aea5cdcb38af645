// Package contracts holds the interfaces pkg/app composes a service from.
package contracts

import (
	"context"

	"github.com/julienschmidt/httprouter"
)

// Handler mounts one domain's routes.
type Handler interface {
	RegisterRoutes(router *httprouter.Router)
}

// Worker is a background loop that runs until its context is cancelled.
type Worker func(ctx context.Context) error
