package in

import (
	"github.com/elder-platform/elder/components/core/internal/services/command"
	"github.com/elder-platform/elder/components/core/internal/services/query"
)

// Handler aggregates every resource handler over one Command/Query pair,
// mirroring the teacher's holder.go pattern of a single struct the router
// wires routes against.
type Handler struct {
	Command *command.UseCase
	Query   *query.UseCase
}
