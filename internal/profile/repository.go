package profile

import (
	"context"

	"github.com/google/uuid"
)

// Repository reads and writes the four profile tables.
type Repository interface {
	// ResolveMany returns one row per (id, table) hit. An id present in two
	// tables comes back twice.
	ResolveMany(ctx context.Context, ids []uuid.UUID) ([]Identity, error)
	FindCPF(ctx context.Context, cpf string) (Kind, bool, error)
	Create(ctx context.Context, id uuid.UUID, in RegisterInput, cpf string) (*Identity, error)
}
