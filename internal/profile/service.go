package profile

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/telehealth-social/internal/apperr"
)

var (
	ErrProfileNotFound   = apperr.New(apperr.NotFound, "profile not found")
	ErrAlreadyRegistered = apperr.New(apperr.Conflict, "profile already registered")
	ErrDuplicateCPF      = apperr.New(apperr.Conflict, "CPF already registered")
)

type Service struct {
	repo Repository
	log  *zap.Logger
}

func NewService(repo Repository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Resolve maps id to its single profile kind.
func (s *Service) Resolve(ctx context.Context, id uuid.UUID) (*Identity, error) {
	found, err := s.ResolveMany(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	identity, ok := found[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return &identity, nil
}

// ResolveMany resolves ids with a single store round trip. Ids that match no
// profile, or more than one kind, are left out of the result.
func (s *Service) ResolveMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Identity, error) {
	rows, err := s.repo.ResolveMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]Identity, len(rows))
	ambiguous := make(map[uuid.UUID]bool)
	for _, row := range rows {
		if _, seen := out[row.ID]; seen {
			ambiguous[row.ID] = true
			continue
		}
		out[row.ID] = row
	}
	for id := range ambiguous {
		s.log.Warn("identity resolves to more than one profile kind", zap.String("user_id", id.String()))
		delete(out, id)
	}
	return out, nil
}

// CheckDuplicateCPF reports which profile kind already holds the CPF, if any.
func (s *Service) CheckDuplicateCPF(ctx context.Context, raw string) (Kind, bool, error) {
	cpf, err := ValidateCPF(raw)
	if err != nil {
		return "", false, err
	}
	return s.repo.FindCPF(ctx, cpf)
}

// Register creates the caller's profile. Patients and professionals must
// present a valid CPF that no other profile holds.
func (s *Service) Register(ctx context.Context, userID uuid.UUID, in RegisterInput) (*Identity, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, apperr.New(apperr.InvalidInput, "name is required")
	}
	if _, ok := ParseKind(string(in.Kind)); !ok {
		return nil, apperr.New(apperr.InvalidInput, "unknown profile kind")
	}

	if _, err := s.Resolve(ctx, userID); err == nil {
		return nil, ErrAlreadyRegistered
	} else if !apperr.Is(err, apperr.NotFound) {
		return nil, err
	}

	var cpf string
	if in.Kind.HasCPF() {
		normalized, err := ValidateCPF(in.CPF)
		if err != nil {
			return nil, err
		}
		holder, found, err := s.repo.FindCPF(ctx, normalized)
		if err != nil {
			return nil, err
		}
		if found {
			s.log.Info("registration rejected, duplicate CPF",
				zap.String("user_id", userID.String()),
				zap.String("held_by", string(holder)))
			return nil, ErrDuplicateCPF
		}
		cpf = normalized
	}

	identity, err := s.repo.Create(ctx, userID, in, cpf)
	if err != nil {
		return nil, err
	}

	s.log.Info("profile registered",
		zap.String("user_id", userID.String()),
		zap.String("kind", string(in.Kind)))
	return identity, nil
}
