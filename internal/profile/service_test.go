package profile

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hackgods/telehealth-social/internal/apperr"
)

// -- Fake repository --

type fakeRepo struct {
	rows  []Identity
	cpfs  map[string]Kind
	calls int
	// staleLookup makes FindCPF miss, like a registration racing another.
	staleLookup bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{cpfs: make(map[string]Kind)}
}

func (f *fakeRepo) add(id uuid.UUID, kind Kind, name string) {
	f.rows = append(f.rows, Identity{ID: id, Kind: kind, Name: name, CreatedAt: time.Now()})
}

func (f *fakeRepo) ResolveMany(_ context.Context, ids []uuid.UUID) ([]Identity, error) {
	f.calls++
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []Identity
	for _, r := range f.rows {
		if want[r.ID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) FindCPF(_ context.Context, cpf string) (Kind, bool, error) {
	if f.staleLookup {
		return "", false, nil
	}
	k, ok := f.cpfs[cpf]
	return k, ok, nil
}

func (f *fakeRepo) Create(_ context.Context, id uuid.UUID, in RegisterInput, cpf string) (*Identity, error) {
	if cpf != "" {
		if _, taken := f.cpfs[cpf]; taken {
			return nil, ErrDuplicateCPF
		}
		f.cpfs[cpf] = in.Kind
	}
	f.add(id, in.Kind, in.Name)
	i := f.rows[len(f.rows)-1]
	return &i, nil
}

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	return NewService(repo, zap.NewNop()), repo
}

func TestResolveManySingleRoundTrip(t *testing.T) {
	svc, repo := newTestService()
	doc, pat, clinic := uuid.New(), uuid.New(), uuid.New()
	repo.add(doc, KindProfessional, "Dra. Ana")
	repo.add(pat, KindPatient, "Bruno")
	repo.add(clinic, KindClinic, "Clinica Sol")

	got, err := svc.ResolveMany(context.Background(), []uuid.UUID{doc, pat, clinic, uuid.New()})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.calls)
	assert.Len(t, got, 3)
	assert.Equal(t, KindProfessional, got[doc].Kind)
	assert.Equal(t, KindPatient, got[pat].Kind)
	assert.Equal(t, KindClinic, got[clinic].Kind)
}

func TestResolveManyDropsAmbiguous(t *testing.T) {
	svc, repo := newTestService()
	id := uuid.New()
	repo.add(id, KindProfessional, "Twice")
	repo.add(id, KindPatient, "Twice")

	got, err := svc.ResolveMany(context.Background(), []uuid.UUID{id})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = svc.Resolve(context.Background(), id)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("patient with valid CPF", func(t *testing.T) {
		svc, _ := newTestService()
		id := uuid.New()
		got, err := svc.Register(ctx, id, RegisterInput{Kind: KindPatient, Name: "  Carla ", CPF: "111.444.777-35"})
		require.NoError(t, err)
		assert.Equal(t, "Carla", got.Name)
		assert.Equal(t, KindPatient, got.Kind)
	})

	t.Run("invalid CPF", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Register(ctx, uuid.New(), RegisterInput{Kind: KindProfessional, Name: "Dr. X", CPF: "111.111.111-11"})
		assert.ErrorIs(t, err, ErrInvalidCPF)
	})

	t.Run("duplicate CPF across kinds", func(t *testing.T) {
		svc, repo := newTestService()
		repo.cpfs["11144477735"] = KindProfessional

		_, err := svc.Register(ctx, uuid.New(), RegisterInput{Kind: KindPatient, Name: "Dup", CPF: "11144477735"})
		assert.ErrorIs(t, err, ErrDuplicateCPF)
		assert.True(t, apperr.Is(err, apperr.Conflict))
	})

	t.Run("concurrent duplicate CPF across kinds", func(t *testing.T) {
		svc, repo := newTestService()
		_, err := svc.Register(ctx, uuid.New(), RegisterInput{Kind: KindPatient, Name: "First", CPF: "11144477735"})
		require.NoError(t, err)

		repo.staleLookup = true
		_, err = svc.Register(ctx, uuid.New(), RegisterInput{Kind: KindProfessional, Name: "Dr. Second", CPF: "111.444.777-35"})
		assert.ErrorIs(t, err, ErrDuplicateCPF)
		assert.Len(t, repo.rows, 1)
		assert.Equal(t, KindPatient, repo.cpfs["11144477735"])
	})

	t.Run("already registered", func(t *testing.T) {
		svc, repo := newTestService()
		id := uuid.New()
		repo.add(id, KindCompany, "Acme")

		_, err := svc.Register(ctx, id, RegisterInput{Kind: KindClinic, Name: "Other"})
		assert.ErrorIs(t, err, ErrAlreadyRegistered)
	})

	t.Run("clinic needs no CPF", func(t *testing.T) {
		svc, _ := newTestService()
		got, err := svc.Register(ctx, uuid.New(), RegisterInput{Kind: KindClinic, Name: "Clinica Sol"})
		require.NoError(t, err)
		assert.Equal(t, KindClinic, got.Kind)
	})

	t.Run("missing name and bad kind", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Register(ctx, uuid.New(), RegisterInput{Kind: KindClinic, Name: " "})
		assert.True(t, apperr.Is(err, apperr.InvalidInput))

		_, err = svc.Register(ctx, uuid.New(), RegisterInput{Kind: "hospital", Name: "H"})
		assert.True(t, apperr.Is(err, apperr.InvalidInput))
	})
}

func TestCheckDuplicateCPF(t *testing.T) {
	svc, repo := newTestService()
	repo.cpfs["52998224725"] = KindPatient

	kind, found, err := svc.CheckDuplicateCPF(context.Background(), "529.982.247-25")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, KindPatient, kind)

	_, found, err = svc.CheckDuplicateCPF(context.Background(), "111.444.777-35")
	require.NoError(t, err)
	assert.False(t, found)

	_, _, err = svc.CheckDuplicateCPF(context.Background(), "123")
	assert.ErrorIs(t, err, ErrInvalidCPF)
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("company")
	assert.True(t, ok)
	assert.Equal(t, KindCompany, k)

	_, ok = ParseKind("Professional")
	assert.False(t, ok)
	assert.True(t, KindPatient.HasCPF())
	assert.False(t, KindClinic.HasCPF())
}
