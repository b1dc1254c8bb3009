package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hackgods/telehealth-social/internal/db"
	"github.com/hackgods/telehealth-social/internal/logger"
	"github.com/hackgods/telehealth-social/internal/profile"
)

const (
	professionalCount = 100
	patientCount      = 5000
	clinicCount       = 10
	postsPerAuthor    = 5
	followsPerPatient = 8
	batchSize         = 500
)

var specialties = []string{
	"Dermatologia",
	"Cardiologia",
	"Clinica Geral",
	"Ortopedia",
	"Endocrinologia",
	"Neurologia",
	"Pediatria",
	"Psiquiatria",
	"Psicologia",
	"Nutricao",
}

type seeder struct {
	pool *pgxpool.Pool
	log  *zap.Logger
	cpfs map[string]bool
}

func main() {
	zlog, err := logger.New("dev", "info")
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		zlog.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn, zlog)
	if err != nil {
		zlog.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(context.Background(), pool); err != nil {
		zlog.Fatal("apply schema", zap.Error(err))
	}

	gofakeit.Seed(time.Now().UnixNano())
	s := &seeder{pool: pool, log: zlog, cpfs: make(map[string]bool)}

	bg := context.Background()
	professionals, err := s.seedProfessionals(bg, professionalCount)
	if err != nil {
		zlog.Fatal("seed professionals", zap.Error(err))
	}
	if err := s.seedRules(bg, professionals); err != nil {
		zlog.Fatal("seed availability rules", zap.Error(err))
	}
	if err := s.seedClinics(bg, clinicCount); err != nil {
		zlog.Fatal("seed clinics", zap.Error(err))
	}
	patients, err := s.seedPatients(bg, patientCount)
	if err != nil {
		zlog.Fatal("seed patients", zap.Error(err))
	}
	if err := s.seedConnections(bg, patients, professionals); err != nil {
		zlog.Fatal("seed connections", zap.Error(err))
	}
	if err := s.seedPosts(bg, professionals, patients); err != nil {
		zlog.Fatal("seed posts", zap.Error(err))
	}

	zlog.Info("seed complete")
}

// cpf returns a valid CPF not handed out before in this run.
func (s *seeder) cpf() string {
	for {
		raw := fmt.Sprintf("%011d", gofakeit.Number(0, 99999999999))
		if profile.IsValidCPF(raw) && !s.cpfs[raw] {
			s.cpfs[raw] = true
			return raw
		}
	}
}

// claimCPF registers a fresh CPF for id in the shared CPF table.
func (s *seeder) claimCPF(ctx context.Context, tx pgx.Tx, kind string, id uuid.UUID) (string, error) {
	cpf := s.cpf()
	_, err := tx.Exec(ctx, `
		INSERT INTO profile_cpfs (cpf, kind, profile_id) VALUES ($1, $2, $3)
	`, cpf, kind, id)
	return cpf, err
}

func (s *seeder) inBatches(ctx context.Context, total int, label string, fn func(tx pgx.Tx, i int) error) error {
	for offset := 0; offset < total; offset += batchSize {
		end := min(offset+batchSize, total)

		err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
			for i := offset; i < end; i++ {
				if err := fn(tx, i); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		s.log.Info("seeded", zap.String("table", label), zap.Int("done", end), zap.Int("total", total))
	}
	return nil
}

func (s *seeder) seedProfessionals(ctx context.Context, count int) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, count)
	err := s.inBatches(ctx, count, "professionals", func(tx pgx.Tx, i int) error {
		ids[i] = uuid.New()
		specialty := specialties[gofakeit.Number(0, len(specialties)-1)]
		cpf, err := s.claimCPF(ctx, tx, "professional", ids[i])
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO professionals (id, name, cpf, specialty, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
		`, ids[i], "Dr(a). "+gofakeit.Name(), cpf, specialty)
		return err
	})
	return ids, err
}

// seedRules gives every professional a weekday morning and afternoon window.
func (s *seeder) seedRules(ctx context.Context, professionals []uuid.UUID) error {
	windows := [][2]string{{"08:00", "12:00"}, {"14:00", "18:00"}}
	return s.inBatches(ctx, len(professionals), "availability_rules", func(tx pgx.Tx, i int) error {
		for day := time.Monday; day <= time.Friday; day++ {
			for _, w := range windows {
				_, err := tx.Exec(ctx, `
					INSERT INTO availability_rules (id, professional_id, day_of_week, start_time, end_time, active, created_at)
					VALUES ($1, $2, $3, $4, $5, true, now())
				`, uuid.New(), professionals[i], int(day), w[0], w[1])
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *seeder) seedClinics(ctx context.Context, count int) error {
	return s.inBatches(ctx, count, "clinics", func(tx pgx.Tx, _ int) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO clinics (id, name, created_at, updated_at)
			VALUES ($1, $2, now(), now())
		`, uuid.New(), "Clinica "+gofakeit.LastName())
		return err
	})
}

func (s *seeder) seedPatients(ctx context.Context, count int) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, count)
	err := s.inBatches(ctx, count, "patients", func(tx pgx.Tx, i int) error {
		ids[i] = uuid.New()
		cpf, err := s.claimCPF(ctx, tx, "patient", ids[i])
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO patients (id, name, cpf, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, ids[i], gofakeit.Name(), cpf)
		return err
	})
	return ids, err
}

func (s *seeder) seedConnections(ctx context.Context, patients, professionals []uuid.UUID) error {
	return s.inBatches(ctx, len(patients), "connections", func(tx pgx.Tx, i int) error {
		for n := 0; n < followsPerPatient; n++ {
			followee := professionals[gofakeit.Number(0, len(professionals)-1)]
			_, err := tx.Exec(ctx, `
				INSERT INTO connections (follower_id, following_id, created_at)
				VALUES ($1, $2, now() - make_interval(mins => $3))
				ON CONFLICT DO NOTHING
			`, patients[i], followee, gofakeit.Number(0, 60*24*30))
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// seedPosts writes posts spread over the last two weeks so the trending
// window has both fresh and expired posts, then likes them.
func (s *seeder) seedPosts(ctx context.Context, authors, likers []uuid.UUID) error {
	return s.inBatches(ctx, len(authors), "posts", func(tx pgx.Tx, i int) error {
		for n := 0; n < postsPerAuthor; n++ {
			postID := uuid.New()
			_, err := tx.Exec(ctx, `
				INSERT INTO posts (id, author_id, content, media, created_at)
				VALUES ($1, $2, $3, '{}', now() - make_interval(hours => $4))
			`, postID, authors[i], gofakeit.Sentence(20), gofakeit.Number(0, 24*14))
			if err != nil {
				return err
			}

			likes := gofakeit.Number(0, 30)
			for l := 0; l < likes; l++ {
				liker := likers[gofakeit.Number(0, len(likers)-1)]
				tag, err := tx.Exec(ctx, `
					INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2)
					ON CONFLICT DO NOTHING
				`, postID, liker)
				if err != nil {
					return err
				}
				if tag.RowsAffected() == 0 {
					continue
				}
				if _, err := tx.Exec(ctx, `UPDATE posts SET likes_count = likes_count + 1 WHERE id = $1`, postID); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
