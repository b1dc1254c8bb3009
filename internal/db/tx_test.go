package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "connections_pkey"}
	fk := &pgconn.PgError{Code: "23503"}

	assert.True(t, IsUniqueViolation(dup))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", dup)))
	assert.False(t, IsUniqueViolation(fk))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsUniqueViolation(nil))

	assert.Equal(t, "connections_pkey", ViolatedConstraint(dup))
	assert.Equal(t, "", ViolatedConstraint(fk))
}

func TestSchemaEmbedded(t *testing.T) {
	assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS connections")
	assert.Contains(t, schemaSQL, "uq_appointments_occupying")
}

func TestPoolConfig(t *testing.T) {
	cfg, err := poolConfig("postgres://app:pw@db.internal:5432/telehealth?sslmode=disable")
	if !assert.NoError(t, err) {
		return
	}

	assert.Equal(t, int32(20), cfg.MaxConns)
	assert.Equal(t, "db.internal", cfg.ConnConfig.Host)
	assert.Equal(t, "telehealth", cfg.ConnConfig.Database)
	assert.Equal(t, applicationName, cfg.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, "UTC", cfg.ConnConfig.RuntimeParams["timezone"])

	_, err = poolConfig("://bad")
	assert.Error(t, err)
}
