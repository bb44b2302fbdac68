package app

import (
	"context"
	"fmt"

	"github.com/noridevx/wedding-web/internal/repositories"
	"github.com/noridevx/wedding-web/internal/utils"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS challenges (
        id           UUID PRIMARY KEY,
        description  TEXT NOT NULL,
        is_completed BOOLEAN NOT NULL DEFAULT FALSE,
        completed_at TIMESTAMPTZ,
        completed_by TEXT,
        is_reserved  BOOLEAN NOT NULL DEFAULT FALSE,
        reserved_at  TIMESTAMPTZ,
        reserved_by  TEXT,
        created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS photos (
        id           UUID PRIMARY KEY,
        public_url   TEXT NOT NULL,
        comment      TEXT,
        file_name    TEXT,
        file_size    BIGINT,
        file_type    TEXT,
        uploaded_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        challenge_id UUID REFERENCES challenges(id) ON DELETE SET NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_challenges_created_at ON challenges (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_photos_uploaded_at ON photos (uploaded_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_photos_challenge_id ON photos (challenge_id)`,
}

// EnsureSchema creates the challenges and photos tables when absent. It is
// safe to run on every start.
func EnsureSchema(ctx context.Context, db repositories.DB) error {
	if db == nil {
		return utils.ErrGatewayUnavailable
	}
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, stmt := range schemaStatements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	utils.Logger.Info("Schema is up to date")
	return nil
}
