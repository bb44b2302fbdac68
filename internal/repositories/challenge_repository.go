package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/noridevx/wedding-web/internal/models"
)

type ChallengeRepository interface {
	Create(ctx context.Context, c *models.Challenge) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Challenge, error)
	Count(ctx context.Context) (int, error)

	// ListAll returns every challenge, newest first.
	ListAll(ctx context.Context) ([]*models.Challenge, error)

	// The mutations below are filtered updates by id; they return the
	// updated rows, which is empty when the id does not exist.
	Reserve(ctx context.Context, id uuid.UUID, deviceID string, at time.Time) ([]*models.Challenge, error)
	Release(ctx context.Context, id uuid.UUID) ([]*models.Challenge, error)
	Complete(ctx context.Context, id uuid.UUID, completedBy string, at time.Time) ([]*models.Challenge, error)
}

type challengeRepo struct {
	db DB
}

func NewChallengeRepository(db DB) ChallengeRepository {
	return &challengeRepo{db: db}
}

const challengeColumns = `
            id, description,
            is_completed, completed_at, COALESCE(completed_by, ''),
            is_reserved, reserved_at, reserved_by,
            created_at
`

func baseSelectChallenge() string {
	return `
        SELECT` + challengeColumns + `
        FROM challenges
    `
}

func scanChallenge(row pgx.Row) (*models.Challenge, error) {
	var c models.Challenge
	err := row.Scan(
		&c.ID,
		&c.Description,
		&c.IsCompleted,
		&c.CompletedAt,
		&c.CompletedBy,
		&c.IsReserved,
		&c.ReservedAt,
		&c.ReservedBy,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *challengeRepo) Create(ctx context.Context, c *models.Challenge) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := r.db.Exec(ctx, `
        INSERT INTO challenges (
            id, description, is_completed, is_reserved, created_at
        ) VALUES (
            $1, $2, FALSE, FALSE, NOW()
        )
    `,
		c.ID,
		c.Description,
	)
	return err
}

func (r *challengeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Challenge, error) {
	row := r.db.QueryRow(ctx, baseSelectChallenge()+" WHERE id=$1", id)
	c, err := scanChallenge(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (r *challengeRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM challenges`).Scan(&n)
	return n, err
}

func (r *challengeRepo) ListAll(ctx context.Context) ([]*models.Challenge, error) {
	rows, err := r.db.Query(ctx, baseSelectChallenge()+" ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("listing challenges: %w", err)
	}
	return collectChallenges(rows)
}

func (r *challengeRepo) Reserve(
	ctx context.Context,
	id uuid.UUID,
	deviceID string,
	at time.Time,
) ([]*models.Challenge, error) {
	return r.updateReturning(ctx, `
        UPDATE challenges
        SET is_reserved = TRUE,
            reserved_at = $2,
            reserved_by = $3
        WHERE id = $1
        RETURNING`+challengeColumns,
		id, at, deviceID,
	)
}

func (r *challengeRepo) Release(ctx context.Context, id uuid.UUID) ([]*models.Challenge, error) {
	return r.updateReturning(ctx, `
        UPDATE challenges
        SET is_reserved = FALSE,
            reserved_at = NULL,
            reserved_by = NULL
        WHERE id = $1
        RETURNING`+challengeColumns,
		id,
	)
}

// Complete always clears the reservation columns, whoever held them.
func (r *challengeRepo) Complete(
	ctx context.Context,
	id uuid.UUID,
	completedBy string,
	at time.Time,
) ([]*models.Challenge, error) {
	return r.updateReturning(ctx, `
        UPDATE challenges
        SET is_completed = TRUE,
            completed_at = $2,
            completed_by = $3,
            is_reserved  = FALSE,
            reserved_at  = NULL,
            reserved_by  = NULL
        WHERE id = $1
        RETURNING`+challengeColumns,
		id, at, completedBy,
	)
}

func (r *challengeRepo) updateReturning(ctx context.Context, q string, args ...any) ([]*models.Challenge, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collectChallenges(rows)
}

func collectChallenges(rows pgx.Rows) ([]*models.Challenge, error) {
	defer rows.Close()

	out := []*models.Challenge{}
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
