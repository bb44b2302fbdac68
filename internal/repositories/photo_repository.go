package repositories

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/noridevx/wedding-web/internal/models"
)

// PhotoRangeQuery selects rows [From, To] (inclusive, zero-based) of the
// upload-time-descending photo listing.
type PhotoRangeQuery struct {
	From              int
	To                int
	OnlyWithChallenge bool
}

type PhotoRepository interface {
	Create(ctx context.Context, p *models.Photo) error
	ListRange(ctx context.Context, q PhotoRangeQuery) ([]*models.Photo, error)

	// LinkChallenge sets challenge_id on one photo and reports how many
	// rows it touched.
	LinkChallenge(ctx context.Context, photoID, challengeID uuid.UUID) (int64, error)
}

type photoRepo struct {
	db DB
}

func NewPhotoRepository(db DB) PhotoRepository {
	return &photoRepo{db: db}
}

func baseSelectPhotoWithChallenge() string {
	return `
        SELECT
            p.id, p.public_url, COALESCE(p.comment, ''),
            COALESCE(p.file_name, ''), COALESCE(p.file_size, 0), COALESCE(p.file_type, ''),
            p.uploaded_at, p.challenge_id,
            c.id, c.description, c.is_completed
        FROM photos p
        LEFT JOIN challenges c ON c.id = p.challenge_id
    `
}

func scanPhotoWithChallenge(row pgx.Row) (*models.Photo, error) {
	var (
		p            models.Photo
		cID          *uuid.UUID
		cDescription *string
		cIsCompleted *bool
	)
	err := row.Scan(
		&p.ID,
		&p.URL,
		&p.Comment,
		&p.FileName,
		&p.FileSize,
		&p.FileType,
		&p.UploadedAt,
		&p.ChallengeID,
		&cID,
		&cDescription,
		&cIsCompleted,
	)
	if err != nil {
		return nil, err
	}
	if p.ChallengeID != nil && cID != nil {
		p.Challenge = &models.PhotoChallenge{ID: *cID}
		if cDescription != nil {
			p.Challenge.Description = *cDescription
		}
		if cIsCompleted != nil {
			p.Challenge.IsCompleted = *cIsCompleted
		}
	}
	return &p, nil
}

func (r *photoRepo) Create(ctx context.Context, p *models.Photo) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.db.Exec(ctx, `
        INSERT INTO photos (
            id, public_url, comment, file_name, file_size, file_type,
            uploaded_at, challenge_id
        ) VALUES (
            $1,$2,$3,$4,$5,$6,$7,$8
        )
    `,
		p.ID,
		p.URL,
		p.Comment,
		p.FileName,
		p.FileSize,
		p.FileType,
		p.UploadedAt,
		p.ChallengeID,
	)
	return err
}

func (r *photoRepo) ListRange(ctx context.Context, q PhotoRangeQuery) ([]*models.Photo, error) {
	if q.From < 0 || q.To < q.From {
		return nil, fmt.Errorf("invalid photo range [%d, %d]", q.From, q.To)
	}

	var (
		qb   strings.Builder
		args []any
		idx  = 1
	)

	qb.WriteString(baseSelectPhotoWithChallenge())
	qb.WriteString(" WHERE p.file_type LIKE 'image/%'")
	if q.OnlyWithChallenge {
		qb.WriteString(" AND p.challenge_id IS NOT NULL")
	}
	qb.WriteString(" ORDER BY p.uploaded_at DESC")

	qb.WriteString(" LIMIT $")
	qb.WriteString(strconv.Itoa(idx))
	args = append(args, q.To-q.From+1)
	idx++

	qb.WriteString(" OFFSET $")
	qb.WriteString(strconv.Itoa(idx))
	args = append(args, q.From)

	rows, err := r.db.Query(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("listing photos: %w", err)
	}
	defer rows.Close()

	out := []*models.Photo{}
	for rows.Next() {
		p, err := scanPhotoWithChallenge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *photoRepo) LinkChallenge(ctx context.Context, photoID, challengeID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `
        UPDATE photos
        SET challenge_id = $2
        WHERE id = $1
    `,
		photoID,
		challengeID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
