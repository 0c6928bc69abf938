package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/seqcat-bio/seqcat-engine/pkg/apperrors"
	"github.com/seqcat-bio/seqcat-engine/pkg/database"
	"github.com/seqcat-bio/seqcat-engine/pkg/models"
)

// Columns on archive_studies that partial updates may touch.
var archiveStudyColumns = map[string]bool{
	"title":                 true,
	"additional_accessions": true,
	"is_private":            true,
	"is_suppressed":         true,
	"webin_submitter":       true,
}

// ArchiveStudyRepository defines data access for archive study mirrors.
type ArchiveStudyRepository interface {
	Upsert(ctx context.Context, study *models.ArchiveStudy) error
	Get(ctx context.Context, accession string) (*models.ArchiveStudy, error)
	UpdateFields(ctx context.Context, accession string, fields models.FieldMap) error
	MarkFetched(ctx context.Context, accession string, at time.Time) error
}

type archiveStudyRepository struct {
	db *database.DB
}

// NewArchiveStudyRepository creates a new archive study repository.
func NewArchiveStudyRepository(db *database.DB) ArchiveStudyRepository {
	return &archiveStudyRepository{db: db}
}

// Upsert inserts the mirror row or refreshes its content fields. The
// fetched_at marker is not bumped here; MarkFetched settles it once the
// sync pass completes. A submitter learned on an earlier fetch survives
// re-fetches that report none, such as a private study turning public.
func (r *archiveStudyRepository) Upsert(ctx context.Context, study *models.ArchiveStudy) error {
	query := `
		INSERT INTO archive_studies (accession, title, additional_accessions, is_private, is_suppressed, webin_submitter)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (accession) DO UPDATE
		SET title = EXCLUDED.title,
		    additional_accessions = EXCLUDED.additional_accessions,
		    is_private = EXCLUDED.is_private,
		    is_suppressed = EXCLUDED.is_suppressed,
		    webin_submitter = COALESCE(NULLIF(EXCLUDED.webin_submitter, ''), archive_studies.webin_submitter)`

	_, err := r.db.Exec(ctx, query,
		study.Accession,
		study.Title,
		study.AdditionalAccessions,
		study.IsPrivate,
		study.IsSuppressed,
		study.WebinSubmitter,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert archive study: %w", err)
	}
	return nil
}

// Get retrieves an archive study mirror by its primary accession.
func (r *archiveStudyRepository) Get(ctx context.Context, accession string) (*models.ArchiveStudy, error) {
	query := `
		SELECT accession, title, additional_accessions, is_private, is_suppressed, webin_submitter, fetched_at
		FROM archive_studies
		WHERE accession = $1`

	var study models.ArchiveStudy
	err := r.db.QueryRow(ctx, query, accession).Scan(
		&study.Accession,
		&study.Title,
		&study.AdditionalAccessions,
		&study.IsPrivate,
		&study.IsSuppressed,
		&study.WebinSubmitter,
		&study.FetchedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get archive study: %w", err)
	}
	return &study, nil
}

// UpdateFields applies a partial update to the mirror row.
func (r *archiveStudyRepository) UpdateFields(ctx context.Context, accession string, fields models.FieldMap) error {
	setClause, args, err := buildSetClause(fields, archiveStudyColumns, 1)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("UPDATE archive_studies SET %s WHERE accession = $1", setClause)
	result, err := r.db.Exec(ctx, query, append([]any{accession}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to update archive study: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// MarkFetched settles the last-synced marker.
func (r *archiveStudyRepository) MarkFetched(ctx context.Context, accession string, at time.Time) error {
	result, err := r.db.Exec(ctx,
		`UPDATE archive_studies SET fetched_at = $2 WHERE accession = $1`, accession, at)
	if err != nil {
		return fmt.Errorf("failed to mark archive study fetched: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

var _ ArchiveStudyRepository = (*archiveStudyRepository)(nil)
