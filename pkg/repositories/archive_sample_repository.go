package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/seqcat-bio/seqcat-engine/pkg/apperrors"
	"github.com/seqcat-bio/seqcat-engine/pkg/database"
	"github.com/seqcat-bio/seqcat-engine/pkg/models"
)

// ArchiveSampleRepository defines data access for archive sample mirrors.
type ArchiveSampleRepository interface {
	Upsert(ctx context.Context, sample *models.ArchiveSample) error
	Get(ctx context.Context, accession string) (*models.ArchiveSample, error)
	ListByStudy(ctx context.Context, studyAccession string) ([]*models.ArchiveSample, error)
}

type archiveSampleRepository struct {
	db *database.DB
}

// NewArchiveSampleRepository creates a new archive sample repository.
func NewArchiveSampleRepository(db *database.DB) ArchiveSampleRepository {
	return &archiveSampleRepository{db: db}
}

// Upsert inserts the mirror row or refreshes its metadata.
func (r *archiveSampleRepository) Upsert(ctx context.Context, sample *models.ArchiveSample) error {
	query := `
		INSERT INTO archive_samples (accession, study_accession, metadata, fetched_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (accession) DO UPDATE
		SET study_accession = EXCLUDED.study_accession,
		    metadata = EXCLUDED.metadata,
		    fetched_at = EXCLUDED.fetched_at`

	_, err := r.db.Exec(ctx, query, sample.Accession, sample.StudyAccession, sample.Metadata)
	if err != nil {
		return fmt.Errorf("failed to upsert archive sample: %w", err)
	}
	return nil
}

// Get retrieves an archive sample mirror by accession.
func (r *archiveSampleRepository) Get(ctx context.Context, accession string) (*models.ArchiveSample, error) {
	query := `
		SELECT accession, study_accession, metadata, fetched_at
		FROM archive_samples
		WHERE accession = $1`

	var sample models.ArchiveSample
	err := r.db.QueryRow(ctx, query, accession).Scan(
		&sample.Accession,
		&sample.StudyAccession,
		&sample.Metadata,
		&sample.FetchedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get archive sample: %w", err)
	}
	return &sample, nil
}

// ListByStudy retrieves all sample mirrors belonging to one archive study.
func (r *archiveSampleRepository) ListByStudy(ctx context.Context, studyAccession string) ([]*models.ArchiveSample, error) {
	query := `
		SELECT accession, study_accession, metadata, fetched_at
		FROM archive_samples
		WHERE study_accession = $1
		ORDER BY accession`

	rows, err := r.db.Query(ctx, query, studyAccession)
	if err != nil {
		return nil, fmt.Errorf("failed to list archive samples: %w", err)
	}
	defer rows.Close()

	var samples []*models.ArchiveSample
	for rows.Next() {
		var sample models.ArchiveSample
		if err := rows.Scan(&sample.Accession, &sample.StudyAccession, &sample.Metadata, &sample.FetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan archive sample: %w", err)
		}
		samples = append(samples, &sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate archive samples: %w", err)
	}
	return samples, nil
}

var _ ArchiveSampleRepository = (*archiveSampleRepository)(nil)
