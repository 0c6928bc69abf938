package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/seqcat-bio/seqcat-engine/pkg/accession"
	"github.com/seqcat-bio/seqcat-engine/pkg/apperrors"
	"github.com/seqcat-bio/seqcat-engine/pkg/database"
	"github.com/seqcat-bio/seqcat-engine/pkg/models"
)

var sampleColumns = map[string]bool{
	"accessions":      true,
	"study_id":        true,
	"is_private":      true,
	"is_suppressed":   true,
	"webin_submitter": true,
	"metadata":        true,
}

var sampleVisibilityColumns = map[string]bool{
	"is_private":      true,
	"is_suppressed":   true,
	"webin_submitter": true,
}

// SampleRepository defines data access for catalogue samples.
type SampleRepository interface {
	FindOverlapping(ctx context.Context, accs accession.Set) ([]*models.Sample, error)
	Insert(ctx context.Context, sample *models.Sample) error
	UpdateFields(ctx context.Context, id int64, fields models.FieldMap) error
	StoreAccessions(ctx context.Context, id int64, accs accession.Set) error
	ApplyVisibility(ctx context.Context, archiveStudyAccession string, fields models.FieldMap) (int64, error)
}

type sampleRepository struct {
	db *database.DB
}

// NewSampleRepository creates a new sample repository.
func NewSampleRepository(db *database.DB) SampleRepository {
	return &sampleRepository{db: db}
}

const sampleSelect = `
	SELECT id, accession, accessions, study_id,
	       is_private, is_suppressed, webin_submitter, metadata,
	       created_at, updated_at
	FROM samples`

func scanSample(row pgx.Row) (*models.Sample, error) {
	var s models.Sample
	err := row.Scan(
		&s.ID,
		&s.Accession,
		&s.Accessions,
		&s.StudyID,
		&s.IsPrivate,
		&s.IsSuppressed,
		&s.WebinSubmitter,
		&s.Metadata,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindOverlapping retrieves all samples whose accession set shares at
// least one accession with accs.
func (r *sampleRepository) FindOverlapping(ctx context.Context, accs accession.Set) ([]*models.Sample, error) {
	if len(accs) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx, sampleSelect+` WHERE accessions ?| $1 ORDER BY id`, []string(accs))
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping samples: %w", err)
	}
	defer rows.Close()

	var samples []*models.Sample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate samples: %w", err)
	}
	return samples, nil
}

// Insert creates a new sample and fills the generated id, accession and
// timestamps back into the struct.
func (r *sampleRepository) Insert(ctx context.Context, sample *models.Sample) error {
	query := `
		INSERT INTO samples (accessions, study_id, is_private, is_suppressed, webin_submitter, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, accession, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		sample.Accessions,
		sample.StudyID,
		sample.IsPrivate,
		sample.IsSuppressed,
		sample.WebinSubmitter,
		sample.Metadata,
	).Scan(&sample.ID, &sample.Accession, &sample.CreatedAt, &sample.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert sample: %w", err)
	}
	return nil
}

// UpdateFields applies a partial update to one sample.
func (r *sampleRepository) UpdateFields(ctx context.Context, id int64, fields models.FieldMap) error {
	setClause, args, err := buildSetClause(fields, sampleColumns, 1)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("UPDATE samples SET %s, updated_at = now() WHERE id = $1", setClause)
	result, err := r.db.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to update sample: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// StoreAccessions replaces the sample's accession set.
func (r *sampleRepository) StoreAccessions(ctx context.Context, id int64, accs accession.Set) error {
	return r.UpdateFields(ctx, id, models.FieldMap{"accessions": models.AccessionList(accs)})
}

// ApplyVisibility pushes visibility fields onto every sample under the
// given archive study. Returns the number of rows updated.
func (r *sampleRepository) ApplyVisibility(ctx context.Context, archiveStudyAccession string, fields models.FieldMap) (int64, error) {
	setClause, args, err := buildSetClause(fields, sampleVisibilityColumns, 1)
	if err != nil {
		return 0, err
	}
	guard := buildDistinctGuard(fields, 1)

	query := fmt.Sprintf(`
		UPDATE samples SET %s, updated_at = now()
		WHERE study_id IN (SELECT id FROM studies WHERE archive_study_accession = $1)
		AND %s`, setClause, guard)
	result, err := r.db.Exec(ctx, query, append([]any{archiveStudyAccession}, args...)...)
	if err != nil {
		return 0, fmt.Errorf("failed to cascade visibility to samples: %w", err)
	}
	return result.RowsAffected(), nil
}

var _ SampleRepository = (*sampleRepository)(nil)
