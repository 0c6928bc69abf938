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

var runColumns = map[string]bool{
	"accessions":      true,
	"study_id":        true,
	"sample_id":       true,
	"is_private":      true,
	"is_suppressed":   true,
	"webin_submitter": true,
	"experiment_type": true,
	"metadata":        true,
}

var runVisibilityColumns = map[string]bool{
	"is_private":      true,
	"is_suppressed":   true,
	"webin_submitter": true,
}

// RunRepository defines data access for catalogue runs.
type RunRepository interface {
	FindOverlapping(ctx context.Context, accs accession.Set) ([]*models.Run, error)
	Insert(ctx context.Context, run *models.Run) error
	UpdateFields(ctx context.Context, id int64, fields models.FieldMap) error
	StoreAccessions(ctx context.Context, id int64, accs accession.Set) error
	ListByStudy(ctx context.Context, studyID int64) ([]*models.Run, error)
	ApplyVisibility(ctx context.Context, archiveStudyAccession string, fields models.FieldMap) (int64, error)
}

type runRepository struct {
	db *database.DB
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *database.DB) RunRepository {
	return &runRepository{db: db}
}

const runSelect = `
	SELECT id, accession, accessions, study_id, sample_id,
	       is_private, is_suppressed, webin_submitter, experiment_type, metadata,
	       created_at, updated_at
	FROM runs`

func scanRun(row pgx.Row) (*models.Run, error) {
	var run models.Run
	err := row.Scan(
		&run.ID,
		&run.Accession,
		&run.Accessions,
		&run.StudyID,
		&run.SampleID,
		&run.IsPrivate,
		&run.IsSuppressed,
		&run.WebinSubmitter,
		&run.ExperimentType,
		&run.Metadata,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// FindOverlapping retrieves all runs whose accession set shares at least
// one accession with accs.
func (r *runRepository) FindOverlapping(ctx context.Context, accs accession.Set) ([]*models.Run, error) {
	if len(accs) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx, runSelect+` WHERE accessions ?| $1 ORDER BY id`, []string(accs))
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// Insert creates a new run and fills the generated id, accession and
// timestamps back into the struct.
func (r *runRepository) Insert(ctx context.Context, run *models.Run) error {
	query := `
		INSERT INTO runs (accessions, study_id, sample_id, is_private, is_suppressed, webin_submitter, experiment_type, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, accession, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		run.Accessions,
		run.StudyID,
		run.SampleID,
		run.IsPrivate,
		run.IsSuppressed,
		run.WebinSubmitter,
		run.ExperimentType,
		run.Metadata,
	).Scan(&run.ID, &run.Accession, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// UpdateFields applies a partial update to one run.
func (r *runRepository) UpdateFields(ctx context.Context, id int64, fields models.FieldMap) error {
	setClause, args, err := buildSetClause(fields, runColumns, 1)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("UPDATE runs SET %s, updated_at = now() WHERE id = $1", setClause)
	result, err := r.db.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// StoreAccessions replaces the run's accession set.
func (r *runRepository) StoreAccessions(ctx context.Context, id int64, accs accession.Set) error {
	return r.UpdateFields(ctx, id, models.FieldMap{"accessions": models.AccessionList(accs)})
}

// ListByStudy retrieves all runs belonging to one catalogue study.
func (r *runRepository) ListByStudy(ctx context.Context, studyID int64) ([]*models.Run, error) {
	rows, err := r.db.Query(ctx, runSelect+` WHERE study_id = $1 ORDER BY id`, studyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// ApplyVisibility pushes visibility fields onto every run under the
// given archive study. Returns the number of rows updated.
func (r *runRepository) ApplyVisibility(ctx context.Context, archiveStudyAccession string, fields models.FieldMap) (int64, error) {
	setClause, args, err := buildSetClause(fields, runVisibilityColumns, 1)
	if err != nil {
		return 0, err
	}
	guard := buildDistinctGuard(fields, 1)

	query := fmt.Sprintf(`
		UPDATE runs SET %s, updated_at = now()
		WHERE study_id IN (SELECT id FROM studies WHERE archive_study_accession = $1)
		AND %s`, setClause, guard)
	result, err := r.db.Exec(ctx, query, append([]any{archiveStudyAccession}, args...)...)
	if err != nil {
		return 0, fmt.Errorf("failed to cascade visibility to runs: %w", err)
	}
	return result.RowsAffected(), nil
}

var _ RunRepository = (*runRepository)(nil)
