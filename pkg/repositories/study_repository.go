package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/seqcat-bio/seqcat-engine/pkg/accession"
	"github.com/seqcat-bio/seqcat-engine/pkg/apperrors"
	"github.com/seqcat-bio/seqcat-engine/pkg/database"
	"github.com/seqcat-bio/seqcat-engine/pkg/models"
)

// Columns on studies that partial updates may touch. The accession
// column is generated and never updatable.
var studyColumns = map[string]bool{
	"title":           true,
	"accessions":      true,
	"is_private":      true,
	"is_suppressed":   true,
	"webin_submitter": true,
	"is_ready":        true,
}

// Visibility columns studies accept from the cascade.
var studyVisibilityColumns = map[string]bool{
	"is_private":      true,
	"is_suppressed":   true,
	"webin_submitter": true,
}

// StudyRepository defines data access for catalogue studies.
type StudyRepository interface {
	FindOverlapping(ctx context.Context, accs accession.Set) ([]*models.Study, error)
	Insert(ctx context.Context, study *models.Study) error
	UpdateFields(ctx context.Context, id int64, fields models.FieldMap) error
	StoreAccessions(ctx context.Context, id int64, accs accession.Set) error
	GetByAccession(ctx context.Context, acc string) (*models.Study, error)
	ApplyVisibility(ctx context.Context, archiveStudyAccession string, fields models.FieldMap) (int64, error)
}

type studyRepository struct {
	db *database.DB
}

// NewStudyRepository creates a new study repository.
func NewStudyRepository(db *database.DB) StudyRepository {
	return &studyRepository{db: db}
}

const studySelect = `
	SELECT id, accession, title, accessions, archive_study_accession,
	       is_private, is_suppressed, webin_submitter, is_ready,
	       created_at, updated_at
	FROM studies`

func scanStudy(row pgx.Row) (*models.Study, error) {
	var s models.Study
	err := row.Scan(
		&s.ID,
		&s.Accession,
		&s.Title,
		&s.Accessions,
		&s.ArchiveStudyAccession,
		&s.IsPrivate,
		&s.IsSuppressed,
		&s.WebinSubmitter,
		&s.IsReady,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindOverlapping retrieves all studies whose accession set shares at
// least one accession with accs, ordered by id for determinism.
func (r *studyRepository) FindOverlapping(ctx context.Context, accs accession.Set) ([]*models.Study, error) {
	if len(accs) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx, studySelect+` WHERE accessions ?| $1 ORDER BY id`, []string(accs))
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping studies: %w", err)
	}
	defer rows.Close()

	var studies []*models.Study
	for rows.Next() {
		s, err := scanStudy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan study: %w", err)
		}
		studies = append(studies, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate studies: %w", err)
	}
	return studies, nil
}

// Insert creates a new study and fills the generated id, accession and
// timestamps back into the struct.
func (r *studyRepository) Insert(ctx context.Context, study *models.Study) error {
	query := `
		INSERT INTO studies (title, accessions, archive_study_accession, is_private, is_suppressed, webin_submitter, is_ready)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, accession, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		study.Title,
		study.Accessions,
		study.ArchiveStudyAccession,
		study.IsPrivate,
		study.IsSuppressed,
		study.WebinSubmitter,
		study.IsReady,
	).Scan(&study.ID, &study.Accession, &study.CreatedAt, &study.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert study: %w", err)
	}
	return nil
}

// UpdateFields applies a partial update to one study.
func (r *studyRepository) UpdateFields(ctx context.Context, id int64, fields models.FieldMap) error {
	setClause, args, err := buildSetClause(fields, studyColumns, 1)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("UPDATE studies SET %s, updated_at = now() WHERE id = $1", setClause)
	result, err := r.db.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to update study: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// StoreAccessions replaces the study's accession set.
func (r *studyRepository) StoreAccessions(ctx context.Context, id int64, accs accession.Set) error {
	return r.UpdateFields(ctx, id, models.FieldMap{"accessions": models.AccessionList(accs)})
}

// GetByAccession retrieves a study addressed by any accession in its
// set, including the locally assigned one.
func (r *studyRepository) GetByAccession(ctx context.Context, acc string) (*models.Study, error) {
	study, err := scanStudy(r.db.QueryRow(ctx,
		studySelect+` WHERE accession = $1 OR accessions ? $1`, acc))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get study: %w", err)
	}
	return study, nil
}

// ApplyVisibility pushes visibility fields onto every study derived from
// the given archive study, touching only rows where a value would
// actually change. Returns the number of rows updated.
func (r *studyRepository) ApplyVisibility(ctx context.Context, archiveStudyAccession string, fields models.FieldMap) (int64, error) {
	setClause, args, err := buildSetClause(fields, studyVisibilityColumns, 1)
	if err != nil {
		return 0, err
	}
	guard := buildDistinctGuard(fields, 1)

	query := fmt.Sprintf(
		"UPDATE studies SET %s, updated_at = now() WHERE archive_study_accession = $1 AND %s",
		setClause, guard)
	result, err := r.db.Exec(ctx, query, append([]any{archiveStudyAccession}, args...)...)
	if err != nil {
		return 0, fmt.Errorf("failed to cascade visibility to studies: %w", err)
	}
	return result.RowsAffected(), nil
}

var _ StudyRepository = (*studyRepository)(nil)
