package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/seqcat-bio/seqcat-engine/pkg/accession"
	"github.com/seqcat-bio/seqcat-engine/pkg/apperrors"
	"github.com/seqcat-bio/seqcat-engine/pkg/database"
	"github.com/seqcat-bio/seqcat-engine/pkg/models"
)

// The assemblies table has no webin_submitter column: the cascade layer
// is expected to drop that field before reaching this repository.
var assemblyColumns = map[string]bool{
	"accessions":    true,
	"study_id":      true,
	"sample_id":     true,
	"run_id":        true,
	"is_private":    true,
	"is_suppressed": true,
	"metadata":      true,
}

var assemblyVisibilityColumns = map[string]bool{
	"is_private":    true,
	"is_suppressed": true,
}

// AssemblyRepository defines data access for catalogue assemblies.
type AssemblyRepository interface {
	FindOverlapping(ctx context.Context, accs accession.Set) ([]*models.Assembly, error)
	Insert(ctx context.Context, assembly *models.Assembly) error
	UpdateFields(ctx context.Context, id int64, fields models.FieldMap) error
	StoreAccessions(ctx context.Context, id int64, accs accession.Set) error
	ApplyVisibility(ctx context.Context, archiveStudyAccession string, fields models.FieldMap) (int64, error)
}

type assemblyRepository struct {
	db *database.DB
}

// NewAssemblyRepository creates a new assembly repository.
func NewAssemblyRepository(db *database.DB) AssemblyRepository {
	return &assemblyRepository{db: db}
}

const assemblySelect = `
	SELECT id, accession, accessions, study_id, sample_id, run_id,
	       is_private, is_suppressed, metadata,
	       created_at, updated_at
	FROM assemblies`

func scanAssembly(row pgx.Row) (*models.Assembly, error) {
	var a models.Assembly
	var runID sql.NullInt64
	err := row.Scan(
		&a.ID,
		&a.Accession,
		&a.Accessions,
		&a.StudyID,
		&a.SampleID,
		&runID,
		&a.IsPrivate,
		&a.IsSuppressed,
		&a.Metadata,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.RunID = runID.Int64
	return &a, nil
}

// FindOverlapping retrieves all assemblies whose accession set shares at
// least one accession with accs.
func (r *assemblyRepository) FindOverlapping(ctx context.Context, accs accession.Set) ([]*models.Assembly, error) {
	if len(accs) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx, assemblySelect+` WHERE accessions ?| $1 ORDER BY id`, []string(accs))
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping assemblies: %w", err)
	}
	defer rows.Close()

	var assemblies []*models.Assembly
	for rows.Next() {
		a, err := scanAssembly(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assembly: %w", err)
		}
		assemblies = append(assemblies, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assemblies: %w", err)
	}
	return assemblies, nil
}

// Insert creates a new assembly and fills the generated id, accession
// and timestamps back into the struct.
func (r *assemblyRepository) Insert(ctx context.Context, assembly *models.Assembly) error {
	var runID sql.NullInt64
	if assembly.RunID != 0 {
		runID = sql.NullInt64{Int64: assembly.RunID, Valid: true}
	}

	query := `
		INSERT INTO assemblies (accessions, study_id, sample_id, run_id, is_private, is_suppressed, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, accession, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		assembly.Accessions,
		assembly.StudyID,
		assembly.SampleID,
		runID,
		assembly.IsPrivate,
		assembly.IsSuppressed,
		assembly.Metadata,
	).Scan(&assembly.ID, &assembly.Accession, &assembly.CreatedAt, &assembly.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert assembly: %w", err)
	}
	return nil
}

// UpdateFields applies a partial update to one assembly.
func (r *assemblyRepository) UpdateFields(ctx context.Context, id int64, fields models.FieldMap) error {
	setClause, args, err := buildSetClause(fields, assemblyColumns, 1)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("UPDATE assemblies SET %s, updated_at = now() WHERE id = $1", setClause)
	result, err := r.db.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to update assembly: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// StoreAccessions replaces the assembly's accession set.
func (r *assemblyRepository) StoreAccessions(ctx context.Context, id int64, accs accession.Set) error {
	return r.UpdateFields(ctx, id, models.FieldMap{"accessions": models.AccessionList(accs)})
}

// ApplyVisibility pushes visibility fields onto every assembly under the
// given archive study. Returns the number of rows updated.
func (r *assemblyRepository) ApplyVisibility(ctx context.Context, archiveStudyAccession string, fields models.FieldMap) (int64, error) {
	setClause, args, err := buildSetClause(fields, assemblyVisibilityColumns, 1)
	if err != nil {
		return 0, err
	}
	guard := buildDistinctGuard(fields, 1)

	query := fmt.Sprintf(`
		UPDATE assemblies SET %s, updated_at = now()
		WHERE study_id IN (SELECT id FROM studies WHERE archive_study_accession = $1)
		AND %s`, setClause, guard)
	result, err := r.db.Exec(ctx, query, append([]any{archiveStudyAccession}, args...)...)
	if err != nil {
		return 0, fmt.Errorf("failed to cascade visibility to assemblies: %w", err)
	}
	return result.RowsAffected(), nil
}

var _ AssemblyRepository = (*assemblyRepository)(nil)
