// Package repositories provides PostgreSQL data access for archive
// mirrors and catalogue records. Each repository is an interface with a
// pgx-backed implementation; catalogue repositories additionally expose
// the overlap lookup and partial-update operations entity resolution is
// built on.
package repositories

import (
	"fmt"
	"sort"
	"strings"

	"github.com/seqcat-bio/seqcat-engine/pkg/apperrors"
	"github.com/seqcat-bio/seqcat-engine/pkg/models"
)

// buildSetClause renders a SET clause for a partial update, validating
// every key against the allowed column set. Placeholders start at
// $argOffset+1 and the returned args line up with them. Columns are
// sorted so generated SQL is deterministic.
func buildSetClause(fields models.FieldMap, allowed map[string]bool, argOffset int) (string, []any, error) {
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("%w: empty field map", apperrors.ErrInvalidQuery)
	}

	columns := make([]string, 0, len(fields))
	for col := range fields {
		if !allowed[col] {
			return "", nil, fmt.Errorf("%w: column %q not updatable", apperrors.ErrInvalidQuery, col)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	parts := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for i, col := range columns {
		parts = append(parts, fmt.Sprintf("%s = $%d", col, argOffset+i+1))
		args = append(args, fields[col])
	}
	return strings.Join(parts, ", "), args, nil
}

// buildDistinctGuard renders a WHERE fragment that is true only when at
// least one of the columns would actually change, so no-op updates touch
// zero rows. Placeholder numbering mirrors buildSetClause for the same
// field map.
func buildDistinctGuard(fields models.FieldMap, argOffset int) string {
	columns := make([]string, 0, len(fields))
	for col := range fields {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	parts := make([]string, 0, len(columns))
	for i, col := range columns {
		parts = append(parts, fmt.Sprintf("%s IS DISTINCT FROM $%d", col, argOffset+i+1))
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}
