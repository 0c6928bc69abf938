// Package models contains domain types for seqcat-engine: the archive
// mirror records and the locally-owned catalogue records derived from
// them.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/seqcat-bio/seqcat-engine/pkg/accession"
)

// JSONBMap is a map type that handles PostgreSQL JSONB serialization.
type JSONBMap map[string]any

// Value implements driver.Valuer for database serialization.
func (j JSONBMap) Value() (driver.Value, error) {
	if j == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner for database deserialization.
func (j *JSONBMap) Scan(value any) error {
	if value == nil {
		*j = make(map[string]any)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into JSONBMap", value)
	}
	return json.Unmarshal(bytes, j)
}

// AccessionList persists an accession.Set as a JSONB array of strings.
// The stored order carries no meaning beyond the first/primary accessor.
type AccessionList accession.Set

// Value implements driver.Valuer for database serialization.
func (a AccessionList) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(a))
}

// Scan implements sql.Scanner for database deserialization.
func (a *AccessionList) Scan(value any) error {
	if value == nil {
		*a = AccessionList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into AccessionList", value)
	}
	var raw []string
	if err := json.Unmarshal(bytes, &raw); err != nil {
		return err
	}
	*a = AccessionList(accession.NewSet(raw...))
	return nil
}

// Set returns the list as an accession.Set.
func (a AccessionList) Set() accession.Set {
	return accession.Set(a)
}
