package models

// FieldMap is a partial update: column name to new value. Repositories
// validate keys against their allowed column set before building SQL.
type FieldMap map[string]any
