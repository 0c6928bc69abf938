package models

import (
	"time"

	"github.com/seqcat-bio/seqcat-engine/pkg/accession"
)

// AssemblyAccessionPrefix prefixes locally assigned catalogue assembly
// accessions.
const AssemblyAccessionPrefix = "SCG"

// Assembly is a locally-owned catalogue assembly derived from an archive
// analysis of type SEQUENCE_ASSEMBLY. Assemblies do not track a submitter
// account of their own; ownership checks go through the parent study.
type Assembly struct {
	ID        int64  `json:"id"`
	Accession string `json:"accession"`

	Accessions AccessionList `json:"accessions"`
	StudyID    int64         `json:"study_id"`
	SampleID   int64         `json:"sample_id"`
	// RunID is zero for assemblies whose source run is unknown.
	RunID int64 `json:"run_id,omitempty"`

	IsPrivate    bool `json:"is_private"`
	IsSuppressed bool `json:"is_suppressed"`

	Metadata  JSONBMap  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetAccessions implements resolution matching for assemblies.
func (a *Assembly) GetAccessions() accession.Set {
	return a.Accessions.Set()
}

// SetAccessions replaces the assembly's accession set.
func (a *Assembly) SetAccessions(accs accession.Set) {
	a.Accessions = AccessionList(accs)
}

// GetID returns the row id, zero before insert.
func (a *Assembly) GetID() int64 { return a.ID }
