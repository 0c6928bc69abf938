package models

import (
	"time"

	"github.com/seqcat-bio/seqcat-engine/pkg/accession"
)

// SampleAccessionPrefix prefixes locally assigned catalogue sample accessions.
const SampleAccessionPrefix = "SCA"

// Sample is a locally-owned catalogue sample. Accessions typically hold
// both the biosample and the secondary sample accession of the archive
// record it mirrors.
type Sample struct {
	ID        int64  `json:"id"`
	Accession string `json:"accession"`

	Accessions AccessionList `json:"accessions"`
	StudyID    int64         `json:"study_id"`

	Visibility

	Metadata  JSONBMap  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetAccessions implements resolution matching for samples.
func (s *Sample) GetAccessions() accession.Set {
	return s.Accessions.Set()
}

// SetAccessions replaces the sample's accession set.
func (s *Sample) SetAccessions(accs accession.Set) {
	s.Accessions = AccessionList(accs)
}

// GetID returns the row id, zero before insert.
func (s *Sample) GetID() int64 { return s.ID }
