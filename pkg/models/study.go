package models

import (
	"fmt"
	"time"

	"github.com/seqcat-bio/seqcat-engine/pkg/accession"
)

// Visibility holds the flags a derived record inherits from its archive
// study. Outside the short window between an archive update and cascade
// completion these must equal the archive study's values.
type Visibility struct {
	IsPrivate      bool   `json:"is_private"`
	IsSuppressed   bool   `json:"is_suppressed"`
	WebinSubmitter string `json:"webin_submitter,omitempty"`
}

// StudyAccessionPrefix prefixes locally assigned catalogue study accessions.
const StudyAccessionPrefix = "SCS"

// Study is a locally-owned catalogue study derived from an ArchiveStudy.
// Its accession set can be wider than the archive study's, since one
// catalogue study may be addressed by both a project and a secondary
// study accession.
type Study struct {
	ID        int64  `json:"id"`
	Accession string `json:"accession"`
	Title     string `json:"title"`

	Accessions            AccessionList `json:"accessions"`
	ArchiveStudyAccession string        `json:"archive_study_accession"`

	Visibility

	// IsReady gates whether the study appears on the public catalogue or
	// only in automation.
	IsReady   bool      `json:"is_ready"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MakeStudyAccession renders a catalogue study accession for a row id.
func MakeStudyAccession(id int64) string {
	return fmt.Sprintf("%s%08d", StudyAccessionPrefix, id)
}

// GetAccessions implements resolution matching for studies.
func (s *Study) GetAccessions() accession.Set {
	return s.Accessions.Set()
}

// SetAccessions replaces the study's accession set.
func (s *Study) SetAccessions(accs accession.Set) {
	s.Accessions = AccessionList(accs)
}

// FirstAccession returns the display accession: the first in the set.
func (s *Study) FirstAccession() string {
	return s.Accessions.Set().First()
}

// GetID returns the row id, zero before insert.
func (s *Study) GetID() int64 { return s.ID }
