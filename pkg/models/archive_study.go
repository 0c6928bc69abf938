package models

import (
	"time"

	"github.com/seqcat-bio/seqcat-engine/pkg/accession"
)

// ArchiveStudy is the local read-mostly mirror of one archive study: the
// source of truth for visibility. Content fields are written only from
// portal fetch results; the visibility fields may additionally be set by
// suppression decisions during a sync pass.
type ArchiveStudy struct {
	// Accession is the primary accession and the mirror's primary key.
	Accession            string        `json:"accession"`
	Title                string        `json:"title"`
	AdditionalAccessions AccessionList `json:"additional_accessions"`

	IsPrivate    bool `json:"is_private"`
	IsSuppressed bool `json:"is_suppressed"`
	// WebinSubmitter is the owning submitter account ("Webin-..."), empty
	// when unknown.
	WebinSubmitter string `json:"webin_submitter"`

	// FetchedAt is the last-synced marker: bumped only once a sync pass,
	// including the visibility cascade, has completed.
	FetchedAt time.Time `json:"fetched_at"`
}

// AllAccessions returns the primary accession followed by the additional
// accessions, as one set.
func (s *ArchiveStudy) AllAccessions() accession.Set {
	return accession.NewSet(s.Accession).Union(s.AdditionalAccessions.Set())
}

// ArchiveSample is the local mirror of one archive sample record.
type ArchiveSample struct {
	Accession      string    `json:"accession"`
	StudyAccession string    `json:"study_accession"`
	Metadata       JSONBMap  `json:"metadata"`
	FetchedAt      time.Time `json:"fetched_at"`
}
