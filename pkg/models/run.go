package models

import (
	"strings"
	"time"

	"github.com/seqcat-bio/seqcat-engine/pkg/accession"
)

// ExperimentType classifies a run by what was sequenced.
type ExperimentType string

const (
	ExperimentTypeMetagenomic        ExperimentType = "metagenomic"
	ExperimentTypeMetatranscriptomic ExperimentType = "metatranscriptomic"
	ExperimentTypeAmplicon           ExperimentType = "amplicon"
	ExperimentTypeAssembly           ExperimentType = "assembly"
	ExperimentTypeHybridAssembly     ExperimentType = "hybrid_assembly"
	ExperimentTypeLongReadAssembly   ExperimentType = "long_read_assembly"
	ExperimentTypeUnknown            ExperimentType = "unknown"
)

// Keys used in run and assembly metadata maps. Portal field names are
// kept verbatim so metadata round-trips without renaming.
const (
	MetadataKeyFastqFTPs          = "fastq_ftps"
	MetadataKeyLibraryLayout      = "library_layout"
	MetadataKeyLibraryStrategy    = "library_strategy"
	MetadataKeyLibrarySource      = "library_source"
	MetadataKeyInstrumentModel    = "instrument_model"
	MetadataKeyInstrumentPlatform = "instrument_platform"
	MetadataKeyScientificName     = "scientific_name"
	MetadataKeyHostScientificName = "host_scientific_name"
	MetadataKeyAssemblyFTPs       = "assembly_ftps"
)

// Library layouts as reported by the archive.
const (
	LibraryLayoutSingle = "SINGLE"
	LibraryLayoutPaired = "PAIRED"
)

// Run is a locally-owned catalogue run derived from an archive read run.
type Run struct {
	ID        int64  `json:"id"`
	Accession string `json:"accession"`

	Accessions AccessionList `json:"accessions"`
	StudyID    int64         `json:"study_id"`
	SampleID   int64         `json:"sample_id"`

	Visibility

	ExperimentType ExperimentType `json:"experiment_type"`
	Metadata       JSONBMap       `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// GetAccessions implements resolution matching for runs.
func (r *Run) GetAccessions() accession.Set {
	return r.Accessions.Set()
}

// SetAccessions replaces the run's accession set.
func (r *Run) SetAccessions(accs accession.Set) {
	r.Accessions = AccessionList(accs)
}

// DeriveExperimentType maps a library strategy and source, as reported
// by the archive, to our experiment type taxonomy.
func DeriveExperimentType(libraryStrategy, librarySource string) ExperimentType {
	strategy := strings.ToUpper(strings.TrimSpace(libraryStrategy))
	source := strings.ToUpper(strings.TrimSpace(librarySource))

	switch strategy {
	case "AMPLICON":
		return ExperimentTypeAmplicon
	case "RNA-SEQ":
		return ExperimentTypeMetatranscriptomic
	case "WGS", "WGA", "OTHER":
		if source == "METATRANSCRIPTOMIC" {
			return ExperimentTypeMetatranscriptomic
		}
		return ExperimentTypeMetagenomic
	}
	return ExperimentTypeUnknown
}

// GetID returns the row id, zero before insert.
func (r *Run) GetID() int64 { return r.ID }
