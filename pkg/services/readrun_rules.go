package services

import (
	"path"
	"sort"
	"strings"

	"github.com/seqcat-bio/seqcat-engine/pkg/models"
)

// Skip reasons recorded when a read run is excluded from import.
const (
	SkipReasonNoFastq         = "No fastq files"
	SkipReasonIncorrectLayout = "Incorrect library_layout"
	SkipReasonLibrarySource   = "Excluded library_source"
	SkipReasonNoSample        = "No sample accession"
)

// FastqCheck is the outcome of validating a run's FASTQ file list
// against its declared library layout.
type FastqCheck struct {
	Files      []string
	SkipReason string
}

// OK reports whether the run passed validation.
func (c FastqCheck) OK() bool {
	return c.SkipReason == ""
}

func isForwardRead(file string) bool {
	return strings.Contains(path.Base(file), "_1.f")
}

func isReverseRead(file string) bool {
	return strings.Contains(path.Base(file), "_2.f")
}

// CheckReadsFastq validates the reported FASTQ files against the
// declared library layout and returns the files to import, in
// forward-then-reverse order for paired runs.
//
// Single-file runs must be SINGLE layout and must not be a lone reverse
// read. Two-file runs must be PAIRED layout with a distinguishable
// forward and reverse read. Runs reporting more than two files keep
// only the forward/reverse pair; extra files such as unpaired-read
// dumps are dropped. The portal does not guarantee listing order, so
// the files are sorted before any check.
func CheckReadsFastq(files []string, libraryLayout string) FastqCheck {
	layout := strings.ToUpper(strings.TrimSpace(libraryLayout))

	files = append([]string(nil), files...)
	sort.Strings(files)

	switch len(files) {
	case 0:
		return FastqCheck{SkipReason: SkipReasonNoFastq}

	case 1:
		if layout == models.LibraryLayoutPaired {
			return FastqCheck{SkipReason: SkipReasonIncorrectLayout}
		}
		if isReverseRead(files[0]) {
			return FastqCheck{SkipReason: SkipReasonIncorrectLayout}
		}
		return FastqCheck{Files: files}

	case 2:
		if layout == models.LibraryLayoutSingle {
			return FastqCheck{SkipReason: SkipReasonIncorrectLayout}
		}
		forward, reverse, ok := splitPair(files)
		if !ok {
			return FastqCheck{SkipReason: SkipReasonIncorrectLayout}
		}
		return FastqCheck{Files: []string{forward, reverse}}

	default:
		forward, reverse, ok := splitPair(files)
		if !ok {
			return FastqCheck{SkipReason: SkipReasonIncorrectLayout}
		}
		return FastqCheck{Files: []string{forward, reverse}}
	}
}

// splitPair picks exactly one forward and one reverse read out of files.
func splitPair(files []string) (forward, reverse string, ok bool) {
	var forwards, reverses []string
	for _, f := range files {
		switch {
		case isForwardRead(f):
			forwards = append(forwards, f)
		case isReverseRead(f):
			reverses = append(reverses, f)
		}
	}
	if len(forwards) != 1 || len(reverses) != 1 {
		return "", "", false
	}
	return forwards[0], reverses[0], true
}

// Library sources admitted without further checks.
var allowedLibrarySources = map[string]bool{
	"METAGENOMIC":        true,
	"METATRANSCRIPTOMIC": true,
}

// AdmitLibrarySource reports whether a run's library source admits it
// for import. Runs from other sources are still admitted when the
// sample's scientific name marks it as a metagenome.
func AdmitLibrarySource(librarySource, scientificName string) bool {
	if allowedLibrarySources[strings.ToUpper(strings.TrimSpace(librarySource))] {
		return true
	}
	return strings.Contains(strings.ToLower(scientificName), "metagenome")
}

// ValidWebinAccount reports whether s looks like a submitter account
// identifier.
func ValidWebinAccount(s string) bool {
	return strings.HasPrefix(s, "Webin-")
}
