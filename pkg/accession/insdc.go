package accession

import (
	"regexp"
	"strings"
)

// INSDC centre prefixes: E (EBI), D (DDBJ), S (NCBI/SRA).
const insdcCentrePrefixes = "EDS"

var (
	// StudyAccessionPattern matches secondary study accessions such as ERP104174.
	StudyAccessionPattern = regexp.MustCompile(`([` + insdcCentrePrefixes + `]RP[0-9]{6,})`)

	// ProjectAccessionPattern matches primary project accessions: PRJNA, PRJEB, PRJDB.
	ProjectAccessionPattern = regexp.MustCompile(`(PRJ[NED][AB][0-9]+)`)

	// AssemblyAccessionPattern matches assembly analysis accessions such as ERZ123456.
	AssemblyAccessionPattern = regexp.MustCompile(`([` + insdcCentrePrefixes + `]RZ[0-9]{6,})`)
)

// ExtractAll splits one or more archive API accession values into a Set.
// The portal joins multi-valued accessions with semicolons ("ERP1;ERP2"),
// so each input is split on ";" and blanks are dropped.
func ExtractAll(values ...string) Set {
	var all []string
	for _, v := range values {
		for _, a := range strings.Split(v, ";") {
			if a != "" {
				all = append(all, a)
			}
		}
	}
	return NewSet(all...)
}

// FromStudyTitle extracts a study or project accession embedded in a study
// title. Returns "" unless exactly one accession is found, since a title
// mentioning several accessions is ambiguous.
func FromStudyTitle(title string) string {
	matches := ProjectAccessionPattern.FindAllString(title, -1)
	matches = append(matches, StudyAccessionPattern.FindAllString(title, -1)...)
	if len(matches) == 1 {
		return matches[0]
	}
	return ""
}
