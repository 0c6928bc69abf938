package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/seqcat-bio/seqcat-engine/pkg/models"
	"github.com/seqcat-bio/seqcat-engine/pkg/repositories"
)

// CascadeTarget is one catalogue table the visibility cascade reaches.
// Fields declares which visibility columns the table carries; anything
// else is dropped for that target with a warning.
type CascadeTarget struct {
	Name   string
	Fields map[string]bool
	Apply  func(ctx context.Context, archiveStudyAccession string, fields models.FieldMap) (int64, error)
}

// CascadeResult reports rows touched per target.
type CascadeResult map[string]int64

// Total sums rows touched across all targets.
func (r CascadeResult) Total() int64 {
	var total int64
	for _, n := range r {
		total += n
	}
	return total
}

// VisibilityCascade pushes an archive study's visibility flags down to
// every derived catalogue record. Targets are registered once at
// construction; rows whose values already match are left untouched.
type VisibilityCascade struct {
	targets []CascadeTarget
	logger  *zap.Logger
}

// NewVisibilityCascade creates a cascade over the four catalogue tables.
func NewVisibilityCascade(
	studies repositories.StudyRepository,
	samples repositories.SampleRepository,
	runs repositories.RunRepository,
	assemblies repositories.AssemblyRepository,
	logger *zap.Logger,
) *VisibilityCascade {
	allThree := map[string]bool{"is_private": true, "is_suppressed": true, "webin_submitter": true}
	return &VisibilityCascade{
		logger: logger.Named("visibility-cascade"),
		targets: []CascadeTarget{
			{Name: "studies", Fields: allThree, Apply: studies.ApplyVisibility},
			{Name: "samples", Fields: allThree, Apply: samples.ApplyVisibility},
			{Name: "runs", Fields: allThree, Apply: runs.ApplyVisibility},
			// Assemblies track no submitter account of their own.
			{
				Name:   "assemblies",
				Fields: map[string]bool{"is_private": true, "is_suppressed": true},
				Apply:  assemblies.ApplyVisibility,
			},
		},
	}
}

// Apply pushes the archive study's current visibility onto all derived
// records and returns per-target row counts.
func (c *VisibilityCascade) Apply(ctx context.Context, study *models.ArchiveStudy) (CascadeResult, error) {
	fields := models.FieldMap{
		"is_private":    study.IsPrivate,
		"is_suppressed": study.IsSuppressed,
	}
	// An empty submitter means unknown; never overwrite a known one.
	if study.WebinSubmitter != "" {
		fields["webin_submitter"] = study.WebinSubmitter
	}

	result := make(CascadeResult, len(c.targets))
	for _, target := range c.targets {
		applicable := make(models.FieldMap, len(fields))
		for col, val := range fields {
			if !target.Fields[col] {
				c.logger.Warn("Dropping visibility field undeclared by cascade target",
					zap.String("target", target.Name),
					zap.String("field", col))
				continue
			}
			applicable[col] = val
		}
		if len(applicable) == 0 {
			continue
		}

		rows, err := target.Apply(ctx, study.Accession, applicable)
		if err != nil {
			return nil, fmt.Errorf("visibility cascade failed on %s: %w", target.Name, err)
		}
		result[target.Name] = rows
	}

	c.logger.Info("Visibility cascade applied",
		zap.String("archive_study", study.Accession),
		zap.Int64("rows_touched", result.Total()))
	return result, nil
}
