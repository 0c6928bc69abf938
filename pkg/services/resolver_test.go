package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seqcat-bio/seqcat-engine/pkg/accession"
	"github.com/seqcat-bio/seqcat-engine/pkg/apperrors"
	"github.com/seqcat-bio/seqcat-engine/pkg/models"
)

func TestResolverCreatesWhenNoOverlap(t *testing.T) {
	store := &memStudies{}
	resolver := NewResolver[*models.Study](store, zap.NewNop())

	study, created, err := resolver.Resolve(context.Background(), ResolveSpec[*models.Study]{
		Accessions: accession.NewSet("SRP115494", "PRJNA398089"),
		Create: &models.Study{
			Title:                 "Oral microbiome study",
			ArchiveStudyAccession: "SRP115494",
		},
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, study.ID)
	assert.Equal(t, "SCS00000001", study.Accession)
	assert.True(t, study.GetAccessions().IsSupersetOf(accession.NewSet("SRP115494", "PRJNA398089")))
}

func TestResolverMatchesOnPartialOverlap(t *testing.T) {
	store := &memStudies{}
	resolver := NewResolver[*models.Study](store, zap.NewNop())
	ctx := context.Background()

	first, created, err := resolver.Resolve(ctx, ResolveSpec[*models.Study]{
		Accessions: accession.NewSet("SRP115494"),
		Create:     &models.Study{ArchiveStudyAccession: "SRP115494"},
	})
	require.NoError(t, err)
	require.True(t, created)

	// A later sync addresses the same study by its project accession too.
	second, created, err := resolver.Resolve(ctx, ResolveSpec[*models.Study]{
		Accessions: accession.NewSet("PRJNA398089", "SRP115494"),
		Create:     &models.Study{ArchiveStudyAccession: "SRP115494"},
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.GetAccessions().IsSupersetOf(accession.NewSet("PRJNA398089", "SRP115494")))
	require.Len(t, store.recs, 1)
}

func TestResolverCreateReflectsUpdateFields(t *testing.T) {
	store := &memStudies{}
	resolver := NewResolver[*models.Study](store, zap.NewNop())

	// The update map diverges from the create template; the returned
	// record must carry the updated value, not the template's.
	study, created, err := resolver.Resolve(context.Background(), ResolveSpec[*models.Study]{
		Accessions: accession.NewSet("SRP115494"),
		Create:     &models.Study{ArchiveStudyAccession: "SRP115494"},
		Update:     models.FieldMap{"title": "Oral microbiome study"},
	})
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, "Oral microbiome study", study.Title)
	assert.Equal(t, "Oral microbiome study", store.recs[0].Title)
}

func TestResolverAppliesUpdateFields(t *testing.T) {
	store := &memStudies{}
	resolver := NewResolver[*models.Study](store, zap.NewNop())
	ctx := context.Background()

	_, _, err := resolver.Resolve(ctx, ResolveSpec[*models.Study]{
		Accessions: accession.NewSet("SRP115494"),
		Create:     &models.Study{Title: "old title", ArchiveStudyAccession: "SRP115494"},
	})
	require.NoError(t, err)

	study, created, err := resolver.Resolve(ctx, ResolveSpec[*models.Study]{
		Accessions: accession.NewSet("SRP115494"),
		Create:     &models.Study{ArchiveStudyAccession: "SRP115494"},
		Update:     models.FieldMap{"title": "new title"},
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "new title", study.Title)
	assert.Equal(t, "new title", store.recs[0].Title)
}

func TestResolverIdempotent(t *testing.T) {
	store := &memStudies{}
	resolver := NewResolver[*models.Study](store, zap.NewNop())
	ctx := context.Background()

	spec := ResolveSpec[*models.Study]{
		Accessions: accession.NewSet("SRP115494", "PRJNA398089"),
		Create:     &models.Study{ArchiveStudyAccession: "SRP115494"},
	}
	_, created, err := resolver.Resolve(ctx, spec)
	require.NoError(t, err)
	require.True(t, created)

	spec.Create = &models.Study{ArchiveStudyAccession: "SRP115494"}
	_, created, err = resolver.Resolve(ctx, spec)
	require.NoError(t, err)
	assert.False(t, created)
	require.Len(t, store.recs, 1)
	assert.Len(t, store.recs[0].Accessions, 2)
}

func TestResolverAmbiguousOverlap(t *testing.T) {
	store := &memStudies{}
	ctx := context.Background()
	require.NoError(t, store.Insert(ctx, &models.Study{Accessions: models.AccessionList{"SRP000001"}}))
	require.NoError(t, store.Insert(ctx, &models.Study{Accessions: models.AccessionList{"PRJNA000001"}}))

	resolver := NewResolver[*models.Study](store, zap.NewNop())
	_, _, err := resolver.Resolve(ctx, ResolveSpec[*models.Study]{
		Accessions: accession.NewSet("SRP000001", "PRJNA000001"),
		Create:     &models.Study{},
	})
	assert.ErrorIs(t, err, apperrors.ErrAmbiguousAccessions)
	require.Len(t, store.recs, 2)
}

func TestResolverRejectsEmptyLookup(t *testing.T) {
	resolver := NewResolver[*models.Study](&memStudies{}, zap.NewNop())
	_, _, err := resolver.Resolve(context.Background(), ResolveSpec[*models.Study]{
		Create: &models.Study{},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidQuery)
}

func TestMergeMetadata(t *testing.T) {
	existing := models.JSONBMap{"library_layout": "PAIRED", "instrument_model": "HiSeq"}
	incoming := models.JSONBMap{"instrument_model": "NovaSeq", "library_source": "METAGENOMIC"}

	merged, err := MergeMetadata(existing, incoming)
	require.NoError(t, err)
	assert.Equal(t, "PAIRED", merged["library_layout"])
	assert.Equal(t, "NovaSeq", merged["instrument_model"])
	assert.Equal(t, "METAGENOMIC", merged["library_source"])
}
