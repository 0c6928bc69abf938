package services

import (
	"context"
	"fmt"

	"dario.cat/mergo"
	"go.uber.org/zap"

	"github.com/seqcat-bio/seqcat-engine/pkg/accession"
	"github.com/seqcat-bio/seqcat-engine/pkg/apperrors"
	"github.com/seqcat-bio/seqcat-engine/pkg/models"
)

// Resolvable is implemented by catalogue records that are matched by
// accession-set overlap.
type Resolvable interface {
	GetID() int64
	GetAccessions() accession.Set
	SetAccessions(accession.Set)
}

// RecordStore is the storage surface entity resolution runs against.
// The catalogue repositories implement it; tests use in-memory fakes.
type RecordStore[T Resolvable] interface {
	FindOverlapping(ctx context.Context, accs accession.Set) ([]T, error)
	Insert(ctx context.Context, rec T) error
	UpdateFields(ctx context.Context, id int64, fields models.FieldMap) error
	StoreAccessions(ctx context.Context, id int64, accs accession.Set) error
}

// ResolveSpec describes one resolution: the accessions to match on, a
// template to create when nothing matches, and fields to force onto the
// record either way.
type ResolveSpec[T Resolvable] struct {
	Accessions accession.Set
	Create     T
	Update     models.FieldMap
}

// Resolver matches incoming records against stored ones by accession
// overlap and upserts accordingly. Whatever path a resolution takes, the
// stored accession set ends up a superset of the lookup set.
type Resolver[T Resolvable] struct {
	store  RecordStore[T]
	logger *zap.Logger
}

// NewResolver creates a resolver over the given store.
func NewResolver[T Resolvable](store RecordStore[T], logger *zap.Logger) *Resolver[T] {
	return &Resolver[T]{
		store:  store,
		logger: logger.Named("resolver"),
	}
}

// Resolve finds the record overlapping spec.Accessions, creating it from
// spec.Create when absent. The second return reports whether a record
// was created. More than one overlapping record is a data integrity
// failure and returns ErrAmbiguousAccessions.
func (r *Resolver[T]) Resolve(ctx context.Context, spec ResolveSpec[T]) (T, bool, error) {
	var zero T

	if len(spec.Accessions) == 0 {
		return zero, false, fmt.Errorf("%w: no accessions to resolve on", apperrors.ErrInvalidQuery)
	}

	matches, err := r.store.FindOverlapping(ctx, spec.Accessions)
	if err != nil {
		return zero, false, err
	}

	switch len(matches) {
	case 0:
		return r.create(ctx, spec)
	case 1:
		return r.update(ctx, matches[0], spec)
	default:
		r.logger.Error("Multiple records overlap one accession set",
			zap.Strings("accessions", spec.Accessions),
			zap.Int("matches", len(matches)))
		return zero, false, fmt.Errorf("%w: %d records overlap %v",
			apperrors.ErrAmbiguousAccessions, len(matches), spec.Accessions)
	}
}

func (r *Resolver[T]) create(ctx context.Context, spec ResolveSpec[T]) (T, bool, error) {
	var zero T

	rec := spec.Create
	rec.SetAccessions(rec.GetAccessions().Union(spec.Accessions))

	if err := r.store.Insert(ctx, rec); err != nil {
		return zero, false, err
	}
	if len(spec.Update) > 0 {
		if err := r.store.UpdateFields(ctx, rec.GetID(), spec.Update); err != nil {
			return zero, false, err
		}
		fresh, err := r.reload(ctx, rec)
		if err != nil {
			return zero, false, err
		}
		rec = fresh
	}
	return rec, true, nil
}

func (r *Resolver[T]) update(ctx context.Context, rec T, spec ResolveSpec[T]) (T, bool, error) {
	var zero T

	merged := rec.GetAccessions().Union(spec.Accessions)
	if len(merged) != len(rec.GetAccessions()) {
		if err := r.store.StoreAccessions(ctx, rec.GetID(), merged); err != nil {
			return zero, false, err
		}
		rec.SetAccessions(merged)
	}

	if len(spec.Update) > 0 {
		if err := r.store.UpdateFields(ctx, rec.GetID(), spec.Update); err != nil {
			return zero, false, err
		}
		fresh, err := r.reload(ctx, rec)
		if err != nil {
			return zero, false, err
		}
		rec = fresh
	}
	return rec, false, nil
}

// reload re-reads the stored record so values written via UpdateFields
// are reflected in the returned struct.
func (r *Resolver[T]) reload(ctx context.Context, rec T) (T, error) {
	matches, err := r.store.FindOverlapping(ctx, rec.GetAccessions())
	if err != nil {
		return rec, err
	}
	for _, m := range matches {
		if m.GetID() == rec.GetID() {
			return m, nil
		}
	}
	return rec, nil
}

// MergeMetadata deep-merges incoming metadata over existing metadata,
// keeping keys the incoming map does not mention.
func MergeMetadata(existing, incoming models.JSONBMap) (models.JSONBMap, error) {
	merged := models.JSONBMap{}
	if err := mergo.Merge(&merged, existing); err != nil {
		return nil, fmt.Errorf("failed to merge metadata: %w", err)
	}
	if err := mergo.Merge(&merged, incoming, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge metadata: %w", err)
	}
	return merged, nil
}
