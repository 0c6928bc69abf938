package portal

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/seqcat-bio/seqcat-engine/pkg/apperrors"
)

// Visibility is the outcome of an availability probe.
type Visibility int

const (
	// VisibilityPublic: the record is served without credentials.
	VisibilityPublic Visibility = iota
	// VisibilityPrivate: the record is served only to the data-hub account.
	VisibilityPrivate
	// VisibilitySuppressed: the portal no longer serves the record under
	// any credential.
	VisibilitySuppressed
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityPrivate:
		return "private"
	case VisibilitySuppressed:
		return "suppressed"
	}
	return "unknown"
}

// Prober determines a study's visibility by sequential probing: public
// first (the cheaper unauthenticated call), then authenticated. The two
// probes are never run in parallel, to bound portal load and keep log
// ordering. The prober performs no writes; callers persist the outcome.
type Prober struct {
	client *Client
	logger *zap.Logger
}

// NewProber creates an availability prober over the given client.
func NewProber(client *Client, logger *zap.Logger) *Prober {
	return &Prober{client: client, logger: logger}
}

// CheckStudy probes the portal for a study under its primary or secondary
// accession and reports whether it is public, private or suppressed.
// Portal transport and protocol failures are returned as errors; an
// empty probe result is a normal outcome, not an error.
func (p *Prober) CheckStudy(ctx context.Context, accession string) (Visibility, error) {
	available, err := p.probe(ctx, accession, AsPublic)
	if err != nil {
		return 0, err
	}
	if available {
		p.logger.Info("Study is public in portal", zap.String("accession", accession))
		return VisibilityPublic, nil
	}

	available, err = p.probe(ctx, accession, AsDataHub)
	if err != nil {
		return 0, err
	}
	if available {
		p.logger.Info("Study is available privately in portal", zap.String("accession", accession))
		return VisibilityPrivate, nil
	}

	p.logger.Warn("Study not available publicly or privately, assuming suppressed",
		zap.String("accession", accession))
	return VisibilitySuppressed, nil
}

func (p *Prober) probe(ctx context.Context, accession string, auth AuthMode) (bool, error) {
	req := Request{
		Result: ResultTypeStudy,
		Query: NewClause(FieldStudyAccession, accession).
			Or(NewClause(FieldSecondaryStudyAccession, accession)),
		Fields: []string{FieldStudyAccession},
	}

	records, err := p.client.Execute(ctx, req, auth, false)
	if errors.Is(err, apperrors.ErrNotAvailable) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("probing %s: %w", accession, err)
	}
	return len(records) > 0, nil
}
