package influencer

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/creator-roster/internal/social"
)

// ErrAmbiguousIdentity means the store holds more than one identity for a
// handle. It is fatal for the record being resolved, never for the run.
var ErrAmbiguousIdentity = eris.New("influencer: ambiguous identity")

// Outcome classifies a resolved handle.
type Outcome int

const (
	// OutcomeNew means no identity holds the handle yet.
	OutcomeNew Outcome = iota
	// OutcomeExisting means exactly one identity holds the handle.
	OutcomeExisting
)

func (o Outcome) String() string {
	if o == OutcomeExisting {
		return "existing"
	}
	return "new"
}

// Resolution is the result of Resolver.Resolve. Identity is set only for
// OutcomeExisting.
type Resolution struct {
	Outcome  Outcome
	Handle   string
	Identity *Identity
}

// Resolver looks canonical handles up against the store.
type Resolver struct {
	store Store
}

// NewResolver creates an identity resolver.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve performs a case-insensitive exact lookup of handle.
func (r *Resolver) Resolve(ctx context.Context, handle string) (*Resolution, error) {
	h, ok := social.NormalizeHandle(handle)
	if !ok {
		return nil, eris.Errorf("influencer: %q is not a handle", handle)
	}

	matches, err := r.store.FindIdentitiesByHandle(ctx, h)
	if err != nil {
		return nil, eris.Wrap(err, "influencer: resolve")
	}

	switch len(matches) {
	case 0:
		return &Resolution{Outcome: OutcomeNew, Handle: h}, nil
	case 1:
		zap.L().Debug("resolve: matched by handle",
			zap.String("handle", h),
			zap.Int64("influencer_id", matches[0].ID),
		)
		return &Resolution{Outcome: OutcomeExisting, Handle: h, Identity: &matches[0]}, nil
	default:
		ids := make([]int64, len(matches))
		for i, m := range matches {
			ids[i] = m.ID
		}
		zap.L().Error("resolve: multiple identities share a handle",
			zap.String("handle", h),
			zap.Int64s("influencer_ids", ids),
		)
		return nil, eris.Wrapf(ErrAmbiguousIdentity, "influencer: %d identities for %s", len(matches), h)
	}
}
