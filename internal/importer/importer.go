// Package importer drives one batch import run: it loads and joins the
// sources, then resolves, enriches, merges and associates each row in order.
package importer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/creator-roster/internal/influencer"
	"github.com/sells-group/creator-roster/internal/normalize"
	"github.com/sells-group/creator-roster/internal/roster"
)

const (
	associationCreated  = "created"
	associationExisting = "already_associated"
)

// Enricher fetches profile snapshots for new identities. *enrich.Enricher
// satisfies it.
type Enricher interface {
	Enrich(ctx context.Context, handle string) (*influencer.Snapshot, error)
	TransferAvatar(ctx context.Context, snap *influencer.Snapshot) error
}

// Sources names the input files of a run. Secondary and Mapping are optional.
type Sources struct {
	Primary   string
	Secondary string
	Mapping   string
}

// RunOptions controls a run.
type RunOptions struct {
	Campaign      string
	CampaignDates influencer.DateRange

	Tier        normalize.Tier
	Owner       string
	SourceLabel string

	RequireApproval bool
	SkipEnrichment  bool
	// DryRun resolves and merges against the store without writing. Campaign
	// associations are not evaluated.
	DryRun bool

	Now func() time.Time
}

func (o RunOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now().UTC()
}

// Importer runs batch imports against a store.
type Importer struct {
	store      influencer.Store
	resolver   *influencer.Resolver
	associator *influencer.Associator
	enricher   Enricher
}

// New creates an Importer. enricher may be nil, which behaves like
// RunOptions.SkipEnrichment.
func New(store influencer.Store, enricher Enricher) *Importer {
	return &Importer{
		store:      store,
		resolver:   influencer.NewResolver(store),
		associator: influencer.NewAssociator(store),
		enricher:   enricher,
	}
}

type loaded struct {
	primary   *roster.Table
	secondary *roster.Table
	mapping   roster.Mapping
}

// load reads all sources concurrently. Any failure aborts the run.
func load(ctx context.Context, src Sources) (*loaded, error) {
	var out loaded
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := roster.LoadTable(gctx, src.Primary, roster.LoadOptions{Kind: roster.KindPrimary})
		out.primary = t
		return err
	})
	if src.Secondary != "" {
		g.Go(func() error {
			t, err := roster.LoadTable(gctx, src.Secondary, roster.LoadOptions{Kind: roster.KindSecondary})
			out.secondary = t
			return err
		})
	}
	if src.Mapping != "" {
		g.Go(func() error {
			m, err := roster.LoadMapping(gctx, src.Mapping)
			out.mapping = m
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "importer: load sources")
	}
	return &out, nil
}

// Run imports one batch. Per-row failures are recorded in the summary and
// never abort the run; only source loading and campaign setup do.
// Cancellation is checked between rows, so every processed row is complete.
// When ctx is cancelled the partial summary is returned with the error.
func (im *Importer) Run(ctx context.Context, src Sources, opts RunOptions) (*Summary, error) {
	if strings.TrimSpace(opts.Campaign) == "" {
		return nil, eris.New("importer: campaign name is required")
	}

	runID := uuid.New().String()
	log := zap.L().With(zap.String("run_id", runID), zap.String("campaign", opts.Campaign))
	log.Info("importer: starting run",
		zap.String("primary", src.Primary),
		zap.String("secondary", src.Secondary),
		zap.String("mapping", src.Mapping),
		zap.Bool("dry_run", opts.DryRun),
	)

	sum := newSummary(runID, strings.TrimSpace(opts.Campaign), opts.DryRun, opts.now())

	in, err := load(ctx, src)
	if err != nil {
		return nil, err
	}
	candidates := roster.Join(in.primary, roster.BuildShortcodeIndex(in.secondary), in.mapping)

	r := &run{
		im:      im,
		opts:    opts,
		log:     log,
		pending: make(map[string]*influencer.Identity),
	}
	if !opts.DryRun {
		camp, err := im.store.FindOrCreateCampaign(ctx, opts.Campaign, opts.CampaignDates)
		if err != nil {
			return nil, eris.Wrap(err, "importer: campaign")
		}
		r.campaign = camp
		sum.Campaign = camp.Name
		sum.CampaignID = camp.ID
	}

	var cancelErr error
	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			cancelErr = err
			for _, rest := range candidates[i:] {
				sum.add(Record{
					Row:       rest.Row,
					Source:    rest.Source,
					Name:      rest.Name,
					Reference: rest.Reference,
					Outcome:   OutcomeSkipped,
					Reason:    ReasonCancelled,
				})
			}
			log.Warn("importer: run cancelled", zap.Int("remaining", len(candidates)-i))
			break
		}

		// A started row always finishes; enrichment carries its own timeouts.
		rec, manual := r.process(context.WithoutCancel(ctx), c)
		sum.add(rec)
		if manual != nil {
			sum.addManualLookup(*manual)
		}
	}

	sum.FinishedAt = opts.now()
	log.Info("importer: run complete",
		zap.Int("rows", sum.Rows),
		zap.Int("created", sum.Created),
		zap.Int("updated", sum.Updated),
		zap.Int("skipped_no_handle", sum.SkippedNoHandle),
		zap.Int("skipped_no_name", sum.SkippedNoName),
		zap.Int("errored", sum.Errored),
		zap.Int("associations_created", sum.AssociationsCreated),
		zap.Duration("elapsed", sum.FinishedAt.Sub(sum.StartedAt)),
	)

	if cancelErr != nil {
		return sum, eris.Wrap(cancelErr, "importer: run cancelled")
	}
	return sum, nil
}

// run holds per-run state shared by the row loop.
type run struct {
	im       *Importer
	opts     RunOptions
	log      *zap.Logger
	campaign *influencer.Campaign
	// pending holds identities a dry run would have created, so duplicate
	// rows later in the batch resolve to them.
	pending map[string]*influencer.Identity
}

func (r *run) process(ctx context.Context, c roster.Candidate) (Record, *ManualLookup) {
	rec := Record{
		Row:       c.Row,
		Source:    c.Source,
		Name:      c.Name,
		Reference: c.Reference,
		Handle:    c.Handle,
	}
	log := r.log.With(zap.Int("row", c.Row), zap.String("name", c.Name))

	if strings.TrimSpace(c.Name) == "" {
		return r.skip(rec, ReasonNoName, ClassValidation, "row has no name"), nil
	}

	switch c.Resolution {
	case roster.MissingReference:
		rec = r.skip(rec, ReasonMissingReference, ClassValidation, c.Detail)
		return rec, manualLookup(c, ReasonMissingReference)
	case roster.Unresolvable:
		rec = r.skip(rec, ReasonUnresolvable, ClassUnresolvableIdentity, c.Detail)
		return rec, manualLookup(c, ReasonUnresolvable)
	case roster.NeedsLookup:
		rec = r.skip(rec, ReasonNeedsLookup, ClassUnresolvableIdentity, c.Detail)
		return rec, manualLookup(c, ReasonNeedsLookup)
	}

	incoming, warnings := toIncoming(c)
	rec.Warnings = warnings
	log = log.With(zap.String("handle", c.Handle))

	identity, err := r.resolveAndWrite(ctx, &rec, incoming, log)
	if err != nil {
		return r.fail(rec, err, log), nil
	}
	rec.IdentityID = identity.ID

	if r.opts.DryRun {
		return rec, nil
	}

	outcome, _, err := r.im.associator.Ensure(ctx, r.campaign.ID, identity, influencer.AssociationRequest{
		Partnership:     incoming.Partnership,
		Approval:        incoming.Approval,
		RequireApproval: r.opts.RequireApproval,
	})
	if err != nil {
		// The identity write already happened; the row is reported as errored
		// so the operator re-runs it, which is a no-op for the identity.
		return r.fail(rec, eris.Wrap(err, "associate"), log), nil
	}
	if outcome == influencer.AlreadyAssociated {
		rec.Association = associationExisting
	} else {
		rec.Association = associationCreated
	}
	log.Debug("importer: row done", zap.String("outcome", string(rec.Outcome)), zap.String("association", rec.Association))
	return rec, nil
}

// resolveAndWrite creates or updates the identity for rec and sets its
// outcome.
func (r *run) resolveAndWrite(ctx context.Context, rec *Record, in influencer.Incoming, log *zap.Logger) (*influencer.Identity, error) {
	res, err := r.resolve(ctx, in.Handle)
	if err != nil {
		return nil, err
	}
	if res.Outcome == influencer.OutcomeExisting {
		return r.update(ctx, rec, res.Identity, in)
	}

	snap := r.enrich(ctx, rec, in.Handle, log)

	// Enrichment can take seconds; check again right before inserting.
	res, err = r.resolve(ctx, in.Handle)
	if err != nil {
		return nil, err
	}
	if res.Outcome == influencer.OutcomeExisting {
		return r.update(ctx, rec, res.Identity, in)
	}

	identity := influencer.BuildNew(in, snap, influencer.CreateOptions{
		Tier:   r.opts.Tier,
		Owner:  r.opts.Owner,
		Source: r.opts.SourceLabel,
		Now:    r.opts.now(),
	})

	if r.opts.DryRun {
		r.pending[identity.Handle] = identity
		rec.Outcome = OutcomeCreated
		return identity, nil
	}

	if err := r.im.store.InsertIdentity(ctx, identity); err != nil {
		if !errors.Is(err, influencer.ErrDuplicateHandle) {
			return nil, eris.Wrap(err, "insert identity")
		}
		log.Info("importer: handle created concurrently, merging instead")
		res, rerr := r.resolve(ctx, in.Handle)
		if rerr != nil {
			return nil, rerr
		}
		if res.Outcome != influencer.OutcomeExisting {
			return nil, eris.Wrap(err, "insert identity: duplicate handle not found on re-resolve")
		}
		return r.update(ctx, rec, res.Identity, in)
	}

	rec.Outcome = OutcomeCreated
	log.Info("importer: created identity", zap.Int64("influencer_id", identity.ID))
	return identity, nil
}

func (r *run) resolve(ctx context.Context, handle string) (*influencer.Resolution, error) {
	if id, ok := r.pending[handle]; ok {
		return &influencer.Resolution{Outcome: influencer.OutcomeExisting, Handle: handle, Identity: id}, nil
	}
	return r.im.resolver.Resolve(ctx, handle)
}

func (r *run) update(ctx context.Context, rec *Record, identity *influencer.Identity, in influencer.Incoming) (*influencer.Identity, error) {
	changed := influencer.ApplyUpdate(identity, in)
	rec.Outcome = OutcomeUpdated
	rec.Changed = changed
	if len(changed) == 0 {
		rec.Reason = ReasonUnchanged
		return identity, nil
	}
	if r.opts.DryRun {
		return identity, nil
	}
	if err := r.im.store.UpdateIdentity(ctx, identity); err != nil {
		rec.Changed = nil
		return nil, eris.Wrap(err, "update identity")
	}
	return identity, nil
}

// enrich looks a new handle up. Failures become diagnostics and a nil
// snapshot; they never fail the row.
func (r *run) enrich(ctx context.Context, rec *Record, handle string, log *zap.Logger) *influencer.Snapshot {
	if r.im.enricher == nil || r.opts.SkipEnrichment || r.opts.DryRun {
		return nil
	}

	snap, err := r.im.enricher.Enrich(ctx, handle)
	if err != nil {
		r.diagnose(rec, newRecordError(ClassEnrichmentFailure, err))
		log.Warn("importer: enrichment failed, continuing with row data", zap.Error(err))
		return nil
	}

	if err := r.im.enricher.TransferAvatar(ctx, snap); err != nil {
		r.diagnose(rec, newRecordError(ClassStorageFailure, err))
		log.Warn("importer: avatar transfer failed", zap.Error(err))
	}
	return snap
}

func (r *run) diagnose(rec *Record, re *RecordError) {
	rec.Diagnostics = append(rec.Diagnostics, Issue{
		Row:       rec.Row,
		Name:      rec.Name,
		Reference: rec.Reference,
		Class:     re.Class,
		Kind:      re.Kind,
		Message:   re.Err.Error(),
	})
}

func (r *run) skip(rec Record, reason string, class Class, detail string) Record {
	rec.Outcome = OutcomeSkipped
	rec.Reason = reason
	rec.Class = class
	if detail == "" {
		detail = reason
	}
	r.diagnose(&rec, &RecordError{Class: class, Err: eris.New(detail)})
	return rec
}

func (r *run) fail(rec Record, err error, log *zap.Logger) Record {
	class := classifyStoreErr(err)
	rec.Outcome = OutcomeErrored
	rec.Class = class
	if class == ClassAmbiguousIdentity {
		rec.Reason = ReasonAmbiguous
	} else {
		rec.Reason = ReasonPersistence
	}
	r.diagnose(&rec, newRecordError(class, err))
	log.Error("importer: row failed", zap.String("class", string(class)), zap.Error(err))
	return rec
}

func manualLookup(c roster.Candidate, reason string) *ManualLookup {
	return &ManualLookup{
		Row:       c.Row,
		Name:      c.Name,
		Reference: c.Reference,
		Shortcode: c.Shortcode,
		Reason:    reason,
	}
}
