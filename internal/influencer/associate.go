package influencer

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/creator-roster/internal/normalize"
)

// AssociationOutcome reports what Ensure did.
type AssociationOutcome int

const (
	// AssociationCreated means a new (campaign, identity) row was inserted.
	AssociationCreated AssociationOutcome = iota
	// AlreadyAssociated means the pair existed; nothing was written.
	AlreadyAssociated
)

func (o AssociationOutcome) String() string {
	if o == AlreadyAssociated {
		return "already_associated"
	}
	return "created"
}

// AssociationRequest holds caller-supplied association fields.
type AssociationRequest struct {
	// Partnership is the explicit type from the input row. Unassigned means
	// "inherit".
	Partnership     normalize.PartnershipType
	Approval        normalize.ApprovalStatus
	RequireApproval bool
	Notes           string
}

// Associator links identities to campaigns at most once per pair.
type Associator struct {
	store Store
}

// NewAssociator creates an association manager.
func NewAssociator(store Store) *Associator {
	return &Associator{store: store}
}

// Ensure links identity to campaignID unless the pair already exists. The
// association's partnership type is the explicit request value, else the
// type of the identity's most recent prior association, else the identity's
// own type. Status follows the identity's current relationship status.
func (a *Associator) Ensure(ctx context.Context, campaignID int64, identity *Identity, req AssociationRequest) (AssociationOutcome, *Association, error) {
	existing, err := a.store.FindAssociation(ctx, campaignID, identity.ID)
	if err != nil {
		return 0, nil, eris.Wrap(err, "influencer: ensure association")
	}
	if existing != nil {
		return AlreadyAssociated, existing, nil
	}

	partnership, err := a.inheritPartnership(ctx, identity, req.Partnership)
	if err != nil {
		return 0, nil, err
	}

	assoc := &Association{
		CampaignID:      campaignID,
		IdentityID:      identity.ID,
		PartnershipType: partnership,
		Status:          identity.RelationshipStatus,
		Notes:           req.Notes,
	}
	if !assoc.Status.Valid() {
		assoc.Status = normalize.StatusProspect
	}
	if req.RequireApproval {
		assoc.Approval = req.Approval
		if assoc.Approval == "" {
			assoc.Approval = normalize.ApprovalPending
		}
	}

	if err := a.store.InsertAssociation(ctx, assoc); err != nil {
		if errors.Is(err, ErrDuplicateAssociation) {
			zap.L().Debug("associate: lost insert race",
				zap.Int64("campaign_id", campaignID),
				zap.Int64("influencer_id", identity.ID),
			)
			found, ferr := a.store.FindAssociation(ctx, campaignID, identity.ID)
			if ferr != nil {
				return 0, nil, eris.Wrap(ferr, "influencer: refind association")
			}
			return AlreadyAssociated, found, nil
		}
		return 0, nil, eris.Wrap(err, "influencer: insert association")
	}
	return AssociationCreated, assoc, nil
}

func (a *Associator) inheritPartnership(ctx context.Context, identity *Identity, explicit normalize.PartnershipType) (normalize.PartnershipType, error) {
	if explicit.Assigned() {
		return explicit, nil
	}
	prior, err := a.store.MostRecentAssociation(ctx, identity.ID)
	if err != nil {
		return "", eris.Wrap(err, "influencer: most recent association")
	}
	if prior != nil && prior.PartnershipType.Assigned() {
		return prior.PartnershipType, nil
	}
	if identity.PartnershipType != "" {
		return identity.PartnershipType, nil
	}
	return normalize.PartnershipUnassigned, nil
}
