package influencer

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/creator-roster/internal/normalize"
)

// Sentinel errors returned by Store implementations.
var (
	// ErrDuplicateHandle is returned by InsertIdentity when another identity
	// already holds the handle (case-insensitive). It is the authoritative
	// collision signal under concurrent imports.
	ErrDuplicateHandle = eris.New("influencer: duplicate handle")

	// ErrDuplicateAssociation is returned by InsertAssociation when the
	// (campaign, identity) pair already exists.
	ErrDuplicateAssociation = eris.New("influencer: duplicate association")
)

// Store defines persistence operations needed by the roster import. Each call
// is atomic at the single-row level.
type Store interface {
	// Identities
	FindIdentitiesByHandle(ctx context.Context, handle string) ([]Identity, error)
	InsertIdentity(ctx context.Context, id *Identity) error
	UpdateIdentity(ctx context.Context, id *Identity) error

	// Associations
	FindAssociation(ctx context.Context, campaignID, identityID int64) (*Association, error)
	InsertAssociation(ctx context.Context, a *Association) error
	MostRecentAssociation(ctx context.Context, identityID int64) (*Association, error)

	// Campaigns
	FindOrCreateCampaign(ctx context.Context, name string, dates DateRange) (*Campaign, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// rowScanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// identityColumns is the standard column list for identity queries. Both
// backends share it so scanIdentity works for either.
const identityColumns = `id, handle, display_name, avatar_ref, avatar_url, follower_count,
	email, phone, mailing_address,
	partnership_type, relationship_status, top_size, bottom_size, tier,
	notes, owner_ref, created_at, updated_at`

func scanIdentity(row rowScanner) (*Identity, error) {
	var (
		id                                         Identity
		partnership, status, top, bottom, tierText string
	)
	err := row.Scan(
		&id.ID, &id.Handle, &id.DisplayName, &id.AvatarRef, &id.AvatarURL, &id.FollowerCount,
		&id.Email, &id.Phone, &id.MailingAddress,
		&partnership, &status, &top, &bottom, &tierText,
		&id.Notes, &id.OwnerRef, &id.CreatedAt, &id.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	id.PartnershipType = normalize.PartnershipType(partnership)
	id.RelationshipStatus = normalize.RelationshipStatus(status)
	id.TopSize = normalize.Size(top)
	id.BottomSize = normalize.Size(bottom)
	id.Tier = normalize.Tier(tierText)
	return &id, nil
}

const associationColumns = `id, campaign_id, influencer_id, partnership_type, status, approval, notes, created_at`

func scanAssociation(row rowScanner) (*Association, error) {
	var (
		a                   Association
		partnership, status string
		approval            sql.NullString
	)
	err := row.Scan(&a.ID, &a.CampaignID, &a.IdentityID, &partnership, &status, &approval, &a.Notes, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.PartnershipType = normalize.PartnershipType(partnership)
	a.Status = normalize.RelationshipStatus(status)
	if approval.Valid {
		a.Approval = normalize.ApprovalStatus(approval.String)
	}
	return &a, nil
}

const campaignColumns = `id, name, starts_on, ends_on, created_at`

func scanCampaign(row rowScanner) (*Campaign, error) {
	var (
		c          Campaign
		start, end sql.NullTime
	)
	if err := row.Scan(&c.ID, &c.Name, &start, &end, &c.CreatedAt); err != nil {
		return nil, err
	}
	if start.Valid {
		t := start.Time
		c.StartsOn = &t
	}
	if end.Valid {
		t := end.Time
		c.EndsOn = &t
	}
	return &c, nil
}

// nilIfEmpty maps the empty approval to SQL NULL.
func nilIfEmpty(s normalize.ApprovalStatus) any {
	if s == "" {
		return nil
	}
	return string(s)
}

func nilIfNoTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
