// Package influencer holds the canonical creator identity model, its
// persistence, and the resolve/merge/associate steps of a roster import.
package influencer

import (
	"time"

	"github.com/sells-group/creator-roster/internal/normalize"
)

// Identity is the canonical record for one creator. Handle is unique
// case-insensitively and is the primary matching key.
type Identity struct {
	ID                 int64                        `json:"id" db:"id"`
	Handle             string                       `json:"handle" db:"handle"`
	DisplayName        string                       `json:"display_name" db:"display_name"`
	AvatarRef          string                       `json:"avatar_ref,omitempty" db:"avatar_ref"`
	AvatarURL          string                       `json:"avatar_url,omitempty" db:"avatar_url"`
	FollowerCount      int64                        `json:"follower_count" db:"follower_count"`
	Email              string                       `json:"email,omitempty" db:"email"`
	Phone              string                       `json:"phone,omitempty" db:"phone"`
	MailingAddress     string                       `json:"mailing_address,omitempty" db:"mailing_address"`
	PartnershipType    normalize.PartnershipType    `json:"partnership_type" db:"partnership_type"`
	RelationshipStatus normalize.RelationshipStatus `json:"relationship_status" db:"relationship_status"`
	TopSize            normalize.Size               `json:"top_size,omitempty" db:"top_size"`
	BottomSize         normalize.Size               `json:"bottom_size,omitempty" db:"bottom_size"`
	Tier               normalize.Tier               `json:"tier" db:"tier"`
	Notes              string                       `json:"notes,omitempty" db:"notes"`
	OwnerRef           string                       `json:"owner_ref,omitempty" db:"owner_ref"`
	CreatedAt          time.Time                    `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time                    `json:"updated_at" db:"updated_at"`
}

// Campaign is looked up or created by name; everything else about it is
// owned by campaign management.
type Campaign struct {
	ID        int64      `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	StartsOn  *time.Time `json:"starts_on,omitempty" db:"starts_on"`
	EndsOn    *time.Time `json:"ends_on,omitempty" db:"ends_on"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// DateRange bounds a campaign. Either end may be nil.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// Association links one identity to one campaign. The (CampaignID,
// IdentityID) pair is unique.
type Association struct {
	ID              int64                        `json:"id" db:"id"`
	CampaignID      int64                        `json:"campaign_id" db:"campaign_id"`
	IdentityID      int64                        `json:"influencer_id" db:"influencer_id"`
	PartnershipType normalize.PartnershipType    `json:"partnership_type" db:"partnership_type"`
	Status          normalize.RelationshipStatus `json:"status" db:"status"`
	Approval        normalize.ApprovalStatus     `json:"approval,omitempty" db:"approval"` // empty = not flagged
	Notes           string                       `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time                    `json:"created_at" db:"created_at"`
}

// Default field values for newly created identities.
const (
	DefaultTier = normalize.TierC
)
