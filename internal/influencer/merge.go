package influencer

import (
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/creator-roster/internal/normalize"
)

// Incoming is one candidate's normalized field values, ready to merge.
type Incoming struct {
	Handle         string
	RawName        string
	DisplayName    string // inferred from a secondary source, if any
	FollowerCount  int64
	HasFollowers   bool
	Email          string
	Phone          string
	MailingAddress string
	Partnership    normalize.PartnershipType
	Status         normalize.RelationshipStatus
	Approval       normalize.ApprovalStatus
	TopSize        normalize.Size
	BottomSize     normalize.Size
	Tier           normalize.Tier
	Notes          string
	OwnerRef       string
}

// Snapshot is the profile data fetched for a brand-new identity.
type Snapshot struct {
	Handle          string `json:"handle"`
	DisplayName     string `json:"display_name"`
	FollowerCount   int64  `json:"follower_count"`
	AvatarSourceURL string `json:"avatar_source_url,omitempty"`
	AvatarRef       string `json:"avatar_ref,omitempty"`
	AvatarURL       string `json:"avatar_url,omitempty"`
}

// CreateOptions carries caller-level defaults for new identities.
type CreateOptions struct {
	Tier   normalize.Tier // defaults to DefaultTier
	Owner  string
	Source string
	Now    time.Time
}

// ProvenanceNote is the annotation appended to notes of imported identities.
func ProvenanceNote(source string, at time.Time) string {
	if source == "" {
		source = "roster import"
	}
	return fmt.Sprintf("Imported from %s on %s", source, at.Format("2006-01-02"))
}

// BuildNew assembles a full identity for a handle not yet in the store. snap
// may be nil when enrichment failed or was skipped.
func BuildNew(in Incoming, snap *Snapshot, opts CreateOptions) *Identity {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	id := &Identity{
		Handle:             in.Handle,
		DisplayName:        firstNonEmpty(snapDisplayName(snap), in.DisplayName, in.RawName, in.Handle),
		Email:              in.Email,
		Phone:              in.Phone,
		MailingAddress:     in.MailingAddress,
		PartnershipType:    in.Partnership,
		RelationshipStatus: in.Status,
		TopSize:            in.TopSize,
		BottomSize:         in.BottomSize,
		Tier:               in.Tier,
		OwnerRef:           firstNonEmpty(in.OwnerRef, opts.Owner),
	}

	switch {
	case snap != nil && snap.FollowerCount > 0:
		id.FollowerCount = snap.FollowerCount
	case in.HasFollowers:
		id.FollowerCount = in.FollowerCount
	}
	if snap != nil {
		id.AvatarRef = snap.AvatarRef
		id.AvatarURL = snap.AvatarURL
	}

	if id.PartnershipType == "" {
		id.PartnershipType = normalize.PartnershipUnassigned
	}
	if !id.RelationshipStatus.Valid() {
		id.RelationshipStatus = normalize.StatusProspect
	}
	if id.Tier == "" {
		id.Tier = opts.Tier
	}
	if id.Tier == "" {
		id.Tier = DefaultTier
	}

	id.Notes = appendNote(in.Notes, ProvenanceNote(opts.Source, now))
	return id
}

func snapDisplayName(s *Snapshot) string {
	if s == nil {
		return ""
	}
	return s.DisplayName
}

func appendNote(notes, line string) string {
	notes = strings.TrimRight(notes, " \n")
	if notes == "" {
		return line
	}
	return notes + "\n" + line
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// mergePolicy decides whether an incoming value replaces the stored one.
type mergePolicy int

const (
	// FillBlank writes only when the stored value is empty.
	FillBlank mergePolicy = iota
	// AssignedOnly writes any assigned partnership type; unassigned never
	// replaces a stored value.
	AssignedOnly
	// Monotonic writes only when the incoming status ranks strictly higher.
	Monotonic
)

func (p mergePolicy) String() string {
	switch p {
	case FillBlank:
		return "fill_blank"
	case AssignedOnly:
		return "assigned_only"
	case Monotonic:
		return "monotonic"
	default:
		return "unknown"
	}
}

type fieldRule struct {
	field  string
	policy mergePolicy
	get    func(*Identity) string
	set    func(*Identity, string)
	in     func(*Incoming) string
}

// mergeRules is the complete update policy for existing identities. Fields
// not listed here are never touched by an import.
var mergeRules = []fieldRule{
	{"display_name", FillBlank,
		func(i *Identity) string { return i.DisplayName },
		func(i *Identity, v string) { i.DisplayName = v },
		func(in *Incoming) string { return firstNonEmpty(in.DisplayName, in.RawName) }},
	{"email", FillBlank,
		func(i *Identity) string { return i.Email },
		func(i *Identity, v string) { i.Email = v },
		func(in *Incoming) string { return in.Email }},
	{"phone", FillBlank,
		func(i *Identity) string { return i.Phone },
		func(i *Identity, v string) { i.Phone = v },
		func(in *Incoming) string { return in.Phone }},
	{"mailing_address", FillBlank,
		func(i *Identity) string { return i.MailingAddress },
		func(i *Identity, v string) { i.MailingAddress = v },
		func(in *Incoming) string { return in.MailingAddress }},
	{"top_size", FillBlank,
		func(i *Identity) string { return string(i.TopSize) },
		func(i *Identity, v string) { i.TopSize = normalize.Size(v) },
		func(in *Incoming) string { return string(in.TopSize) }},
	{"bottom_size", FillBlank,
		func(i *Identity) string { return string(i.BottomSize) },
		func(i *Identity, v string) { i.BottomSize = normalize.Size(v) },
		func(in *Incoming) string { return string(in.BottomSize) }},
	{"owner_ref", FillBlank,
		func(i *Identity) string { return i.OwnerRef },
		func(i *Identity, v string) { i.OwnerRef = v },
		func(in *Incoming) string { return in.OwnerRef }},
	{"partnership_type", AssignedOnly,
		func(i *Identity) string { return string(i.PartnershipType) },
		func(i *Identity, v string) { i.PartnershipType = normalize.PartnershipType(v) },
		func(in *Incoming) string { return string(in.Partnership) }},
	{"relationship_status", Monotonic,
		func(i *Identity) string { return string(i.RelationshipStatus) },
		func(i *Identity, v string) { i.RelationshipStatus = normalize.RelationshipStatus(v) },
		func(in *Incoming) string { return string(in.Status) }},
}

func (p mergePolicy) accepts(cur, next string) bool {
	switch p {
	case FillBlank:
		return next != "" && strings.TrimSpace(cur) == ""
	case AssignedOnly:
		return normalize.PartnershipType(next).Assigned() && next != cur
	case Monotonic:
		return normalize.Rank(normalize.RelationshipStatus(next)) > normalize.Rank(normalize.RelationshipStatus(cur))
	default:
		return false
	}
}

// ApplyUpdate merges in into existing following mergeRules and returns the
// names of the fields that changed. An empty result means no write is needed.
func ApplyUpdate(existing *Identity, in Incoming) []string {
	var changed []string
	for _, r := range mergeRules {
		next := strings.TrimSpace(r.in(&in))
		if !r.policy.accepts(r.get(existing), next) {
			continue
		}
		r.set(existing, next)
		changed = append(changed, r.field)
	}
	return changed
}
