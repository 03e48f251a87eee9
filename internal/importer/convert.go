package importer

import (
	"fmt"
	"strings"

	"github.com/sells-group/creator-roster/internal/influencer"
	"github.com/sells-group/creator-roster/internal/normalize"
	"github.com/sells-group/creator-roster/internal/roster"
)

// toIncoming runs the field normalizers over a candidate. Values that do not
// parse are dropped with a warning rather than failing the row.
func toIncoming(c roster.Candidate) (influencer.Incoming, []string) {
	var warnings []string
	warn := func(field, raw string) {
		warnings = append(warnings, fmt.Sprintf("ignored unrecognized %s %q", field, raw))
	}

	in := influencer.Incoming{
		Handle:         c.Handle,
		RawName:        strings.TrimSpace(c.Name),
		DisplayName:    strings.TrimSpace(c.DisplayName),
		Email:          strings.ToLower(strings.TrimSpace(c.Email)),
		Phone:          strings.TrimSpace(c.Phone),
		MailingAddress: strings.TrimSpace(c.Address),
		Partnership:    normalize.ParsePartnershipType(c.Partnership),
		Status:         normalize.ParseRelationshipStatus(c.Status),
		Notes:          strings.TrimSpace(c.Notes),
	}

	if c.Approval != "" {
		if a, ok := normalize.ParseApprovalStatus(c.Approval); ok {
			in.Approval = a
		} else {
			warn("approval", c.Approval)
		}
	}
	if c.TopSize != "" {
		if s, ok := normalize.ParseSize(c.TopSize); ok {
			in.TopSize = s
		} else {
			warn("top size", c.TopSize)
		}
	}
	if c.BottomSize != "" {
		if s, ok := normalize.ParseSize(c.BottomSize); ok {
			in.BottomSize = s
		} else {
			warn("bottom size", c.BottomSize)
		}
	}
	if c.Tier != "" {
		if t, ok := normalize.ParseTier(c.Tier); ok {
			in.Tier = t
		} else {
			warn("tier", c.Tier)
		}
	}
	if c.Followers != "" {
		if n, ok := normalize.ParseFollowerCount(c.Followers); ok {
			in.FollowerCount, in.HasFollowers = n, true
		} else {
			warn("follower count", c.Followers)
		}
	}

	return in, warnings
}
