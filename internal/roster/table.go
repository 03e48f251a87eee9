// Package roster loads the tabular import sources and joins them into one
// candidate record per primary roster row.
package roster

import (
	"strings"

	"github.com/sells-group/creator-roster/internal/normalize"
)

// Field is a logical column, independent of how a given export spells its
// header.
type Field string

// Primary roster fields.
const (
	FieldName        Field = "name"
	FieldReference   Field = "reference"
	FieldPartnership Field = "partnership"
	FieldStatus      Field = "status"
	FieldApproval    Field = "approval"
	FieldTopSize     Field = "top_size"
	FieldBottomSize  Field = "bottom_size"
	FieldEmail       Field = "email"
	FieldPhone       Field = "phone"
	FieldAddress     Field = "address"
	FieldNotes       Field = "notes"
	FieldFollowers   Field = "followers"
	FieldTier        Field = "tier"
)

// Secondary (scrape export) fields.
const (
	FieldURL         Field = "url"
	FieldHandle      Field = "handle"
	FieldDisplayName Field = "display_name"
)

// Kind selects the header alias set used to read a table.
type Kind int

const (
	// KindPrimary is the hand-maintained roster.
	KindPrimary Kind = iota
	// KindSecondary is the post-keyed scrape export.
	KindSecondary
)

func (k Kind) String() string {
	if k == KindSecondary {
		return "secondary"
	}
	return "primary"
}

// Header keys are compared after headerKey, so "Comms Status", "comms_status"
// and "COMMS-STATUS" are all "commsstatus".
var primaryAliases = map[Field][]string{
	FieldName:        {"name", "fullname", "influencer", "influencername", "creator", "creatorname", "contact"},
	FieldReference:   {"reference", "instagram", "ig", "iglink", "instagramurl", "instagramlink", "instagramhandle", "handle", "social", "socialhandle", "socialurl", "profile", "profileurl", "url", "link", "post", "posturl"},
	FieldPartnership: {"partnership", "partnershiptype", "type", "deal", "dealtype"},
	FieldStatus:      {"status", "commsstatus", "relationshipstatus", "outreachstatus", "communicationstatus"},
	FieldApproval:    {"approval", "approvalstatus", "approved"},
	FieldTopSize:     {"topsize", "top", "shirtsize"},
	FieldBottomSize:  {"bottomsize", "bottom", "pantsize", "pantssize"},
	FieldEmail:       {"email", "emailaddress"},
	FieldPhone:       {"phone", "phonenumber", "mobile"},
	FieldAddress:     {"address", "mailingaddress", "shippingaddress"},
	FieldNotes:       {"notes", "note", "comments"},
	FieldFollowers:   {"followers", "followercount", "follower"},
	FieldTier:        {"tier"},
}

var secondaryAliases = map[Field][]string{
	FieldURL:         {"url", "posturl", "inputurl", "link"},
	FieldHandle:      {"handle", "ownerusername", "username"},
	FieldDisplayName: {"displayname", "ownerfullname", "fullname", "name"},
	FieldFollowers:   {"followers", "followercount", "ownerfollowers", "followerscount"},
}

// aliasIndex inverts an alias table into header key -> field.
func aliasIndex(aliases map[Field][]string) map[string]Field {
	idx := make(map[string]Field)
	for f, keys := range aliases {
		for _, k := range keys {
			idx[k] = f
		}
	}
	return idx
}

var (
	primaryIndex   = aliasIndex(primaryAliases)
	secondaryIndex = aliasIndex(secondaryAliases)
)

func headerKey(s string) string {
	s = normalize.Fold(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '.', '(', ')':
			return -1
		}
		return r
	}, s)
}

// Row is one data row. Number is the 1-based line in the source file,
// counting the header.
type Row struct {
	Number int
	Cells  []string
}

// Table is a loaded source with its header resolved to logical fields.
type Table struct {
	Label   string
	Path    string
	Kind    Kind
	Columns map[Field]int
	Rows    []Row
}

// Has reports whether the table carries a column for f.
func (t *Table) Has(f Field) bool {
	_, ok := t.Columns[f]
	return ok
}

// Get returns the trimmed cell for f, or "" when the column is absent or
// the row is short.
func (t *Table) Get(r Row, f Field) string {
	i, ok := t.Columns[f]
	if !ok || i >= len(r.Cells) {
		return ""
	}
	return strings.TrimSpace(r.Cells[i])
}

// resolveHeader maps header cells to fields. The first column matching a
// field wins.
func resolveHeader(header []string, kind Kind) map[Field]int {
	idx := primaryIndex
	if kind == KindSecondary {
		idx = secondaryIndex
	}
	cols := make(map[Field]int)
	for i, h := range header {
		f, ok := idx[headerKey(h)]
		if !ok {
			continue
		}
		if _, seen := cols[f]; !seen {
			cols[f] = i
		}
	}
	return cols
}
