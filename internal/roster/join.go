package roster

import (
	"fmt"
	"strings"

	"github.com/sells-group/creator-roster/internal/social"
)

// SecondaryRow is the part of a scrape export row the joiner uses.
type SecondaryRow struct {
	Row         int
	Source      string
	URL         string
	Handle      string
	DisplayName string
	Followers   string
}

// ShortcodeIndex maps a post shortcode to the secondary row that carries it.
type ShortcodeIndex map[string]SecondaryRow

// BuildShortcodeIndex keys every secondary row by the shortcode in its own
// URL. Rows without a shortcode are ignored; on duplicates the first row
// wins. A nil table yields an empty index.
func BuildShortcodeIndex(secondary *Table) ShortcodeIndex {
	idx := make(ShortcodeIndex)
	if secondary == nil {
		return idx
	}
	for _, r := range secondary.Rows {
		u := secondary.Get(r, FieldURL)
		code, ok := social.ShortcodeOf(u)
		if !ok {
			continue
		}
		if _, dup := idx[code]; dup {
			continue
		}
		idx[code] = SecondaryRow{
			Row:         r.Number,
			Source:      secondary.Label,
			URL:         u,
			Handle:      secondary.Get(r, FieldHandle),
			DisplayName: secondary.Get(r, FieldDisplayName),
			Followers:   secondary.Get(r, FieldFollowers),
		}
	}
	return idx
}

// Join produces exactly one Candidate per primary row, in input order. It
// does no I/O.
func Join(primary *Table, index ShortcodeIndex, mapping Mapping) []Candidate {
	out := make([]Candidate, 0, len(primary.Rows))
	for _, r := range primary.Rows {
		out = append(out, joinRow(primary, r, index, mapping))
	}
	return out
}

func joinRow(t *Table, r Row, index ShortcodeIndex, mapping Mapping) Candidate {
	c := Candidate{
		Row:         r.Number,
		Source:      t.Label,
		Name:        t.Get(r, FieldName),
		Reference:   t.Get(r, FieldReference),
		Partnership: t.Get(r, FieldPartnership),
		Status:      t.Get(r, FieldStatus),
		Approval:    t.Get(r, FieldApproval),
		TopSize:     t.Get(r, FieldTopSize),
		BottomSize:  t.Get(r, FieldBottomSize),
		Email:       t.Get(r, FieldEmail),
		Phone:       t.Get(r, FieldPhone),
		Address:     t.Get(r, FieldAddress),
		Notes:       t.Get(r, FieldNotes),
		Followers:   t.Get(r, FieldFollowers),
		Tier:        t.Get(r, FieldTier),
		Provenance:  make(map[string]string),
	}
	for field, v := range map[Field]string{
		FieldName: c.Name, FieldReference: c.Reference, FieldPartnership: c.Partnership,
		FieldStatus: c.Status, FieldApproval: c.Approval, FieldTopSize: c.TopSize,
		FieldBottomSize: c.BottomSize, FieldEmail: c.Email, FieldPhone: c.Phone,
		FieldAddress: c.Address, FieldNotes: c.Notes, FieldFollowers: c.Followers, FieldTier: c.Tier,
	} {
		if v != "" {
			c.Provenance[string(field)] = t.Label
		}
	}

	if c.Reference == "" && c.Name != "" {
		if ref, ok := mapping.Lookup(c.Name); ok {
			c.Reference = ref
			c.Provenance[string(FieldReference)] = MappingLabel
		}
	}
	if c.Reference == "" {
		c.Resolution = MissingReference
		c.Detail = "no social reference in roster or mapping file"
		return c
	}

	ref := social.Extract(c.Reference)
	switch ref.Kind {
	case social.KindHandle:
		c.Handle = ref.Handle
		c.Provenance[string(FieldHandle)] = c.Provenance[string(FieldReference)]
		c.Resolution = Resolved
	case social.KindPost:
		c.Shortcode = ref.Shortcode
		resolveShortcode(&c, index)
	default:
		c.Resolution = Unresolvable
		c.Detail = fmt.Sprintf("cannot parse %q as a profile or post reference", c.Reference)
	}

	if c.Resolution != Resolved {
		applyMappingHandle(&c, mapping)
	}
	return c
}

// applyMappingHandle lets a completed manual-lookup file fix rows whose own
// reference did not resolve. Only a direct handle in the mapping is used.
func applyMappingHandle(c *Candidate, mapping Mapping) {
	if c.Provenance[string(FieldReference)] == MappingLabel {
		return
	}
	ref, ok := mapping.Lookup(c.Name)
	if !ok {
		return
	}
	if r := social.Extract(ref); r.Kind == social.KindHandle {
		c.Handle = r.Handle
		c.Resolution = Resolved
		c.Detail = ""
		c.Provenance[string(FieldHandle)] = MappingLabel
	}
}

func resolveShortcode(c *Candidate, index ShortcodeIndex) {
	sec, ok := index[c.Shortcode]
	if !ok {
		c.Resolution = NeedsLookup
		c.Detail = fmt.Sprintf("no secondary row for post %s", c.Shortcode)
		return
	}

	handle, ok := social.NormalizeHandle(strings.TrimPrefix(sec.Handle, "@"))
	if !ok {
		// Some exports carry a profile URL in the handle column.
		if r := social.Extract(sec.Handle); r.Kind == social.KindHandle {
			handle, ok = r.Handle, true
		}
	}
	if !ok {
		c.Resolution = NeedsLookup
		c.Detail = fmt.Sprintf("secondary row %d for post %s has no usable handle", sec.Row, c.Shortcode)
		return
	}

	c.Handle = handle
	c.Resolution = Resolved
	c.Provenance[string(FieldHandle)] = sec.Source
	if sec.DisplayName != "" {
		c.DisplayName = sec.DisplayName
		c.Provenance[string(FieldDisplayName)] = sec.Source
	}
	if c.Followers == "" && sec.Followers != "" {
		c.Followers = sec.Followers
		c.Provenance[string(FieldFollowers)] = sec.Source
	}
}
