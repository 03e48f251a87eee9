package normalize

// Size is a garment size.
type Size string

// Garment sizes.
const (
	SizeXS Size = "XS"
	SizeS  Size = "S"
	SizeM  Size = "M"
	SizeL  Size = "L"
	SizeXL Size = "XL"
)

var sizeAliases = map[string]Size{
	"xs":          SizeXS,
	"x-small":     SizeXS,
	"x small":     SizeXS,
	"extra small": SizeXS,
	"extra-small": SizeXS,
	"s":           SizeS,
	"small":       SizeS,
	"m":           SizeM,
	"med":         SizeM,
	"medium":      SizeM,
	"l":           SizeL,
	"large":       SizeL,
	"xl":          SizeXL,
	"x-large":     SizeXL,
	"x large":     SizeXL,
	"extra large": SizeXL,
	"extra-large": SizeXL,
}

// ParseSize maps a raw size to its canonical value.
func ParseSize(raw string) (Size, bool) {
	s, ok := sizeAliases[fold(raw)]
	return s, ok
}
