package facet

import "regexp"

// Tag tokens encode an optional year and edition directly concatenated to
// the tag name: "AwardX2014" is the 2014 edition of AwardX, "AwardX2014S" a
// sub-edition. The format is inherently ambiguous for tag names that end in
// digits; the shapes below reproduce the dataset's established encoding and
// must not be "fixed" without re-checking the published data.
var (
	tagYearEditionRe = regexp.MustCompile(`^(.+?)(\d{4})([A-Za-z])$`)
	tagYearRe        = regexp.MustCompile(`^(.+?)(\d{4})$`)
)

// ParsedTag is a decomposed tag token.
type ParsedTag struct {
	// Base is the tag name without year/edition.
	Base string
	// Year is the 4-digit year string, empty when the token has none.
	Year string
	// Edition is the single-letter edition marker, empty when absent.
	Edition string
}

// ParseTag splits a compound tag token. Tried shapes, in order: name+year+
// edition letter, name+year, bare name.
func ParseTag(token string) ParsedTag {
	if m := tagYearEditionRe.FindStringSubmatch(token); m != nil {
		return ParsedTag{Base: m[1], Year: m[2], Edition: m[3]}
	}
	if m := tagYearRe.FindStringSubmatch(token); m != nil {
		return ParsedTag{Base: m[1], Year: m[2]}
	}
	return ParsedTag{Base: token}
}

// likePattern returns the LIKE pattern for matching this token against the
// slash-delimited tag column. A token with a year matches that exact
// edition; a bare name matches every edition of the tag.
func (p ParsedTag) likePattern(original string) string {
	if p.Year != "" {
		// Exact token, delimiter-anchored: AwardX2014 must not match
		// AwardX2014S or AwardX2015.
		return "%/" + original + "/%"
	}
	return "%/" + p.Base + "%"
}
