package pathtemplate

import (
	"strings"

	"github.com/adsamcik/photocopy/internal/model"
	"github.com/adsamcik/photocopy/internal/stats"
)

// ObserveVariables walks every alternative of every variable expression in
// the tree — not just the one a left-to-right render would pick — and
// records each identifier's raw value in coll during the scan pass: every
// variable the template references is observed for every validated file,
// regardless of which alternative ultimately wins at render time.
func ObserveVariables(tree *Tree, rec *model.FileRecord, opts model.Options, coll *stats.Collector) {
	for _, seg := range tree.Segments {
		for _, part := range seg.Parts {
			if part.Variable == nil {
				continue
			}
			for _, alt := range part.Variable.Alternatives {
				if !alt.IsIdentifier() {
					continue
				}
				coll.Observe(alt.Identifier, RawValue(alt.Identifier, rec, opts, 0))
			}
		}
	}
}

// Render produces the destination-relative path for one file against a
// frozen Statistics snapshot. number is the
// Collision Resolver's duplicate counter; pass 0 outside of collision
// re-rendering.
func Render(tree *Tree, rec *model.FileRecord, st *stats.Statistics, opts model.Options, number int) string {
	segments := make([]string, 0, len(tree.Segments))
	for _, seg := range tree.Segments {
		rendered := renderSegment(seg, rec, st, opts, number)
		if rendered == "" && seg.HasVariable() {
			continue // segment omission rule: drop a segment whose sole content rendered empty
		}
		segments = append(segments, rendered)
	}
	return strings.Join(segments, "/")
}

func renderSegment(seg Segment, rec *model.FileRecord, st *stats.Statistics, opts model.Options, number int) string {
	var b strings.Builder
	for _, part := range seg.Parts {
		if part.Variable != nil {
			b.WriteString(resolveExpression(part.Variable, rec, st, opts, number))
			continue
		}
		b.WriteString(part.Literal)
	}
	return b.String()
}

// resolveExpression walks alternatives left-to-right, returning the first
// one that resolves non-empty. Empty string is itself a valid
// terminal result if every alternative resolves empty.
func resolveExpression(expr *VariableExpression, rec *model.FileRecord, st *stats.Statistics, opts model.Options, number int) string {
	for _, alt := range expr.Alternatives {
		if v := resolveAlternative(alt, rec, st, opts, number); v != "" {
			return v
		}
	}
	return ""
}

func resolveAlternative(alt Alternative, rec *model.FileRecord, st *stats.Statistics, opts model.Options, number int) string {
	if !alt.IsIdentifier() {
		return alt.Literal
	}
	raw := RawValue(alt.Identifier, rec, opts, number)
	if raw == "" {
		return ""
	}
	if alt.Condition == nil {
		return raw
	}
	if alt.Condition.InRange(st.Count(alt.Identifier, raw)) {
		return raw
	}
	return ""
}

// ReferencesNumber reports whether the template contains a {number}
// alternative anywhere, which selects the Collision Resolver's
// counter-threading strategy over filename suffixing.
func ReferencesNumber(tree *Tree) bool {
	return ReferencesIdentifier(tree, "number")
}

// locationIdentifiers are the KNOWN_VARIABLES backed by reverse geocoding
// rather than EXIF/filesystem metadata.
var locationIdentifiers = map[string]bool{
	"district": true,
	"city":     true,
	"county":   true,
	"state":    true,
	"country":  true,
}

// ReferencesLocation reports whether the template references any
// geocoded KNOWN_VARIABLE, so the scan pass can skip reverse-geocoding
// entirely when the template has no use for it.
func ReferencesLocation(tree *Tree) bool {
	for _, seg := range tree.Segments {
		for _, part := range seg.Parts {
			if part.Variable == nil {
				continue
			}
			for _, alt := range part.Variable.Alternatives {
				if alt.IsIdentifier() && locationIdentifiers[alt.Identifier] {
					return true
				}
			}
		}
	}
	return false
}

// ReferencesIdentifier reports whether the template contains any
// alternative naming the given identifier.
func ReferencesIdentifier(tree *Tree, identifier string) bool {
	for _, seg := range tree.Segments {
		for _, part := range seg.Parts {
			if part.Variable == nil {
				continue
			}
			for _, alt := range part.Variable.Alternatives {
				if alt.Identifier == identifier {
					return true
				}
			}
		}
	}
	return false
}
