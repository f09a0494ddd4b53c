// Package pathtemplate parses and resolves PhotoCopy destination templates
//: a path made of segments, each segment a run of literal
// text and variable expressions, each variable expression a left-to-right
// chain of alternatives with optional count-threshold conditions.
package pathtemplate

import (
	"fmt"
	"strconv"

	"github.com/adsamcik/photocopy/internal/util"
)

// KnownVariables is the closed set of identifiers the parser recognizes
//. Anything else that looks like an identifier is treated as a
// literal fallback instead.
var KnownVariables = map[string]bool{
	"year": true, "month": true, "day": true, "dayOfYear": true,
	"name": true, "namenoext": true, "ext": true, "directory": true,
	"number": true,
	"district": true, "city": true, "county": true, "state": true, "country": true,
}

// Tree is a parsed template: an ordered sequence of path segments.
type Tree struct {
	Segments []Segment
}

// Segment is an ordered sequence of literal and variable parts that render
// to one path component.
type Segment struct {
	Parts []Part
}

// HasVariable reports whether any part of the segment is a variable
// expression, which makes the segment eligible for omission when it
// renders empty.
func (s Segment) HasVariable() bool {
	for _, p := range s.Parts {
		if p.Variable != nil {
			return true
		}
	}
	return false
}

// Part is either literal text or a variable expression; Variable is nil
// for a literal part.
type Part struct {
	Literal  string
	Variable *VariableExpression
}

// VariableExpression is a chain of alternatives evaluated left-to-right
// until one resolves non-empty.
type VariableExpression struct {
	Alternatives []Alternative
}

// Alternative is one `|`-separated option: either a known identifier with
// an optional condition, or a literal fallback (possibly empty).
type Alternative struct {
	Identifier string // set iff this alternative is an identifier, not a literal
	Condition  *Condition
	Literal    string // meaningful iff Identifier == ""
}

func (a Alternative) IsIdentifier() bool { return a.Identifier != "" }

// Condition is the optional `?min=N,max=M` suffix on an identifier
// alternative.
type Condition struct {
	Min int // inclusive; 0 when unspecified
	Max int // inclusive; MaxInt when unspecified
}

// MaxUnbounded stands in for "+infinity" on an unspecified max: an
// unbounded side is treated as 0 on the low end and +∞ on the high end.
const MaxUnbounded = int(^uint(0) >> 1)

// InRange reports whether count falls within [Min, Max].
func (c Condition) InRange(count int) bool {
	return count >= c.Min && count <= c.Max
}

// Parse parses a template string into a Tree, or returns a
// *util.TemplateSyntaxError with the byte offset of the failure.
func Parse(template string) (*Tree, error) {
	p := &parser{src: template}
	tree := &Tree{}
	for {
		seg, err := p.parseSegment()
		if err != nil {
			return nil, err
		}
		tree.Segments = append(tree.Segments, seg)
		if p.pos >= len(p.src) {
			break
		}
		if p.src[p.pos] == '/' {
			p.pos++
			continue
		}
		return nil, p.errorf("unexpected character %q", p.src[p.pos])
	}
	return tree, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &util.TemplateSyntaxError{
		Template: p.src,
		Pos:      p.pos,
		Reason:   fmt.Sprintf(format, args...),
	}
}

func (p *parser) parseSegment() (Segment, error) {
	var seg Segment
	for p.pos < len(p.src) && p.src[p.pos] != '/' {
		if p.src[p.pos] == '{' {
			v, err := p.parseVariable()
			if err != nil {
				return Segment{}, err
			}
			seg.Parts = append(seg.Parts, Part{Variable: v})
			continue
		}
		if p.src[p.pos] == '}' {
			return Segment{}, p.errorf("unbalanced '}'")
		}
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] != '/' && p.src[p.pos] != '{' && p.src[p.pos] != '}' {
			p.pos++
		}
		seg.Parts = append(seg.Parts, Part{Literal: p.src[start:p.pos]})
	}
	return seg, nil
}

func (p *parser) parseVariable() (*VariableExpression, error) {
	openPos := p.pos
	p.pos++ // consume '{'
	expr := &VariableExpression{}
	for {
		alt, err := p.parseAlternative()
		if err != nil {
			return nil, err
		}
		expr.Alternatives = append(expr.Alternatives, alt)
		if p.pos >= len(p.src) {
			p.pos = openPos
			return nil, p.errorf("unbalanced '{'")
		}
		switch p.src[p.pos] {
		case '{':
			p.pos = openPos
			return nil, p.errorf("unbalanced '{'")
		case '|':
			p.pos++
			continue
		case '}':
			p.pos++
			return expr, nil
		default:
			return nil, p.errorf("unexpected character %q in variable", p.src[p.pos])
		}
	}
}

func (p *parser) parseAlternative() (Alternative, error) {
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != '|' && p.src[p.pos] != '}' && p.src[p.pos] != '?' && p.src[p.pos] != '{' {
		p.pos++
	}
	token := p.src[start:p.pos]

	if p.pos < len(p.src) && p.src[p.pos] == '?' && KnownVariables[token] {
		p.pos++ // consume '?'
		cond, err := p.parseCondition()
		if err != nil {
			return Alternative{}, err
		}
		return Alternative{Identifier: token, Condition: cond}, nil
	}

	if KnownVariables[token] {
		return Alternative{Identifier: token}, nil
	}
	// Not a known identifier: the whole token (which may contain '?' if we
	// never branched above, i.e. token has no '?') is a literal. Literals
	// may contain any character except '|', '}' and '{' (a '{' inside a
	// variable is reported as an unbalanced brace); '?' alone
	// never triggers condition parsing unless the identifier preceding it
	// is known, so continue consuming until '|'/'}' to capture e.g. "a?b".
	for p.pos < len(p.src) && p.src[p.pos] != '|' && p.src[p.pos] != '}' && p.src[p.pos] != '{' {
		p.pos++
	}
	return Alternative{Literal: p.src[start:p.pos]}, nil
}

func (p *parser) parseCondition() (*Condition, error) {
	cond := &Condition{Min: 0, Max: MaxUnbounded}
	sawMin, sawMax := false, false
	for {
		key, val, err := p.parseCondKV()
		if err != nil {
			return nil, err
		}
		n, convErr := strconv.Atoi(val)
		if convErr != nil {
			return nil, p.errorf("non-numeric condition value %q for %s", val, key)
		}
		switch key {
		case "min":
			cond.Min = n
			sawMin = true
		case "max":
			cond.Max = n
			sawMax = true
		default:
			return nil, p.errorf("unknown condition key %q", key)
		}
		if p.pos < len(p.src) && p.src[p.pos] == ',' {
			p.pos++
			continue
		}
		break
	}
	if sawMin && sawMax && cond.Min > cond.Max {
		return nil, p.errorf("condition min (%d) > max (%d)", cond.Min, cond.Max)
	}
	return cond, nil
}

func (p *parser) parseCondKV() (key, val string, err error) {
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != '=' {
		p.pos++
	}
	if p.pos >= len(p.src) {
		return "", "", p.errorf("condition missing '='")
	}
	key = p.src[start:p.pos]
	p.pos++ // consume '='
	start = p.pos
	for p.pos < len(p.src) && p.src[p.pos] != ',' && p.src[p.pos] != '}' && p.src[p.pos] != '|' {
		p.pos++
	}
	val = p.src[start:p.pos]
	return key, val, nil
}
