// Package validate builds the conjunctive predicate chain that gates which
// FileRecords reach Statistics and Plan generation, built from Options via
// a uniform predicate signature so new predicates compose without
// touching call sites.
package validate

import (
	"time"

	"github.com/adsamcik/photocopy/internal/model"
)

// Predicate reports whether a FileRecord should participate in the
// pipeline. All predicates in a Chain must pass (conjunctive).
type Predicate func(*model.FileRecord) bool

// Chain is an ordered, conjunctive sequence of predicates.
type Chain struct {
	predicates []Predicate
}

// New builds a Chain from Options. Currently only MinDate/MaxDate (spec
// §4.C); zero-value bounds are treated as unset and do not add a predicate.
func New(opts model.Options) *Chain {
	c := &Chain{}
	if !opts.MinDate.IsZero() {
		min := opts.MinDate
		c.predicates = append(c.predicates, func(r *model.FileRecord) bool {
			return !r.DateTime.Value.Before(min)
		})
	}
	if !opts.MaxDate.IsZero() {
		max := opts.MaxDate
		c.predicates = append(c.predicates, func(r *model.FileRecord) bool {
			return !r.DateTime.Value.After(max)
		})
	}
	return c
}

// Append adds an additional predicate to the chain, for callers composing
// validators beyond the options-driven defaults (e.g. tests).
func (c *Chain) Append(p Predicate) {
	c.predicates = append(c.predicates, p)
}

// Accepts reports whether rec passes every predicate in the chain.
func (c *Chain) Accepts(rec *model.FileRecord) bool {
	for _, p := range c.predicates {
		if !p(rec) {
			return false
		}
	}
	return true
}

// clampDate is a small helper kept for callers that need to normalize a
// date-only boundary to midnight in its own location before building a Chain (CLI flag
// parsing uses this; see cmd/photocopy).
func clampDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ClampDate exposes clampDate to other packages.
func ClampDate(t time.Time) time.Time { return clampDate(t) }
