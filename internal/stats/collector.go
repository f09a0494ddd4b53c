// Package stats accumulates the scan-pass counts the Variable Resolver
// consults when evaluating a conditioned variable, split into the mutable
// Collector the scan pass observes into and the read-only Statistics
// snapshot that Freeze hands to the apply pass.
package stats

import "sync"

// key identifies one (variable_name, raw_value) pair.
type key struct {
	variable string
	value    string
}

// Collector accumulates counts during the scan pass. Observe is safe for
// concurrent use.
type Collector struct {
	mu     sync.Mutex
	counts map[key]int
}

// NewCollector returns an empty Collector ready for Observe calls.
func NewCollector() *Collector {
	return &Collector{counts: make(map[key]int)}
}

// Observe records one occurrence of variable=value. Called once per
// template-referenced variable per validated file during the scan pass.
func (c *Collector) Observe(variable, value string) {
	if value == "" {
		return
	}
	c.mu.Lock()
	c.counts[key{variable, value}]++
	c.mu.Unlock()
}

// Freeze returns a read-only Statistics snapshot — the scan/apply
// boundary. The Collector still accepts Observe calls afterwards, but they
// do not change a snapshot already taken.
func (c *Collector) Freeze() *Statistics {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := make(map[key]int, len(c.counts))
	for k, v := range c.counts {
		snapshot[k] = v
	}
	return &Statistics{counts: snapshot}
}

// Statistics is the frozen, read-only result of a scan pass.
type Statistics struct {
	counts map[key]int
}

// Count returns how many validated files observed variable=value during
// the scan pass. Zero for anything never observed.
func (s *Statistics) Count(variable, value string) int {
	if s == nil {
		return 0
	}
	return s.counts[key{variable, value}]
}

// Empty returns a Statistics with no observations, for use in the scan
// pass itself where conditioned variables always resolve against zero
// counts.
func Empty() *Statistics {
	return &Statistics{counts: map[key]int{}}
}
