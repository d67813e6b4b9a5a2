package dispatch

import (
	"strings"
	"sync"
)

// Prefixes is the ordered set of trigger prefixes. Match is first-match-wins
// in insertion order, not longest-match.
type Prefixes struct {
	mu   sync.RWMutex
	list []string
}

// NewPrefixes creates a prefix set. Empty and duplicate entries are dropped.
func NewPrefixes(prefixes ...string) *Prefixes {
	p := &Prefixes{}
	p.Add(prefixes...)
	return p
}

// Add appends prefixes that are not already present.
func (p *Prefixes) Add(prefixes ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()

outer:
	for _, prefix := range prefixes {
		if prefix == "" {
			continue
		}
		for _, existing := range p.list {
			if existing == prefix {
				continue outer
			}
		}
		p.list = append(p.list, prefix)
	}
}

// Match returns the first prefix content starts with.
func (p *Prefixes) Match(content string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, prefix := range p.list {
		if strings.HasPrefix(content, prefix) {
			return prefix, true
		}
	}
	return "", false
}

// List returns a copy of the prefixes in order.
func (p *Prefixes) List() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]string, len(p.list))
	copy(out, p.list)
	return out
}

// Len returns the number of prefixes.
func (p *Prefixes) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.list)
}

// Owners is the set of invoker IDs exempt from cooldowns.
type Owners struct {
	mu    sync.RWMutex
	set   map[string]struct{}
	order []string
}

// NewOwners creates an owner set. Empty and duplicate IDs are dropped.
func NewOwners(ids ...string) *Owners {
	o := &Owners{set: make(map[string]struct{})}
	o.Add(ids...)
	return o
}

// Add inserts IDs not already present.
func (o *Owners) Add(ids ...string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := o.set[id]; ok {
			continue
		}
		o.set[id] = struct{}{}
		o.order = append(o.order, id)
	}
}

// Has reports whether id is an owner.
func (o *Owners) Has(id string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.set[id]
	return ok
}

// List returns the owners in insertion order.
func (o *Owners) List() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]string, len(o.order))
	copy(out, o.order)
	return out
}

// Len returns the number of owners.
func (o *Owners) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.order)
}
