package catalog

import (
	"math/rand"
	"sync"
)

// Picker selects catalog entries uniformly at random with replacement across
// calls. The random source is seeded at construction so tests can assert
// exact selections.
type Picker struct {
	rng *rand.Rand
	mu  sync.Mutex
}

// NewPicker creates a picker seeded with the given value.
func NewPicker(seed int64) *Picker {
	return &Picker{rng: rand.New(rand.NewSource(seed))}
}

// ResourceURI returns a uniformly chosen resource URI.
func (p *Picker) ResourceURI() string {
	uris := ResourceURIs()
	p.mu.Lock()
	defer p.mu.Unlock()
	return uris[p.rng.Intn(len(uris))]
}

// ToolName returns a uniformly chosen tool name.
func (p *Picker) ToolName() string {
	names := ToolNames()
	p.mu.Lock()
	defer p.mu.Unlock()
	return names[p.rng.Intn(len(names))]
}

// Intn exposes the picker's random source for callers that need a bounded
// draw tied to the same seed (e.g. repeat counts inside a workflow).
func (p *Picker) Intn(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Intn(n)
}

// DurationJitterMs returns a random integer in [minMs, maxMs].
func (p *Picker) DurationJitterMs(minMs, maxMs int) int {
	if maxMs <= minMs {
		return minMs
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return minMs + p.rng.Intn(maxMs-minMs+1)
}
