package capability

import (
	"context"
	"fmt"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/inference-gateway/capability-orchestrator/logger"
)

// CardFetcher retrieves an agent card from the agent's well-known metadata endpoint
//
//go:generate mockgen -source=registry.go -destination=../mocks/capability.go -package=mocks
type CardFetcher interface {
	FetchCard(ctx context.Context, descriptor Descriptor) (*Card, error)
}

// Registry is the single source of truth for what exists and is callable.
// It owns no transport connection.
type Registry interface {
	List(kind *Kind) []Descriptor
	IDs(kind *Kind) []string
	Get(id string) (Descriptor, error)
	GetCard(ctx context.Context, id string) (*Card, error)
	Register(id string, descriptor Descriptor) error
	Unregister(id string)
	SetEnabled(id string, enabled bool) error
}

var _ Registry = (*RegistryImpl)(nil)

type registryEntry struct {
	descriptor Descriptor
	generation uint64
}

// RegistryImpl keeps descriptors in configuration order and caches agent cards.
// Mutations are rare admin operations, one RWMutex guards both maps.
type RegistryImpl struct {
	mu         sync.RWMutex
	order      []string
	entries    map[string]*registryEntry
	cards      map[string]*Card
	generation uint64

	fetcher CardFetcher
	logger  logger.Logger
}

// NewRegistry creates a registry seeded with descriptors in the given order
func NewRegistry(fetcher CardFetcher, log logger.Logger, descriptors ...Descriptor) (*RegistryImpl, error) {
	r := &RegistryImpl{
		entries: make(map[string]*registryEntry),
		cards:   make(map[string]*Card),
		fetcher: fetcher,
		logger:  log,
	}
	for _, d := range descriptors {
		if _, exists := r.entries[d.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidDescriptor, d.ID)
		}
		if err := r.Register(d.ID, d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// List returns enabled descriptors, optionally filtered by kind, in insertion order
func (r *RegistryImpl) List(kind *Kind) []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		entry := r.entries[id]
		if !entry.descriptor.Enabled {
			continue
		}
		if kind != nil && entry.descriptor.Kind != *kind {
			continue
		}
		out = append(out, entry.descriptor.Clone())
	}
	return out
}

// IDs returns the ids of enabled descriptors
func (r *RegistryImpl) IDs(kind *Kind) []string {
	descriptors := r.List(kind)
	ids := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		ids = append(ids, d.ID)
	}
	return ids
}

// Get returns the descriptor registered under id, enabled or not
func (r *RegistryImpl) Get(id string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[id]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrCapabilityNotFound, id)
	}
	return entry.descriptor.Clone(), nil
}

// GetCard returns the cached card or fetches it from the remote agent.
// A failed fetch is not cached so the next call retries.
func (r *RegistryImpl) GetCard(ctx context.Context, id string) (*Card, error) {
	r.mu.RLock()
	entry, ok := r.entries[id]
	if !ok || !entry.descriptor.Enabled || entry.descriptor.Kind != KindAgent {
		r.mu.RUnlock()
		return nil, fmt.Errorf("%w: no agent card for %s", ErrCapabilityNotFound, id)
	}
	if card, cached := r.cards[id]; cached {
		r.mu.RUnlock()
		r.logger.Debug("agent card cache hit", "id", id)
		return card, nil
	}
	descriptor := entry.descriptor.Clone()
	generation := entry.generation
	r.mu.RUnlock()

	if r.fetcher == nil {
		return nil, fmt.Errorf("%w: %s: no card fetcher configured", ErrFetchFailed, id)
	}

	r.logger.Info("fetching agent card", "id", id, "url", descriptor.Endpoint.URL)
	card, err := r.fetcher.FetchCard(ctx, descriptor)
	if err != nil {
		r.logger.Warn("agent card fetch failed", "id", id, "error", err)
		return nil, fmt.Errorf("%w: %s: %v", ErrFetchFailed, id, err)
	}
	if card == nil {
		return nil, fmt.Errorf("%w: %s: empty card", ErrFetchFailed, id)
	}
	if err := checkVersion(descriptor.VersionConstraint, card.Version); err != nil {
		r.logger.Warn("agent card version rejected", "id", id, "version", card.Version, "constraint", descriptor.VersionConstraint)
		return nil, fmt.Errorf("%w: %s: %v", ErrFetchFailed, id, err)
	}
	card.ID = id

	r.mu.Lock()
	defer r.mu.Unlock()
	// a register/unregister during the fetch invalidates this result
	if current, ok := r.entries[id]; ok && current.generation == generation {
		r.cards[id] = card
	}
	return card, nil
}

// Register inserts or replaces a descriptor and drops its cached card.
// It never connects a transport.
func (r *RegistryImpl) Register(id string, descriptor Descriptor) error {
	d := descriptor.Clone()
	if err := d.Normalize(id); err != nil {
		return err
	}
	if d.VersionConstraint != "" {
		if _, err := semver.NewConstraint(d.VersionConstraint); err != nil {
			return fmt.Errorf("%w: %s: version constraint: %v", ErrInvalidDescriptor, id, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.generation++
	if _, exists := r.entries[id]; !exists {
		r.order = append(r.order, id)
	}
	r.entries[id] = &registryEntry{descriptor: d, generation: r.generation}
	delete(r.cards, id)

	r.logger.Info("registered capability", "id", id, "kind", d.Kind, "transport", d.Transport, "enabled", d.Enabled)
	return nil
}

// Unregister removes a descriptor and its card. Unknown ids are ignored.
func (r *RegistryImpl) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return
	}
	delete(r.entries, id)
	delete(r.cards, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.logger.Info("unregistered capability", "id", id)
}

// SetEnabled toggles a descriptor and drops its cached card
func (r *RegistryImpl) SetEnabled(id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCapabilityNotFound, id)
	}
	r.generation++
	entry.descriptor.Enabled = enabled
	entry.generation = r.generation
	delete(r.cards, id)

	r.logger.Info("capability state changed", "id", id, "enabled", enabled)
	return nil
}

func checkVersion(constraint, version string) error {
	if constraint == "" {
		return nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return err
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("card version %q: %w", version, err)
	}
	if !c.Check(v) {
		return fmt.Errorf("card version %s does not satisfy %s", version, constraint)
	}
	return nil
}
