package capability

import (
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"toolhub/pkg/logging"
)

// syntheticCategoryOrder sorts categories that were referenced but never
// registered after all registered ones.
const syntheticCategoryOrder = 1000

// Listener receives registry changes. It runs on the goroutine that performed
// the mutation, after the registry lock has been released, and must not block.
type Listener func(Change)

// Registry is the in-memory catalog of capabilities and categories.
//
// A single RWMutex guards both maps: every mutation holds the write lock for
// its whole duration, so readers never observe a partially applied change.
// All read methods return copies.
type Registry struct {
	mu           sync.RWMutex
	capabilities map[string]Definition
	categories   map[string]Category
	revision     uint64

	listenersMu    sync.Mutex
	listeners      map[uint64]Listener
	nextListenerID uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		capabilities: make(map[string]Definition),
		categories:   make(map[string]Category),
		listeners:    make(map[uint64]Listener),
	}
}

// Register inserts def, replacing any existing definition with the same type.
func (r *Registry) Register(def Definition) {
	r.mu.Lock()
	if _, exists := r.capabilities[def.Type]; exists {
		logging.Warn("Registry", "Overwriting existing capability %s", def.Type)
	}
	r.capabilities[def.Type] = def.clone()
	r.revision++
	change := Change{Kind: ChangeRegistered, Types: []string{def.Type}, Revision: r.revision}
	r.mu.Unlock()

	r.notify(change)
}

// RegisterAll inserts every definition under one lock and emits a single
// change notification. An empty slice is a no-op.
func (r *Registry) RegisterAll(defs []Definition) {
	if len(defs) == 0 {
		return
	}

	types := make([]string, 0, len(defs))
	r.mu.Lock()
	for _, def := range defs {
		if _, exists := r.capabilities[def.Type]; exists {
			logging.Warn("Registry", "Overwriting existing capability %s", def.Type)
		}
		r.capabilities[def.Type] = def.clone()
		types = append(types, def.Type)
	}
	r.revision++
	change := Change{Kind: ChangeRegistered, Types: types, Revision: r.revision}
	r.mu.Unlock()

	logging.Debug("Registry", "Registered %d capabilities", len(defs))
	r.notify(change)
}

// Unregister removes a capability. It reports whether anything was removed;
// removing an absent type is a no-op and emits no notification.
func (r *Registry) Unregister(capType string) bool {
	r.mu.Lock()
	if _, exists := r.capabilities[capType]; !exists {
		r.mu.Unlock()
		return false
	}
	delete(r.capabilities, capType)
	r.revision++
	change := Change{Kind: ChangeUnregistered, Types: []string{capType}, Revision: r.revision}
	r.mu.Unlock()

	r.notify(change)
	return true
}

// UnregisterByOwner removes every capability whose PluginOwner equals owner
// and returns the removed type keys, sorted. Owners with no entries are a
// no-op.
func (r *Registry) UnregisterByOwner(owner string) []string {
	if owner == "" {
		return nil
	}

	r.mu.Lock()
	var removed []string
	for capType, def := range r.capabilities {
		if def.PluginOwner == owner {
			removed = append(removed, capType)
		}
	}
	if len(removed) == 0 {
		r.mu.Unlock()
		return nil
	}
	for _, capType := range removed {
		delete(r.capabilities, capType)
	}
	sort.Strings(removed)
	r.revision++
	change := Change{Kind: ChangeUnregistered, Types: removed, Revision: r.revision}
	r.mu.Unlock()

	logging.Debug("Registry", "Unregistered %d capabilities owned by %s", len(removed), owner)
	r.notify(change)
	return removed
}

// RegisterCategory inserts or replaces a category.
func (r *Registry) RegisterCategory(cat Category) {
	r.mu.Lock()
	r.categories[cat.ID] = cat
	r.revision++
	change := Change{Kind: ChangeCategoryRegistered, Types: []string{cat.ID}, Revision: r.revision}
	r.mu.Unlock()

	r.notify(change)
}

// HasCategory reports whether a category with the given id was registered.
func (r *Registry) HasCategory(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.categories[id]
	return ok
}

// Get returns the capability with the given type.
func (r *Registry) Get(capType string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.capabilities[capType]
	if !ok {
		return Definition{}, false
	}
	return def.clone(), true
}

// GetAll returns every capability sorted by type.
func (r *Registry) GetAll() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(Definition) bool { return true })
}

// GetByCategory returns the capabilities of one category sorted by type.
func (r *Registry) GetByCategory(category string) []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(d Definition) bool { return d.Category == category })
}

// GetByOwner returns the capabilities registered by one plugin.
func (r *Registry) GetByOwner(owner string) []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(d Definition) bool { return d.PluginOwner == owner })
}

// GetGroupedByCategory returns non-empty categories in category order, each
// with its capabilities sorted by type.
func (r *Registry) GetGroupedByCategory() []Group {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byCategory := make(map[string][]Definition)
	for _, def := range r.capabilities {
		byCategory[def.Category] = append(byCategory[def.Category], def.clone())
	}

	groups := make([]Group, 0, len(byCategory))
	for id, defs := range byCategory {
		sortDefinitions(defs)
		groups = append(groups, Group{Category: r.resolveCategory(id), Capabilities: defs})
	}
	sort.Slice(groups, func(i, j int) bool {
		return categoryLess(groups[i].Category, groups[j].Category)
	})
	return groups
}

// GetCategories returns registered categories plus synthesized entries for
// category ids that are referenced by capabilities but were never
// registered, sorted by order and then id.
func (r *Registry) GetCategories() []Category {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool, len(r.categories))
	cats := make([]Category, 0, len(r.categories))
	for id, cat := range r.categories {
		seen[id] = true
		cats = append(cats, cat)
	}
	for _, def := range r.capabilities {
		if def.Category == "" || seen[def.Category] {
			continue
		}
		seen[def.Category] = true
		cats = append(cats, r.resolveCategory(def.Category))
	}
	sort.Slice(cats, func(i, j int) bool { return categoryLess(cats[i], cats[j]) })
	return cats
}

// Category resolves category metadata at read time. Unknown ids get a
// synthesized category.
func (r *Registry) Category(id string) Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveCategory(id)
}

// Count returns the number of registered capabilities.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.capabilities)
}

// CountByOwner returns the number of capabilities registered by owner.
func (r *Registry) CountByOwner(owner string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, def := range r.capabilities {
		if def.PluginOwner == owner {
			n++
		}
	}
	return n
}

// Revision returns the revision of the last applied mutation.
func (r *Registry) Revision() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.revision
}

// Search returns capabilities whose label, description, tags, type or
// category contain query, case-insensitively. An empty query returns all.
func (r *Registry) Search(query string) []Definition {
	q := strings.ToLower(strings.TrimSpace(query))

	r.mu.RLock()
	defer r.mu.RUnlock()
	if q == "" {
		return r.collect(func(Definition) bool { return true })
	}
	return r.collect(func(d Definition) bool { return matches(d, q) })
}

// Subscribe registers a listener and returns a function that removes it.
// The returned function is safe to call more than once.
func (r *Registry) Subscribe(listener Listener) func() {
	r.listenersMu.Lock()
	id := r.nextListenerID
	r.nextListenerID++
	r.listeners[id] = listener
	r.listenersMu.Unlock()

	return func() {
		r.listenersMu.Lock()
		delete(r.listeners, id)
		r.listenersMu.Unlock()
	}
}

func (r *Registry) notify(change Change) {
	r.listenersMu.Lock()
	listeners := make([]Listener, 0, len(r.listeners))
	for _, l := range r.listeners {
		listeners = append(listeners, l)
	}
	r.listenersMu.Unlock()

	for _, l := range listeners {
		r.deliver(l, change)
	}
}

func (r *Registry) deliver(l Listener, change Change) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Warn("Registry", "Listener panicked on revision %d: %v", change.Revision, rec)
		}
	}()
	l(change)
}

// collect must be called with at least the read lock held.
func (r *Registry) collect(keep func(Definition) bool) []Definition {
	out := make([]Definition, 0, len(r.capabilities))
	for _, def := range r.capabilities {
		if keep(def) {
			out = append(out, def.clone())
		}
	}
	sortDefinitions(out)
	return out
}

// resolveCategory must be called with at least the read lock held.
func (r *Registry) resolveCategory(id string) Category {
	if cat, ok := r.categories[id]; ok {
		return cat
	}
	return Category{
		ID:    id,
		Label: humanizeID(id),
		Order: syntheticCategoryOrder,
	}
}

func matches(d Definition, q string) bool {
	if strings.Contains(strings.ToLower(d.Label), q) ||
		strings.Contains(strings.ToLower(d.Description), q) ||
		strings.Contains(strings.ToLower(d.Type), q) ||
		strings.Contains(strings.ToLower(d.Category), q) {
		return true
	}
	for _, tag := range d.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func sortDefinitions(defs []Definition) {
	sort.Slice(defs, func(i, j int) bool { return defs[i].Type < defs[j].Type })
}

func categoryLess(a, b Category) bool {
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	return a.ID < b.ID
}

func humanizeID(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || r == ' '
	})
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
