// Package flags holds the feature switches read from the `flags` config section.
// The registry is read-only after construction and unknown names read as off.
package flags

import (
	"maps"
	"slices"

	"github.com/zjrosen/lootbox/internal/log"
)

const (
	// FlagVerifyLoot logs every loot name that has no model once a session settles.
	FlagVerifyLoot = "verify-loot"

	// FlagJournal records every settled session to the SQLite journal.
	FlagJournal = "journal"
)

// Defaults returns the flag values used when the config file does not set them.
func Defaults() map[string]bool {
	return map[string]bool{
		FlagVerifyLoot: true,
		FlagJournal:    false,
	}
}

// Registry holds feature flag state.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from configured values layered over Defaults.
func New(configured map[string]bool) *Registry {
	flags := Defaults()
	maps.Copy(flags, configured)
	r := &Registry{flags: flags}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(flags), "flags", r.All())
	return r
}

// Enabled reports whether name is on. Unknown flags and a nil registry read as off.
func (r *Registry) Enabled(name string) bool {
	if r == nil || r.flags == nil {
		return false
	}
	value, exists := r.flags[name]
	if !exists {
		log.Debug(log.CatConfig, "Unknown flag accessed", "flag", name)
		return false
	}
	return value
}

// All returns a copy of every flag.
func (r *Registry) All() map[string]bool {
	if r == nil || r.flags == nil {
		return make(map[string]bool)
	}
	return maps.Clone(r.flags)
}

// Names returns the flag names, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.All()))
}
