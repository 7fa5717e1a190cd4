package voice

import (
	"github.com/kalambet/sanctum/internal/storage"
)

// SnapshotLoader reads the persisted profile. Implemented by storage.Store.
type SnapshotLoader interface {
	LoadVoiceSnapshot() (storage.VoiceSnapshot, error)
}

// ProfileStore defines the persistence operations the voice package needs.
// Implemented by storage.Store.
type ProfileStore interface {
	SnapshotLoader
	SaveVoiceSnapshot(storage.VoiceSnapshot) error
}

// FromSnapshot builds a Profile from its persisted form. Unknown categories
// in the snapshot are dropped; absent categories stay empty.
func FromSnapshot(snap storage.VoiceSnapshot) Profile {
	p := NewProfile()
	p.TotalReflections = snap.TotalReflections
	p.LastEvolution = snap.LastEvolution
	for category, keys := range snap.Counts {
		dst := p.Category(category)
		if dst == nil {
			continue
		}
		for k, v := range keys {
			dst[k] = v
		}
	}
	return p
}

// Snapshot converts the profile to its persisted form. Empty categories are
// omitted; FromSnapshot(p.Snapshot()) round-trips all counts and scalars.
func (p *Profile) Snapshot() storage.VoiceSnapshot {
	snap := storage.VoiceSnapshot{
		Counts:           make(map[string]map[string]int),
		TotalReflections: p.TotalReflections,
		LastEvolution:    p.LastEvolution,
	}
	for _, category := range Categories {
		src := p.Category(category)
		if len(src) == 0 {
			continue
		}
		dst := make(map[string]int, len(src))
		for k, v := range src {
			dst[k] = v
		}
		snap.Counts[category] = dst
	}
	return snap
}

// Load reads the persisted profile from a store. A store with no saved
// profile yields an empty profile.
func Load(store SnapshotLoader) (Profile, error) {
	snap, err := store.LoadVoiceSnapshot()
	if err != nil {
		return Profile{}, err
	}
	return FromSnapshot(snap), nil
}
