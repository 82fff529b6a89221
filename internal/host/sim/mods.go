package sim

import "github.com/xtding233/burst-helper/internal/host"

// RegisterMod adds a mod. Mods registered after Ready are initialized
// immediately.
func (s *Sim) RegisterMod(id string, mod host.Mod) {
	s.mu.Lock()
	s.mods = append(s.mods, registeredMod{id: id, mod: mod})
	ready := s.ready
	blob, hasBlob := s.saved[id]
	s.mu.Unlock()

	if ready {
		mod.Init()
		if hasBlob {
			mod.Load(blob)
		}
	}
}

// Ready marks the host as loaded and calls Init on every registered mod,
// then restores any blob stored by a previous LoadGame.
func (s *Sim) Ready() {
	s.mu.Lock()
	if s.ready {
		s.mu.Unlock()
		return
	}
	s.ready = true
	mods := append([]registeredMod(nil), s.mods...)
	saved := make(map[string]string, len(s.saved))
	for k, v := range s.saved {
		saved[k] = v
	}
	s.mu.Unlock()

	for _, m := range mods {
		m.mod.Init()
		if blob, ok := saved[m.id]; ok {
			m.mod.Load(blob)
		}
	}
}

// SaveGame collects every mod's blob, keyed by mod id.
func (s *Sim) SaveGame() map[string]string {
	s.mu.Lock()
	mods := append([]registeredMod(nil), s.mods...)
	s.mu.Unlock()

	out := make(map[string]string, len(mods))
	for _, m := range mods {
		out[m.id] = m.mod.Save()
	}
	s.mu.Lock()
	s.saved = out
	s.mu.Unlock()
	return out
}

// LoadGame hands each registered mod its blob. Before Ready the blobs are
// kept and delivered after Init.
func (s *Sim) LoadGame(blobs map[string]string) {
	s.mu.Lock()
	s.saved = make(map[string]string, len(blobs))
	for k, v := range blobs {
		s.saved[k] = v
	}
	ready := s.ready
	mods := append([]registeredMod(nil), s.mods...)
	s.mu.Unlock()

	if !ready {
		return
	}
	for _, m := range mods {
		if blob, ok := blobs[m.id]; ok {
			m.mod.Load(blob)
		}
	}
}
