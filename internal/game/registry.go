package game

import (
	"sort"
	"sync"
)

// Registry owns the authoritative world collections. All access goes through
// its methods so the billboard category, powerup index and terrain invariants
// hold no matter which goroutine (message handler or spawner) is mutating.
type Registry struct {
	mu             sync.RWMutex
	billboards     map[string]Billboard // flat collection, player and bot
	botBillboards  map[string]Billboard // bot-only mirror, persisted separately
	powerups       map[string]Powerup
	powerupsByType map[string]map[string]Powerup
	players        map[string]PlayerRecord
	terrain        *TerrainData
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		billboards:     make(map[string]Billboard),
		botBillboards:  make(map[string]Billboard),
		powerups:       make(map[string]Powerup),
		powerupsByType: make(map[string]map[string]Powerup),
		players:        make(map[string]PlayerRecord),
	}
}

// LoadBillboards seeds the billboard collections from persisted state.
func (r *Registry) LoadBillboards(playerBillboards, botBillboards []Billboard) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range playerBillboards {
		b.Category = CategoryPlayer
		r.billboards[b.ID] = b
	}
	for _, b := range botBillboards {
		b.Category = CategoryBot
		r.billboards[b.ID] = b
		r.botBillboards[b.ID] = b
	}
}

// LoadPowerups seeds the powerup collections from persisted state.
func (r *Registry) LoadPowerups(powerups []Powerup) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range powerups {
		r.powerups[p.ID] = p
		r.indexPowerupLocked(p)
	}
}

// LoadPlayers seeds the player records from persisted state.
func (r *Registry) LoadPlayers(players map[string]PlayerRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, rec := range players {
		r.players[id] = rec
	}
}

// LoadTerrain seeds the terrain blob from persisted state. Empty blobs are
// ignored so a bootstrap placeholder file never blocks the first real upload.
func (r *Registry) LoadTerrain(t *TerrainData) {
	if t == nil || t.IsEmpty() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.terrain = t
}

// UpsertBillboard inserts or updates a billboard and returns the canonical
// stored record. For an existing player billboard the original text and owner
// survive whatever the incoming payload carries; bot billboards are replaced
// wholesale. The second result reports whether this was a new entity.
func (r *Registry) UpsertBillboard(b Billboard) (Billboard, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.billboards[b.ID]
	if ok && existing.Category == CategoryPlayer {
		b.Text = existing.Text
		b.Owner = existing.Owner
		b.Category = CategoryPlayer
	}
	// An update can never flip a bot entry to the player category; that would
	// strand the stale record in the bot mirror and leak the id into both
	// persistence files.
	if ok && existing.IsBot() {
		b.Category = CategoryBot
	}

	r.billboards[b.ID] = b
	if b.IsBot() {
		r.botBillboards[b.ID] = b
	}
	return b, !ok
}

// RemoveBillboard deletes a billboard by id from the flat collection and, for
// bots, the bot mirror. It returns the removed record when one existed.
func (r *Registry) RemoveBillboard(id string) (Billboard, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.billboards[id]
	if !ok {
		// A bot entry can linger in the mirror if the collections drifted.
		b, ok = r.botBillboards[id]
		if !ok {
			return Billboard{}, false
		}
	}
	delete(r.billboards, id)
	delete(r.botBillboards, id)
	return b, true
}

// Billboards returns a snapshot of the flat billboard collection.
func (r *Registry) Billboards() []Billboard {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Billboard, 0, len(r.billboards))
	for _, b := range r.billboards {
		out = append(out, b)
	}
	return out
}

// PlayerBillboards returns only player-placed billboards, for persistence.
func (r *Registry) PlayerBillboards() []Billboard {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Billboard, 0, len(r.billboards))
	for _, b := range r.billboards {
		if !b.IsBot() {
			out = append(out, b)
		}
	}
	return out
}

// BotBillboards returns the bot billboard collection, for persistence.
func (r *Registry) BotBillboards() []Billboard {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Billboard, 0, len(r.botBillboards))
	for _, b := range r.botBillboards {
		out = append(out, b)
	}
	return out
}

// BotBillboardCount returns the number of tracked bot billboards.
func (r *Registry) BotBillboardCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.botBillboards)
}

// ReconcileBotBillboards re-adds any bot billboard tracked in the bot mirror
// but missing from the flat collection. Returns how many entries were healed.
func (r *Registry) ReconcileBotBillboards() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	healed := 0
	for id, b := range r.botBillboards {
		if _, ok := r.billboards[id]; !ok {
			r.billboards[id] = b
			healed++
		}
	}
	return healed
}

// ReplaceBotBillboards swaps in an externally curated bot collection. Every
// previous bot entry leaves both collections; the new entries are forced to
// the bot category. Returns the ids that were removed.
func (r *Registry) ReplaceBotBillboards(bots []Billboard) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := make([]string, 0, len(r.botBillboards))
	for id := range r.botBillboards {
		removed = append(removed, id)
		delete(r.billboards, id)
	}
	r.botBillboards = make(map[string]Billboard, len(bots))

	for _, b := range bots {
		b.Category = CategoryBot
		r.botBillboards[b.ID] = b
		r.billboards[b.ID] = b
	}
	return removed
}

// TrimBotBillboards removes the oldest bot billboards until at most max
// remain, returning the removed records oldest-first. A collection already at
// or under the ceiling is left untouched.
func (r *Registry) TrimBotBillboards(max int) []Billboard {
	r.mu.Lock()
	defer r.mu.Unlock()

	if max < 0 || len(r.botBillboards) <= max {
		return nil
	}

	bots := make([]Billboard, 0, len(r.botBillboards))
	for _, b := range r.botBillboards {
		bots = append(bots, b)
	}
	sort.Slice(bots, func(i, j int) bool {
		if bots[i].Timestamp == bots[j].Timestamp {
			return bots[i].ID < bots[j].ID
		}
		return bots[i].Timestamp < bots[j].Timestamp
	})

	excess := bots[:len(bots)-max]
	for _, b := range excess {
		delete(r.botBillboards, b.ID)
		delete(r.billboards, b.ID)
	}
	return excess
}

// AddPowerup inserts a powerup into the flat and type-partitioned collections.
func (r *Registry) AddPowerup(p Powerup) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.powerups[p.ID] = p
	r.indexPowerupLocked(p)
}

// RemovePowerup deletes a powerup from both collections. A miss is a benign
// no-op so two clients racing to collect the same powerup cannot double-remove.
func (r *Registry) RemovePowerup(id string) (Powerup, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.powerups[id]
	if !ok {
		return Powerup{}, false
	}
	delete(r.powerups, id)
	if byType, ok := r.powerupsByType[p.Type]; ok {
		delete(byType, id)
	}
	return p, true
}

// Powerups returns a snapshot of all live powerups.
func (r *Registry) Powerups() []Powerup {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Powerup, 0, len(r.powerups))
	for _, p := range r.powerups {
		out = append(out, p)
	}
	return out
}

// PowerupCount returns the number of live powerups of the given type.
func (r *Registry) PowerupCount(powerupType string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.powerupsByType[powerupType])
}

// ExpiredPowerups returns the powerups whose lifespan elapsed before now.
func (r *Registry) ExpiredPowerups(nowMillis int64) []Powerup {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Powerup
	for _, p := range r.powerups {
		if p.Expired(nowMillis) {
			out = append(out, p)
		}
	}
	return out
}

func (r *Registry) indexPowerupLocked(p Powerup) {
	byType, ok := r.powerupsByType[p.Type]
	if !ok {
		byType = make(map[string]Powerup)
		r.powerupsByType[p.Type] = byType
	}
	byType[p.ID] = p
}

// UpsertPlayerData overwrites a player's profile fields from a full save.
func (r *Registry) UpsertPlayerData(id string, rec PlayerRecord) PlayerRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.players[id]
	current.Username = rec.Username
	current.BillboardText = rec.BillboardText
	if rec.Position != nil {
		current.Position = rec.Position
	}
	current.ShootingAmmo = rec.ShootingAmmo
	current.BillboardAmmo = rec.BillboardAmmo
	current.LastUpdate = rec.LastUpdate
	r.players[id] = current
	return current
}

// UpsertPlayerAmmo updates only the ammo counters of a player record.
func (r *Registry) UpsertPlayerAmmo(id string, shooting, billboard int, nowMillis int64) PlayerRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.players[id]
	current.ShootingAmmo = shooting
	current.BillboardAmmo = billboard
	current.LastUpdate = nowMillis
	r.players[id] = current
	return current
}

// UpsertPlayerBillboardText updates only the billboard text of a player record.
func (r *Registry) UpsertPlayerBillboardText(id, text string, nowMillis int64) PlayerRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.players[id]
	current.BillboardText = text
	current.LastUpdate = nowMillis
	r.players[id] = current
	return current
}

// Player looks up a persisted player record by id.
func (r *Registry) Player(id string) (PlayerRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.players[id]
	return rec, ok
}

// Players returns a copy of the player record map, for persistence.
func (r *Registry) Players() map[string]PlayerRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]PlayerRecord, len(r.players))
	for id, rec := range r.players {
		out[id] = rec
	}
	return out
}

// SetTerrain stores the first non-empty terrain blob. Later submissions are
// ignored so every client converges on one shared terrain. Returns whether the
// submission was accepted.
func (r *Registry) SetTerrain(t TerrainData) bool {
	if t.IsEmpty() {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.terrain != nil {
		return false
	}
	stored := t
	r.terrain = &stored
	return true
}

// Terrain returns the stored terrain blob, or an empty placeholder when no
// client has submitted one yet.
func (r *Registry) Terrain() TerrainData {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.terrain == nil {
		return TerrainData{
			Craters: []map[string]any{},
			Rocks:   []map[string]any{},
			Towers:  []map[string]any{},
		}
	}
	return *r.terrain
}

// HasTerrain reports whether a non-empty terrain blob has been stored.
func (r *Registry) HasTerrain() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.terrain != nil
}
