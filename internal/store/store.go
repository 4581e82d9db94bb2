// Package store persists the world collections as flat JSON files, one file
// per collection. Saves are full-file rewrites; callers throttle them. Every
// failure is logged and swallowed so a corrupt or unwritable file degrades
// that collection to in-memory-only operation instead of crashing the server.
package store

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"marsvandals/internal/model"
)

// Collection file names inside the data directory.
const (
	BillboardsFile    = "billboards.json"
	BotBillboardsFile = "bot_billboards.json"
	PowerupsFile      = "powerups.json"
	PlayersFile       = "players.json"
	TerrainFile       = "terrain.json"
)

// Store reads and writes the world collections under a single data directory.
type Store struct {
	dir string
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string) *Store {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("Error creating data directory %s: %v", dir, err)
	}
	return &Store{dir: dir}
}

// Dir returns the data directory the store writes into.
func (s *Store) Dir() string {
	return s.dir
}

// LoadBillboards reads the player billboard collection.
func (s *Store) LoadBillboards() []model.Billboard {
	var out []model.Billboard
	s.load(BillboardsFile, &out, []model.Billboard{})
	return out
}

// SaveBillboards rewrites the player billboard collection.
func (s *Store) SaveBillboards(billboards []model.Billboard) {
	s.save(BillboardsFile, billboards)
}

// LoadBotBillboards reads the bot billboard collection.
func (s *Store) LoadBotBillboards() []model.Billboard {
	var out []model.Billboard
	s.load(BotBillboardsFile, &out, []model.Billboard{})
	return out
}

// SaveBotBillboards rewrites the bot billboard collection.
func (s *Store) SaveBotBillboards(billboards []model.Billboard) {
	s.save(BotBillboardsFile, billboards)
}

// LoadPowerups reads the powerup collection.
func (s *Store) LoadPowerups() []model.Powerup {
	var out []model.Powerup
	s.load(PowerupsFile, &out, []model.Powerup{})
	return out
}

// SavePowerups rewrites the powerup collection.
func (s *Store) SavePowerups(powerups []model.Powerup) {
	s.save(PowerupsFile, powerups)
}

// LoadPlayers reads the id-keyed player record map.
func (s *Store) LoadPlayers() map[string]model.PlayerRecord {
	out := make(map[string]model.PlayerRecord)
	s.load(PlayersFile, &out, map[string]model.PlayerRecord{})
	return out
}

// SavePlayers rewrites the player record map.
func (s *Store) SavePlayers(players map[string]model.PlayerRecord) {
	s.save(PlayersFile, players)
}

// LoadTerrain reads the terrain blob. Returns nil when no usable blob exists.
func (s *Store) LoadTerrain() *model.TerrainData {
	var out model.TerrainData
	if !s.load(TerrainFile, &out, model.TerrainData{}) {
		return nil
	}
	if out.IsEmpty() {
		return nil
	}
	return &out
}

// SaveTerrain rewrites the terrain blob.
func (s *Store) SaveTerrain(t model.TerrainData) {
	s.save(TerrainFile, t)
}

// load reads one collection file into dst. A missing file bootstraps an empty
// file with the provided initial value so the file always exists after first
// run. Returns whether dst now holds data read from disk.
func (s *Store) load(name string, dst any, empty any) bool {
	path := filepath.Join(s.dir, name)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s.save(name, empty)
		return false
	}
	if err != nil {
		log.Printf("Error reading %s: %v", path, err)
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		log.Printf("Error parsing %s: %v", path, err)
		return false
	}
	return true
}

// save rewrites one collection file in full.
func (s *Store) save(name string, v any) {
	path := filepath.Join(s.dir, name)

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("Error marshaling %s: %v", name, err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("Error writing %s: %v", path, err)
	}
}
