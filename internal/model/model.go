// Package model holds the entity records shared by the game and persistence
// layers: what a billboard, powerup, player profile and terrain blob look like
// on the wire and on disk.
package model

// Billboard categories
const (
	CategoryPlayer = "player"
	CategoryBot    = "bot"
)

// Powerup types
const (
	PowerupShootingAmmo  = "shooting_ammo"
	PowerupBillboardAmmo = "billboard_ammo"
)

// Vec3 is a position or offset in world space
type Vec3 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

// Quat is an orientation quaternion
type Quat struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
	W float64 `json:"w" msgpack:"w"`
}

// Billboard is a placed flag/sign entity on the planet surface
type Billboard struct {
	ID         string  `json:"id" msgpack:"id"`
	Position   Vec3    `json:"position" msgpack:"position"`
	Quaternion Quat    `json:"quaternion" msgpack:"quaternion"`
	Width      float64 `json:"width" msgpack:"width"`
	Height     float64 `json:"height" msgpack:"height"`
	Health     int     `json:"health" msgpack:"health"`
	Text       string  `json:"text" msgpack:"text"`
	Color      string  `json:"color" msgpack:"color"`
	Owner      string  `json:"owner" msgpack:"owner"`
	PlayerID   string  `json:"player_id" msgpack:"player_id"`
	Category   string  `json:"billboard_category" msgpack:"billboard_category"`
	Timestamp  int64   `json:"timestamp" msgpack:"timestamp"`
}

// IsBot reports whether the billboard was placed by the spawner rather than a player.
func (b Billboard) IsBot() bool {
	return b.Category == CategoryBot
}

// Powerup is a time-limited collectible floating above the surface
type Powerup struct {
	ID          string  `json:"id" msgpack:"id"`
	Type        string  `json:"type" msgpack:"type"`
	Position    Vec3    `json:"position" msgpack:"position"`
	Quaternion  Quat    `json:"quaternion" msgpack:"quaternion"`
	Size        float64 `json:"size" msgpack:"size"`
	Color       string  `json:"color" msgpack:"color"`
	Lifespan    int64   `json:"lifespan" msgpack:"lifespan"`   // ms
	SpawnTime   int64   `json:"spawnTime" msgpack:"spawnTime"` // epoch ms
	IsCollected bool    `json:"isCollected" msgpack:"isCollected"`
}

// Expired reports whether the powerup has outlived its lifespan at the given time.
func (p Powerup) Expired(nowMillis int64) bool {
	return nowMillis-p.SpawnTime > p.Lifespan
}

// PlayerRecord is the persisted per-player profile keyed by a stable player id
type PlayerRecord struct {
	Username      string `json:"username" msgpack:"username"`
	BillboardText string `json:"billboardText" msgpack:"billboardText"`
	Position      *Vec3  `json:"position,omitempty" msgpack:"position"`
	ShootingAmmo  int    `json:"shootingAmmo" msgpack:"shootingAmmo"`
	BillboardAmmo int    `json:"billboardAmmo" msgpack:"billboardAmmo"`
	LastUpdate    int64  `json:"lastUpdate" msgpack:"lastUpdate"` // epoch ms
}

// TerrainData is the opaque deterministic generation result shared by all
// clients. The server never interprets the feature lists; it stores the first
// non-empty submission and replays it to later joiners.
type TerrainData struct {
	Seed    float64          `json:"seed" msgpack:"seed"`
	Craters []map[string]any `json:"craters" msgpack:"craters"`
	Rocks   []map[string]any `json:"rocks" msgpack:"rocks"`
	Towers  []map[string]any `json:"towers" msgpack:"towers"`
}

// IsEmpty reports whether the blob carries no generated features yet.
func (t TerrainData) IsEmpty() bool {
	return len(t.Craters) == 0 && len(t.Rocks) == 0 && len(t.Towers) == 0
}
