package game

import "time"

// World constants
const (
	// PlanetRadius matches the sphere the client renders; billboards sit on
	// the surface and powerups float slightly above it.
	PlanetRadius = 100.0

	DefaultSaveProbability    = 0.3
	DefaultCheckpointInterval = 60 * time.Second
	DefaultSweepInterval      = 5 * time.Second
)

// Bot billboard spawning defaults
const (
	DefaultBotSpawnInterval = 15 * time.Second
	DefaultBotCheckInterval = 30 * time.Second
	DefaultMaxBotBillboards = 20
	DefaultBotHealth        = 100
)

// Powerup spawning defaults
const (
	DefaultPowerupSpawnInterval = 10 * time.Second
	DefaultMaxPowerupsPerType   = 5
	DefaultPowerupSpawnChance   = 0.7
	DefaultPowerupLifespan      = 60 * time.Second
	DefaultPowerupSize          = 2.0
	DefaultPowerupHeight        = 3.0
)

var botBillboardMessages = []string{
	"MARS WAS HERE",
	"RED PLANET RULES",
	"EARTHLINGS GO HOME",
	"VANDALIZE RESPONSIBLY",
	"LOW GRAVITY ZONE",
	"DUST STORM AHEAD",
	"COLONIZE THIS",
	"NO PARKING ON CRATERS",
}

var botBillboardColors = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4",
	"#FFEAA7", "#DDA0DD", "#98D8C8", "#F7DC6F",
}

var botBillboardSizes = []float64{4, 5, 6, 8}
