package game

import (
	"sync"

	"github.com/gorilla/websocket"

	"marsvandals/internal/model"
)

// The entity records live in the model package so the persistence layer can
// share them without importing the game loop; re-export the names here.
type (
	Vec3         = model.Vec3
	Quat         = model.Quat
	Billboard    = model.Billboard
	Powerup      = model.Powerup
	PlayerRecord = model.PlayerRecord
	TerrainData  = model.TerrainData
)

// Billboard categories
const (
	CategoryPlayer = model.CategoryPlayer
	CategoryBot    = model.CategoryBot
)

// Powerup types
const (
	PowerupShootingAmmo  = model.PowerupShootingAmmo
	PowerupBillboardAmmo = model.PowerupBillboardAmmo
)

// Message types for client-server communication
const (
	MsgBillboardData       = "billboard_data"
	MsgBillboardRemove     = "billboard_remove"
	MsgRequestBillboards   = "request_billboards"
	MsgRequestPowerups     = "request_powerups"
	MsgPlayerSaveData      = "player_save_data"
	MsgPlayerSaveAmmo      = "player_save_ammo"
	MsgPlayerSaveBillboard = "player_save_billboard_text"
	MsgPlayerLoadData      = "player_load_data"
	MsgRequestTerrainData  = "request_terrain_data"
	MsgTerrainDataUpdate   = "terrain_data_update"
	MsgPowerupCollected    = "powerup_collected"

	MsgBillboardRemoved   = "billboard_removed"
	MsgAllBillboards      = "all_billboards"
	MsgAllPowerups        = "all_powerups"
	MsgPlayerDataResponse = "player_data_response"
	MsgTerrainData        = "terrain_data"
	MsgPowerupSpawned     = "powerup_spawned"
	MsgPowerupRemoved     = "powerup_removed"
)

// Client represents a connected game client
type Client struct {
	ID   uint64
	Conn *websocket.Conn
	Send chan []byte

	mu     sync.Mutex
	closed bool
}

// NewClient creates a new client around an upgraded connection
func NewClient(id uint64, conn *websocket.Conn) *Client {
	return &Client{
		ID:   id,
		Conn: conn,
		Send: make(chan []byte, 256),
	}
}

// TrySend queues a payload for the client without blocking. Sends to a closed
// or backlogged client are dropped.
func (c *Client) TrySend(data []byte) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()

	select {
	case c.Send <- data:
		return true
	default:
		// Channel full, skip this client
		return false
	}
}

// Close marks the client closed and releases its send channel.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}
