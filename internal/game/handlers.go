package game

import (
	"encoding/json"
	"log"
	"time"

	"marsvandals/internal/archive"
)

// Wire envelopes. Inbound messages carry their payload at the top level next
// to the "type" discriminator, so the typed structs embed the entity records.

type billboardDataMsg struct {
	Type string `json:"type"`
	Billboard
}

type billboardRemoveMsg struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type billboardRemovedMsg struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
}

type allBillboardsMsg struct {
	Type       string      `json:"type"`
	Billboards []Billboard `json:"billboards"`
}

type allPowerupsMsg struct {
	Type     string    `json:"type"`
	Powerups []Powerup `json:"powerups"`
}

type powerupSpawnedMsg struct {
	Type string `json:"type"`
	Powerup
}

type powerupCollectedMsg struct {
	Type      string `json:"type"`
	PowerupID string `json:"powerupId"`
	PlayerID  string `json:"playerId"`
}

type powerupRemovedMsg struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type playerSaveDataMsg struct {
	Type          string `json:"type"`
	PlayerID      string `json:"playerId"`
	Username      string `json:"username"`
	BillboardText string `json:"billboardText"`
	Position      *Vec3  `json:"position"`
	ShootingAmmo  int    `json:"shootingAmmo"`
	BillboardAmmo int    `json:"billboardAmmo"`
}

type playerSaveAmmoMsg struct {
	Type          string `json:"type"`
	PlayerID      string `json:"playerId"`
	ShootingAmmo  int    `json:"shootingAmmo"`
	BillboardAmmo int    `json:"billboardAmmo"`
}

type playerSaveBillboardTextMsg struct {
	Type          string `json:"type"`
	PlayerID      string `json:"playerId"`
	BillboardText string `json:"billboardText"`
}

type playerLoadDataMsg struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

type playerDataResponseMsg struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
	Found    bool   `json:"found"`
	*PlayerRecord
}

type terrainDataMsg struct {
	Type        string      `json:"type"`
	TerrainData TerrainData `json:"terrainData"`
}

// HandleMessage routes one inbound JSON message to its handler. Malformed
// payloads and missing required fields are logged and dropped; unknown types
// are relayed verbatim to every other connection.
func (w *World) HandleMessage(client *Client, raw []byte) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		log.Printf("Error parsing message from client %d: %v", client.ID, err)
		return
	}

	switch envelope.Type {
	case MsgBillboardData:
		w.handleBillboardData(client, raw)
	case MsgBillboardRemove:
		w.handleBillboardRemove(client, raw)
	case MsgRequestBillboards:
		w.handleRequestBillboards(client)
	case MsgRequestPowerups:
		w.handleRequestPowerups(client)
	case MsgPlayerSaveData:
		w.handlePlayerSaveData(client, raw)
	case MsgPlayerSaveAmmo:
		w.handlePlayerSaveAmmo(client, raw)
	case MsgPlayerSaveBillboard:
		w.handlePlayerSaveBillboardText(client, raw)
	case MsgPlayerLoadData:
		w.handlePlayerLoadData(client, raw)
	case MsgRequestTerrainData:
		w.handleRequestTerrainData(client)
	case MsgTerrainDataUpdate:
		w.handleTerrainDataUpdate(client, raw)
	case MsgPowerupCollected:
		w.handlePowerupCollected(client, raw)
	default:
		// Unknown types pass through to the other clients untouched.
		w.broadcastRaw(raw, client.ID)
	}
}

func (w *World) handleBillboardData(client *Client, raw []byte) {
	var msg billboardDataMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("Error parsing billboard_data from client %d: %v", client.ID, err)
		return
	}
	if msg.ID == "" {
		log.Printf("Dropping billboard_data without id from client %d", client.ID)
		return
	}
	if msg.Category == "" {
		msg.Category = CategoryPlayer
	}

	stored, created := w.registry.UpsertBillboard(msg.Billboard)

	// New billboards save synchronously; health/position churn during combat
	// saves probabilistically to bound disk writes.
	if created || w.shouldSaveFrequent() {
		w.saveBillboardCollection(stored.Category)
	}
	if created {
		w.recordEvent(archive.EventBillboardPlaced, stored.ID, stored.Owner)
	}

	w.BroadcastExcept(client.ID, billboardDataMsg{Type: MsgBillboardData, Billboard: stored})
}

func (w *World) handleBillboardRemove(client *Client, raw []byte) {
	var msg billboardRemoveMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("Error parsing billboard_remove from client %d: %v", client.ID, err)
		return
	}
	if msg.ID == "" {
		log.Printf("Dropping billboard_remove without id from client %d", client.ID)
		return
	}

	removed, ok := w.registry.RemoveBillboard(msg.ID)
	if !ok {
		log.Printf("billboard_remove for unknown id %s from client %d", msg.ID, client.ID)
		return
	}

	w.saveBillboardCollection(removed.Category)
	w.recordEvent(archive.EventBillboardRemoved, removed.ID, "")

	w.BroadcastExcept(client.ID, billboardRemovedMsg{
		Type:      MsgBillboardRemoved,
		ID:        removed.ID,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (w *World) handleRequestBillboards(client *Client) {
	// Self-heal any bot billboard that drifted out of the flat collection
	// before answering.
	if healed := w.registry.ReconcileBotBillboards(); healed > 0 {
		log.Printf("Re-added %d bot billboards missing from the flat collection", healed)
		w.store.SaveBotBillboards(w.registry.BotBillboards())
	}

	w.sendTo(client, allBillboardsMsg{
		Type:       MsgAllBillboards,
		Billboards: w.registry.Billboards(),
	})
}

func (w *World) handleRequestPowerups(client *Client) {
	now := time.Now().UnixMilli()
	live := make([]Powerup, 0)
	for _, p := range w.registry.Powerups() {
		if !p.Expired(now) {
			live = append(live, p)
		}
	}

	w.sendTo(client, allPowerupsMsg{Type: MsgAllPowerups, Powerups: live})
}

func (w *World) handlePlayerSaveData(client *Client, raw []byte) {
	var msg playerSaveDataMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("Error parsing player_save_data from client %d: %v", client.ID, err)
		return
	}
	if msg.PlayerID == "" {
		log.Printf("Dropping player_save_data without playerId from client %d", client.ID)
		return
	}

	_, existed := w.registry.Player(msg.PlayerID)
	w.registry.UpsertPlayerData(msg.PlayerID, PlayerRecord{
		Username:      msg.Username,
		BillboardText: msg.BillboardText,
		Position:      msg.Position,
		ShootingAmmo:  msg.ShootingAmmo,
		BillboardAmmo: msg.BillboardAmmo,
		LastUpdate:    time.Now().UnixMilli(),
	})

	// Position saves arrive continuously while a player moves.
	if !existed || w.shouldSaveFrequent() {
		w.store.SavePlayers(w.registry.Players())
	}
}

func (w *World) handlePlayerSaveAmmo(client *Client, raw []byte) {
	var msg playerSaveAmmoMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("Error parsing player_save_ammo from client %d: %v", client.ID, err)
		return
	}
	if msg.PlayerID == "" {
		log.Printf("Dropping player_save_ammo without playerId from client %d", client.ID)
		return
	}

	w.registry.UpsertPlayerAmmo(msg.PlayerID, msg.ShootingAmmo, msg.BillboardAmmo, time.Now().UnixMilli())

	// Ammo counters change on every shot; throttle like health updates.
	if w.shouldSaveFrequent() {
		w.store.SavePlayers(w.registry.Players())
	}
}

func (w *World) handlePlayerSaveBillboardText(client *Client, raw []byte) {
	var msg playerSaveBillboardTextMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("Error parsing player_save_billboard_text from client %d: %v", client.ID, err)
		return
	}
	if msg.PlayerID == "" {
		log.Printf("Dropping player_save_billboard_text without playerId from client %d", client.ID)
		return
	}

	w.registry.UpsertPlayerBillboardText(msg.PlayerID, msg.BillboardText, time.Now().UnixMilli())
	w.store.SavePlayers(w.registry.Players())
}

func (w *World) handlePlayerLoadData(client *Client, raw []byte) {
	var msg playerLoadDataMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("Error parsing player_load_data from client %d: %v", client.ID, err)
		return
	}
	if msg.PlayerID == "" {
		log.Printf("Dropping player_load_data without playerId from client %d", client.ID)
		return
	}

	response := playerDataResponseMsg{
		Type:     MsgPlayerDataResponse,
		PlayerID: msg.PlayerID,
	}
	// An unknown id is a first-time player, not an error.
	if rec, ok := w.registry.Player(msg.PlayerID); ok {
		response.Found = true
		response.PlayerRecord = &rec
	}

	w.sendTo(client, response)
}

func (w *World) handleRequestTerrainData(client *Client) {
	w.sendTo(client, terrainDataMsg{
		Type:        MsgTerrainData,
		TerrainData: w.registry.Terrain(),
	})
}

func (w *World) handleTerrainDataUpdate(client *Client, raw []byte) {
	var msg terrainDataMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("Error parsing terrain_data_update from client %d: %v", client.ID, err)
		return
	}

	// First non-empty submission wins; everything after is ignored so all
	// clients converge on one shared terrain.
	if !w.registry.SetTerrain(msg.TerrainData) {
		return
	}

	w.store.SaveTerrain(msg.TerrainData)
	w.recordEvent(archive.EventTerrainSubmitted, "", "")
	log.Printf("Stored terrain blob from client %d (seed %v)", client.ID, msg.TerrainData.Seed)
}

func (w *World) handlePowerupCollected(client *Client, raw []byte) {
	var msg powerupCollectedMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("Error parsing powerup_collected from client %d: %v", client.ID, err)
		return
	}
	if msg.PowerupID == "" {
		log.Printf("Dropping powerup_collected without powerupId from client %d", client.ID)
		return
	}

	removed, ok := w.registry.RemovePowerup(msg.PowerupID)
	if !ok {
		// Expected when two clients race for the same powerup; the loser's
		// request is silently dropped.
		log.Printf("powerup_collected for unknown id %s from client %d", msg.PowerupID, client.ID)
		return
	}

	w.store.SavePowerups(w.registry.Powerups())
	w.recordEvent(archive.EventPowerupCollected, removed.ID, msg.PlayerID)

	w.BroadcastExcept(client.ID, powerupRemovedMsg{Type: MsgPowerupRemoved, ID: removed.ID})
	w.spawner.NotifyPowerupRemoved(removed.Type)
}

// saveBillboardCollection persists the collection a billboard belongs to.
// Player and bot billboards live in separate files and never mix.
func (w *World) saveBillboardCollection(category string) {
	if category == CategoryBot {
		w.store.SaveBotBillboards(w.registry.BotBillboards())
		return
	}
	w.store.SaveBillboards(w.registry.PlayerBillboards())
}
