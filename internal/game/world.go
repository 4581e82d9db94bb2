package game

import (
	"encoding/json"
	"log"
	"math/rand"
	"sync"
	"time"

	"marsvandals/internal/archive"
	"marsvandals/internal/store"
)

// Config carries the tunables for the world and its spawners.
type Config struct {
	PlanetRadius float64

	// SaveProbability is the chance that a high-frequency mutation (billboard
	// health during combat, player position saves) triggers a disk write.
	// Structural changes always save.
	SaveProbability float64

	CheckpointInterval time.Duration

	Bots     BotSpawnConfig
	Powerups []PowerupSpawnConfig

	SweepInterval time.Duration
}

// DefaultConfig returns the stock world configuration.
func DefaultConfig() Config {
	return Config{
		PlanetRadius:       PlanetRadius,
		SaveProbability:    DefaultSaveProbability,
		CheckpointInterval: DefaultCheckpointInterval,
		Bots:               DefaultBotSpawnConfig(),
		Powerups:           DefaultPowerupSpawnConfigs(),
		SweepInterval:      DefaultSweepInterval,
	}
}

// World owns the live connections and the authoritative state registry, and
// routes every inbound message to its handler.
type World struct {
	cfg      Config
	registry *Registry
	store    *store.Store
	archive  *archive.Archive
	spawner  *Spawner

	mu      sync.RWMutex
	clients map[uint64]*Client
	nextID  uint64
	running bool
	stopped chan struct{}
}

// NewWorld creates a world backed by the given store. The archive may be nil.
func NewWorld(cfg Config, st *store.Store, ar *archive.Archive) *World {
	w := &World{
		cfg:      cfg,
		registry: NewRegistry(),
		store:    st,
		archive:  ar,
		clients:  make(map[uint64]*Client),
		nextID:   1,
	}
	w.spawner = NewSpawner(w)
	return w
}

// Registry exposes the state registry, mainly for the HTTP side-channel.
func (w *World) Registry() *Registry {
	return w.registry
}

// Store exposes the persistence layer for the HTTP side-channel.
func (w *World) Store() *store.Store {
	return w.store
}

// Archive exposes the event history, possibly nil.
func (w *World) Archive() *archive.Archive {
	return w.archive
}

// Spawner exposes the spawner engine for the HTTP side-channel.
func (w *World) Spawner() *Spawner {
	return w.spawner
}

// Start loads persisted state and launches the spawner and checkpoint timers.
func (w *World) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.stopped = make(chan struct{})
	stopped := w.stopped
	w.mu.Unlock()

	w.loadState()
	w.spawner.Start()
	go w.checkpointLoop(stopped)

	log.Println("World started")
}

// Stop halts the spawner timers and writes a final checkpoint.
func (w *World) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopped)
	w.mu.Unlock()

	w.spawner.Stop()
	w.WriteCheckpoint()
}

// loadState seeds the registry from the JSON collections. When every
// collection comes up empty but a checkpoint exists, the checkpoint wins:
// that is the signature of lost or wiped JSON files rather than a first run.
func (w *World) loadState() {
	billboards := w.store.LoadBillboards()
	bots := w.store.LoadBotBillboards()
	powerups := w.store.LoadPowerups()
	players := w.store.LoadPlayers()
	terrain := w.store.LoadTerrain()

	if len(billboards) == 0 && len(bots) == 0 && len(powerups) == 0 && len(players) == 0 && terrain == nil {
		if cp, ok := w.store.ReadCheckpoint(); ok {
			log.Printf("Restoring world from checkpoint written at %d", cp.WrittenAt)
			billboards = cp.Billboards
			bots = cp.BotBillboards
			powerups = cp.Powerups
			players = cp.Players
			terrain = cp.Terrain

			w.store.SaveBillboards(billboards)
			w.store.SaveBotBillboards(bots)
			w.store.SavePowerups(powerups)
			w.store.SavePlayers(players)
			if terrain != nil {
				w.store.SaveTerrain(*terrain)
			}
		}
	}

	w.registry.LoadBillboards(billboards, bots)
	w.registry.LoadPowerups(powerups)
	w.registry.LoadPlayers(players)
	w.registry.LoadTerrain(terrain)

	log.Printf("Loaded %d billboards, %d bot billboards, %d powerups, %d players",
		len(billboards), len(bots), len(powerups), len(players))
}

func (w *World) checkpointLoop(stop chan struct{}) {
	interval := w.cfg.CheckpointInterval
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.WriteCheckpoint()
		case <-stop:
			return
		}
	}
}

// WriteCheckpoint snapshots every collection into the binary checkpoint file.
func (w *World) WriteCheckpoint() {
	var terrain *TerrainData
	if w.registry.HasTerrain() {
		t := w.registry.Terrain()
		terrain = &t
	}

	w.store.WriteCheckpoint(store.Checkpoint{
		Billboards:    w.registry.PlayerBillboards(),
		BotBillboards: w.registry.BotBillboards(),
		Powerups:      w.registry.Powerups(),
		Players:       w.registry.Players(),
		Terrain:       terrain,
	})
}

// AddClient registers a new connection with the world.
func (w *World) AddClient(client *Client) {
	w.mu.Lock()
	defer w.mu.Unlock()

	client.ID = w.nextID
	w.nextID++
	w.clients[client.ID] = client

	log.Printf("Client %d connected (%d online)", client.ID, len(w.clients))
}

// RemoveClient deregisters a connection. The player's billboards stay in the
// world; billboards are placed objects, not session state.
func (w *World) RemoveClient(clientID uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if client, exists := w.clients[clientID]; exists {
		client.Close()
		delete(w.clients, clientID)
		log.Printf("Client %d disconnected (%d online)", clientID, len(w.clients))
	}
}

// ClientCount returns the number of live connections.
func (w *World) ClientCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.clients)
}

// Broadcast sends a message to every open connection.
func (w *World) Broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Error marshaling broadcast: %v", err)
		return
	}
	w.broadcastRaw(data, 0)
}

// BroadcastExcept sends a message to every open connection but the sender.
func (w *World) BroadcastExcept(senderID uint64, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Error marshaling broadcast: %v", err)
		return
	}
	w.broadcastRaw(data, senderID)
}

func (w *World) broadcastRaw(data []byte, skipID uint64) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for id, client := range w.clients {
		if id == skipID {
			continue
		}
		client.TrySend(data)
	}
}

// sendTo replies to a single client.
func (w *World) sendTo(client *Client, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Error marshaling reply for client %d: %v", client.ID, err)
		return
	}
	if !client.TrySend(data) {
		log.Printf("Could not send reply to client %d", client.ID)
	}
}

// shouldSaveFrequent applies the throttled-save policy for high-frequency
// mutations. Structural changes bypass this and save unconditionally.
func (w *World) shouldSaveFrequent() bool {
	return rand.Float64() < w.cfg.SaveProbability
}

func (w *World) recordEvent(event, entityID, detail string) {
	w.archive.Record(event, entityID, detail)
}
