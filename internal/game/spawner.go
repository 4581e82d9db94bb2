package game

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"marsvandals/internal/archive"
)

// BotSpawnConfig controls the bot billboard spawner.
type BotSpawnConfig struct {
	SpawnInterval time.Duration
	CheckInterval time.Duration
	MaxBots       int
	Messages      []string
	Colors        []string
	Sizes         []float64
}

// DefaultBotSpawnConfig returns the stock bot billboard spawning rules.
func DefaultBotSpawnConfig() BotSpawnConfig {
	return BotSpawnConfig{
		SpawnInterval: DefaultBotSpawnInterval,
		CheckInterval: DefaultBotCheckInterval,
		MaxBots:       DefaultMaxBotBillboards,
		Messages:      botBillboardMessages,
		Colors:        botBillboardColors,
		Sizes:         botBillboardSizes,
	}
}

// PowerupSpawnConfig controls one powerup type's spawner.
type PowerupSpawnConfig struct {
	Type          string
	SpawnInterval time.Duration
	MaxCount      int
	SpawnChance   float64
	Lifespan      time.Duration
	Size          float64
	Color         string
	Height        float64
}

// DefaultPowerupSpawnConfigs returns the stock per-type powerup rules.
func DefaultPowerupSpawnConfigs() []PowerupSpawnConfig {
	return []PowerupSpawnConfig{
		{
			Type:          PowerupShootingAmmo,
			SpawnInterval: DefaultPowerupSpawnInterval,
			MaxCount:      DefaultMaxPowerupsPerType,
			SpawnChance:   DefaultPowerupSpawnChance,
			Lifespan:      DefaultPowerupLifespan,
			Size:          DefaultPowerupSize,
			Color:         "#FFD93D",
			Height:        DefaultPowerupHeight,
		},
		{
			Type:          PowerupBillboardAmmo,
			SpawnInterval: DefaultPowerupSpawnInterval,
			MaxCount:      DefaultMaxPowerupsPerType,
			SpawnChance:   DefaultPowerupSpawnChance,
			Lifespan:      DefaultPowerupLifespan,
			Size:          DefaultPowerupSize,
			Color:         "#6BCB77",
			Height:        DefaultPowerupHeight,
		},
	}
}

// Spawner runs the autonomous background timers: bot billboard spawning, one
// spawner per powerup type, a periodic capacity check, and the powerup
// expiration sweep. Every timer holds an explicit stop channel so spawners
// can be stopped and restarted without orphaning goroutines.
type Spawner struct {
	world *World

	mu           sync.Mutex
	running      bool
	botStop      chan struct{}
	powerupStops map[string]chan struct{}
	checkStop    chan struct{}
	sweepStop    chan struct{}
}

// NewSpawner creates the spawner for a world. Timers start with Start.
func NewSpawner(w *World) *Spawner {
	return &Spawner{
		world:        w,
		powerupStops: make(map[string]chan struct{}),
	}
}

// Start launches the capacity check and expiration sweep timers and runs one
// immediate capacity check so a fresh world populates without waiting a full
// check interval.
func (s *Spawner) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.checkStop = make(chan struct{})
	s.sweepStop = make(chan struct{})
	s.mu.Unlock()

	s.checkCapacity()

	go s.checkLoop(s.checkStop)
	go s.sweepLoop(s.sweepStop)
}

// Stop halts every timer the spawner owns.
func (s *Spawner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false

	close(s.checkStop)
	close(s.sweepStop)
	if s.botStop != nil {
		close(s.botStop)
		s.botStop = nil
	}
	for powerupType, stop := range s.powerupStops {
		close(stop)
		delete(s.powerupStops, powerupType)
	}
}

// NotifyPowerupRemoved re-evaluates one powerup type's spawner after an
// external removal (a client collected it).
func (s *Spawner) NotifyPowerupRemoved(powerupType string) {
	for _, cfg := range s.world.cfg.Powerups {
		if cfg.Type != powerupType {
			continue
		}
		if s.world.registry.PowerupCount(cfg.Type) < cfg.MaxCount {
			s.startPowerupSpawner(cfg)
		}
		return
	}
}

// CheckNow forces a capacity check outside the periodic timer, used after the
// bulk bot-billboard upload which bypasses spawn gating.
func (s *Spawner) CheckNow() {
	s.checkCapacity()
}

func (s *Spawner) checkLoop(stop chan struct{}) {
	interval := s.world.cfg.Bots.CheckInterval
	if interval <= 0 {
		interval = DefaultBotCheckInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.checkCapacity()
		case <-stop:
			return
		}
	}
}

// checkCapacity drives the per-category state machine: start a spawner when
// its count is below the ceiling, stop it at the ceiling, and trim the oldest
// bot billboards when an external upload pushed the count over it.
func (s *Spawner) checkCapacity() {
	botCfg := s.world.cfg.Bots
	count := s.world.registry.BotBillboardCount()

	switch {
	case count > botCfg.MaxBots:
		s.trimBotBillboards(botCfg.MaxBots)
		s.stopBotSpawner()
	case count < botCfg.MaxBots:
		s.startBotSpawner()
	default:
		s.stopBotSpawner()
	}

	for _, cfg := range s.world.cfg.Powerups {
		if s.world.registry.PowerupCount(cfg.Type) < cfg.MaxCount {
			s.startPowerupSpawner(cfg)
		} else {
			s.stopPowerupSpawner(cfg.Type)
		}
	}
}

func (s *Spawner) trimBotBillboards(max int) {
	excess := s.world.registry.TrimBotBillboards(max)
	if len(excess) == 0 {
		return
	}

	log.Printf("Trimmed %d bot billboards over the ceiling of %d", len(excess), max)
	s.world.store.SaveBotBillboards(s.world.registry.BotBillboards())

	now := time.Now().UnixMilli()
	for _, b := range excess {
		s.world.recordEvent(archive.EventBillboardRemoved, b.ID, "trim")
		s.world.Broadcast(billboardRemovedMsg{Type: MsgBillboardRemoved, ID: b.ID, Timestamp: now})
	}
}

func (s *Spawner) startBotSpawner() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.botStop != nil {
		return
	}
	s.botStop = make(chan struct{})
	go s.botLoop(s.botStop)
}

func (s *Spawner) stopBotSpawner() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.botStop != nil {
		close(s.botStop)
		s.botStop = nil
	}
}

// releaseBotSpawner clears the handle when the loop stops itself.
func (s *Spawner) releaseBotSpawner(stop chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.botStop == stop {
		s.botStop = nil
	}
}

func (s *Spawner) botLoop(stop chan struct{}) {
	cfg := s.world.cfg.Bots

	ticker := time.NewTicker(cfg.SpawnInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.world.registry.BotBillboardCount() >= cfg.MaxBots {
				s.releaseBotSpawner(stop)
				return
			}
			s.SpawnBotBillboard()
		case <-stop:
			return
		}
	}
}

// SpawnBotBillboard places one spawner-owned billboard at a uniformly random
// surface point and announces it to every connected client.
func (s *Spawner) SpawnBotBillboard() Billboard {
	cfg := s.world.cfg.Bots
	now := time.Now().UnixMilli()

	position := RandomPointOnSphere(s.world.cfg.PlanetRadius, nil)
	size := pickFloat(cfg.Sizes, 5)

	billboard := Billboard{
		ID:         fmt.Sprintf("bot_%d_%d", now, rand.Intn(1000)),
		Position:   position,
		Quaternion: SurfaceOrientation(position),
		Width:      size,
		Height:     size,
		Health:     DefaultBotHealth,
		Text:       pickString(cfg.Messages, "MARS"),
		Color:      pickString(cfg.Colors, "#FF6B6B"),
		Owner:      "Mars Bot",
		PlayerID:   "bot",
		Category:   CategoryBot,
		Timestamp:  now,
	}

	stored, _ := s.world.registry.UpsertBillboard(billboard)
	s.world.store.SaveBotBillboards(s.world.registry.BotBillboards())
	s.world.recordEvent(archive.EventBillboardPlaced, stored.ID, "bot")
	s.world.Broadcast(billboardDataMsg{Type: MsgBillboardData, Billboard: stored})

	return stored
}

func (s *Spawner) startPowerupSpawner(cfg PowerupSpawnConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	if _, active := s.powerupStops[cfg.Type]; active {
		return
	}
	stop := make(chan struct{})
	s.powerupStops[cfg.Type] = stop
	go s.powerupLoop(cfg, stop)
}

func (s *Spawner) stopPowerupSpawner(powerupType string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stop, active := s.powerupStops[powerupType]; active {
		close(stop)
		delete(s.powerupStops, powerupType)
	}
}

func (s *Spawner) releasePowerupSpawner(powerupType string, stop chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, active := s.powerupStops[powerupType]; active && current == stop {
		delete(s.powerupStops, powerupType)
	}
}

func (s *Spawner) powerupLoop(cfg PowerupSpawnConfig, stop chan struct{}) {
	ticker := time.NewTicker(cfg.SpawnInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.world.registry.PowerupCount(cfg.Type) >= cfg.MaxCount {
				s.releasePowerupSpawner(cfg.Type, stop)
				return
			}
			// The chance gate makes spawn spacing irregular instead of
			// metronomic.
			if rand.Float64() >= cfg.SpawnChance {
				continue
			}
			s.SpawnPowerup(cfg)
		case <-stop:
			return
		}
	}
}

// SpawnPowerup creates one powerup of the configured type, floating above a
// uniformly random surface point.
func (s *Spawner) SpawnPowerup(cfg PowerupSpawnConfig) Powerup {
	now := time.Now().UnixMilli()

	surface := RandomPointOnSphere(s.world.cfg.PlanetRadius, nil)
	position := Lift(surface, cfg.Height)

	powerup := Powerup{
		ID:         fmt.Sprintf("powerup_%s_%d_%d", cfg.Type, now, rand.Intn(1000)),
		Type:       cfg.Type,
		Position:   position,
		Quaternion: SurfaceOrientation(surface),
		Size:       cfg.Size,
		Color:      cfg.Color,
		Lifespan:   cfg.Lifespan.Milliseconds(),
		SpawnTime:  now,
	}

	s.world.registry.AddPowerup(powerup)
	s.world.store.SavePowerups(s.world.registry.Powerups())
	s.world.recordEvent(archive.EventPowerupSpawned, powerup.ID, powerup.Type)
	s.world.Broadcast(powerupSpawnedMsg{Type: MsgPowerupSpawned, Powerup: powerup})

	return powerup
}

func (s *Spawner) sweepLoop(stop chan struct{}) {
	interval := s.world.cfg.SweepInterval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.SweepExpiredPowerups()
		case <-stop:
			return
		}
	}
}

// SweepExpiredPowerups removes every powerup past its lifespan, persisting
// once per sweep and broadcasting one removal event per expired item, then
// re-evaluates which spawners need restarting.
func (s *Spawner) SweepExpiredPowerups() int {
	now := time.Now().UnixMilli()

	expired := s.world.registry.ExpiredPowerups(now)
	removed := 0
	for _, p := range expired {
		if _, ok := s.world.registry.RemovePowerup(p.ID); !ok {
			continue
		}
		removed++
		s.world.recordEvent(archive.EventPowerupExpired, p.ID, p.Type)
		s.world.Broadcast(powerupRemovedMsg{Type: MsgPowerupRemoved, ID: p.ID})
	}

	if removed > 0 {
		s.world.store.SavePowerups(s.world.registry.Powerups())
		for _, cfg := range s.world.cfg.Powerups {
			if s.world.registry.PowerupCount(cfg.Type) < cfg.MaxCount {
				s.startPowerupSpawner(cfg)
			}
		}
	}
	return removed
}

func pickString(pool []string, fallback string) string {
	if len(pool) == 0 {
		return fallback
	}
	return pool[rand.Intn(len(pool))]
}

func pickFloat(pool []float64, fallback float64) float64 {
	if len(pool) == 0 {
		return fallback
	}
	return pool[rand.Intn(len(pool))]
}
