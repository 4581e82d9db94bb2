package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"marsvandals/internal/model"
)

func TestLoadBootstrapsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	if got := s.LoadBillboards(); len(got) != 0 {
		t.Fatalf("fresh load returned %d billboards, want 0", len(got))
	}
	if got := s.LoadPlayers(); len(got) != 0 {
		t.Fatalf("fresh load returned %d players, want 0", len(got))
	}

	// After first load the files exist, holding empty collections.
	for _, name := range []string{BillboardsFile, PlayersFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not bootstrapped: %v", name, err)
		}
	}
}

func TestBillboardFileIsolation(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	players := make([]model.Billboard, 5)
	bots := make([]model.Billboard, 5)
	for i := range players {
		players[i] = model.Billboard{ID: "p" + string(rune('0'+i)), Category: model.CategoryPlayer}
		bots[i] = model.Billboard{ID: "bot_" + string(rune('0'+i)), Category: model.CategoryBot}
	}
	s.SaveBillboards(players)
	s.SaveBotBillboards(bots)

	readFile := func(name string) []model.Billboard {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		var out []model.Billboard
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		return out
	}

	playerFile := readFile(BillboardsFile)
	botFile := readFile(BotBillboardsFile)
	if len(playerFile) != 5 || len(botFile) != 5 {
		t.Fatalf("file sizes = %d/%d, want 5/5", len(playerFile), len(botFile))
	}

	ids := make(map[string]bool)
	for _, b := range playerFile {
		ids[b.ID] = true
	}
	for _, b := range botFile {
		if ids[b.ID] {
			t.Errorf("id %s appears in both files", b.ID)
		}
	}
}

func TestCorruptFileDegradesToEmpty(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	if err := os.WriteFile(filepath.Join(dir, PowerupsFile), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Must log and return empty, never panic.
	if got := s.LoadPowerups(); len(got) != 0 {
		t.Fatalf("corrupt load returned %d powerups, want 0", len(got))
	}
}

func TestPlayersRoundtrip(t *testing.T) {
	s := New(t.TempDir())

	in := map[string]model.PlayerRecord{
		"u1": {Username: "vandal", BillboardText: "hi", ShootingAmmo: 9, BillboardAmmo: 2, LastUpdate: 123},
		"u2": {Username: "other", Position: &model.Vec3{X: 1, Y: 2, Z: 3}},
	}
	s.SavePlayers(in)

	out := s.LoadPlayers()
	if len(out) != 2 {
		t.Fatalf("loaded %d players, want 2", len(out))
	}
	if out["u1"].Username != "vandal" || out["u1"].ShootingAmmo != 9 {
		t.Errorf("u1 = %+v", out["u1"])
	}
	if out["u2"].Position == nil || out["u2"].Position.Z != 3 {
		t.Errorf("u2 position = %+v", out["u2"].Position)
	}
}

func TestTerrainRoundtrip(t *testing.T) {
	s := New(t.TempDir())

	// No blob yet: nil, and the bootstrap placeholder must not count as one.
	if got := s.LoadTerrain(); got != nil {
		t.Fatalf("fresh terrain = %+v, want nil", got)
	}
	if got := s.LoadTerrain(); got != nil {
		t.Fatalf("placeholder terrain = %+v, want nil", got)
	}

	in := model.TerrainData{Seed: 42, Craters: []map[string]any{{"r": 5.0}}}
	s.SaveTerrain(in)

	out := s.LoadTerrain()
	if out == nil || out.Seed != 42 || len(out.Craters) != 1 {
		t.Fatalf("terrain = %+v", out)
	}
}

func TestCheckpointRoundtrip(t *testing.T) {
	s := New(t.TempDir())

	if _, ok := s.ReadCheckpoint(); ok {
		t.Fatal("fresh store should have no checkpoint")
	}

	terrain := &model.TerrainData{Seed: 7, Rocks: []map[string]any{{"s": int8(1)}}}
	s.WriteCheckpoint(Checkpoint{
		Billboards:    []model.Billboard{{ID: "p1", Text: "hello", Category: model.CategoryPlayer}},
		BotBillboards: []model.Billboard{{ID: "bot_1", Category: model.CategoryBot}},
		Powerups:      []model.Powerup{{ID: "pw1", Type: model.PowerupShootingAmmo}},
		Players:       map[string]model.PlayerRecord{"u1": {Username: "vandal"}},
		Terrain:       terrain,
	})

	cp, ok := s.ReadCheckpoint()
	if !ok {
		t.Fatal("checkpoint not readable after write")
	}
	if cp.WrittenAt == 0 {
		t.Error("checkpoint timestamp not stamped")
	}
	if len(cp.Billboards) != 1 || cp.Billboards[0].Text != "hello" {
		t.Errorf("billboards = %+v", cp.Billboards)
	}
	if len(cp.BotBillboards) != 1 || len(cp.Powerups) != 1 {
		t.Errorf("bots/powerups = %+v / %+v", cp.BotBillboards, cp.Powerups)
	}
	if cp.Players["u1"].Username != "vandal" {
		t.Errorf("players = %+v", cp.Players)
	}
	if cp.Terrain == nil || cp.Terrain.Seed != 7 {
		t.Errorf("terrain = %+v", cp.Terrain)
	}
}
