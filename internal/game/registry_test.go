package game

import (
	"fmt"
	"testing"
)

func testBillboard(id, category string) Billboard {
	return Billboard{
		ID:        id,
		Position:  Vec3{X: 100},
		Width:     5,
		Height:    5,
		Health:    100,
		Text:      "text-" + id,
		Color:     "#FF6B6B",
		Owner:     "owner-" + id,
		PlayerID:  "player-" + id,
		Category:  category,
		Timestamp: 1000,
	}
}

func TestUpsertBillboardPreservesTextAndOwner(t *testing.T) {
	r := NewRegistry()

	original := testBillboard("b1", CategoryPlayer)
	original.Text = "A"
	original.Owner = "B"
	if _, created := r.UpsertBillboard(original); !created {
		t.Fatal("first upsert should report created")
	}

	update := original
	update.Text = "C"
	update.Owner = "D"
	update.Health = 50

	stored, created := r.UpsertBillboard(update)
	if created {
		t.Fatal("second upsert should not report created")
	}
	if stored.Text != "A" || stored.Owner != "B" {
		t.Errorf("stored text/owner = %q/%q, want A/B", stored.Text, stored.Owner)
	}
	if stored.Health != 50 {
		t.Errorf("stored health = %d, want 50", stored.Health)
	}
}

func TestUpsertBotBillboardFullyReplaced(t *testing.T) {
	r := NewRegistry()

	bot := testBillboard("bot_1", CategoryBot)
	bot.Text = "OLD"
	r.UpsertBillboard(bot)

	update := bot
	update.Text = "NEW"
	update.Owner = "Someone Else"

	stored, _ := r.UpsertBillboard(update)
	if stored.Text != "NEW" || stored.Owner != "Someone Else" {
		t.Errorf("bot update not replaced: text=%q owner=%q", stored.Text, stored.Owner)
	}

	bots := r.BotBillboards()
	if len(bots) != 1 || bots[0].Text != "NEW" {
		t.Errorf("bot mirror not updated: %+v", bots)
	}
}

func TestUpsertBotBillboardKeepsBotCategory(t *testing.T) {
	r := NewRegistry()

	bot := testBillboard("bot_x", CategoryBot)
	r.UpsertBillboard(bot)

	// Clients omitting billboard_category get defaulted to player upstream;
	// the update must not recategorize the existing bot entry.
	update := bot
	update.Category = CategoryPlayer
	update.Health = 50

	stored, created := r.UpsertBillboard(update)
	if created {
		t.Fatal("update of existing id should not report created")
	}
	if !stored.IsBot() {
		t.Errorf("stored category = %q, want bot", stored.Category)
	}

	bots := r.BotBillboards()
	if len(bots) != 1 || bots[0].Health != 50 {
		t.Errorf("bot mirror not updated: %+v", bots)
	}
	if players := r.PlayerBillboards(); len(players) != 0 {
		t.Errorf("bot id leaked into the player collection: %+v", players)
	}
}

func TestRemoveBillboard(t *testing.T) {
	r := NewRegistry()
	r.UpsertBillboard(testBillboard("b1", CategoryPlayer))
	r.UpsertBillboard(testBillboard("bot_1", CategoryBot))

	if _, ok := r.RemoveBillboard("b1"); !ok {
		t.Fatal("remove of known id failed")
	}
	if _, ok := r.RemoveBillboard("b1"); ok {
		t.Fatal("second remove should be a no-op miss")
	}

	removed, ok := r.RemoveBillboard("bot_1")
	if !ok || !removed.IsBot() {
		t.Fatalf("bot remove = %+v, %v", removed, ok)
	}
	if r.BotBillboardCount() != 0 {
		t.Errorf("bot mirror count = %d after remove, want 0", r.BotBillboardCount())
	}
	if len(r.Billboards()) != 0 {
		t.Errorf("flat collection has %d entries, want 0", len(r.Billboards()))
	}
}

func TestCategorySeparation(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 5; i++ {
		r.UpsertBillboard(testBillboard(fmt.Sprintf("p%d", i), CategoryPlayer))
		r.UpsertBillboard(testBillboard(fmt.Sprintf("bot_%d", i), CategoryBot))
	}

	players := r.PlayerBillboards()
	bots := r.BotBillboards()
	if len(players) != 5 || len(bots) != 5 {
		t.Fatalf("got %d player / %d bot billboards, want 5/5", len(players), len(bots))
	}

	seen := make(map[string]bool)
	for _, b := range players {
		seen[b.ID] = true
	}
	for _, b := range bots {
		if seen[b.ID] {
			t.Errorf("id %s appears in both collections", b.ID)
		}
	}

	if len(r.Billboards()) != 10 {
		t.Errorf("flat collection has %d entries, want 10", len(r.Billboards()))
	}
}

func TestPowerupDualIndexStaysInSync(t *testing.T) {
	r := NewRegistry()

	r.AddPowerup(Powerup{ID: "pw1", Type: PowerupShootingAmmo, Lifespan: 60000, SpawnTime: 1})
	r.AddPowerup(Powerup{ID: "pw2", Type: PowerupShootingAmmo, Lifespan: 60000, SpawnTime: 1})
	r.AddPowerup(Powerup{ID: "pw3", Type: PowerupBillboardAmmo, Lifespan: 60000, SpawnTime: 1})

	if n := r.PowerupCount(PowerupShootingAmmo); n != 2 {
		t.Errorf("shooting_ammo count = %d, want 2", n)
	}
	if n := r.PowerupCount(PowerupBillboardAmmo); n != 1 {
		t.Errorf("billboard_ammo count = %d, want 1", n)
	}

	removed, ok := r.RemovePowerup("pw1")
	if !ok || removed.ID != "pw1" {
		t.Fatalf("remove = %+v, %v", removed, ok)
	}
	if n := r.PowerupCount(PowerupShootingAmmo); n != 1 {
		t.Errorf("shooting_ammo count after remove = %d, want 1", n)
	}
	if len(r.Powerups()) != 2 {
		t.Errorf("flat powerups = %d, want 2", len(r.Powerups()))
	}

	if _, ok := r.RemovePowerup("pw1"); ok {
		t.Error("second remove of pw1 should miss")
	}
}

func TestTrimBotBillboardsKeepsNewest(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 25; i++ {
		b := testBillboard(fmt.Sprintf("bot_%02d", i), CategoryBot)
		b.Timestamp = int64(1000 + i)
		r.UpsertBillboard(b)
	}

	excess := r.TrimBotBillboards(20)
	if len(excess) != 5 {
		t.Fatalf("trim removed %d, want 5", len(excess))
	}
	for i, b := range excess {
		want := int64(1000 + i)
		if b.Timestamp != want {
			t.Errorf("excess[%d].Timestamp = %d, want %d (oldest first)", i, b.Timestamp, want)
		}
	}
	if r.BotBillboardCount() != 20 {
		t.Errorf("bot count after trim = %d, want 20", r.BotBillboardCount())
	}
	if len(r.Billboards()) != 20 {
		t.Errorf("flat count after trim = %d, want 20", len(r.Billboards()))
	}

	// Trimming again must be a no-op.
	if again := r.TrimBotBillboards(20); len(again) != 0 {
		t.Errorf("second trim removed %d entries, want 0", len(again))
	}
}

func TestReconcileBotBillboards(t *testing.T) {
	r := NewRegistry()
	r.UpsertBillboard(testBillboard("bot_1", CategoryBot))
	r.UpsertBillboard(testBillboard("bot_2", CategoryBot))

	// Simulate registry drift by dropping one from the flat collection only.
	r.mu.Lock()
	delete(r.billboards, "bot_1")
	r.mu.Unlock()

	if healed := r.ReconcileBotBillboards(); healed != 1 {
		t.Fatalf("reconcile healed %d, want 1", healed)
	}
	if len(r.Billboards()) != 2 {
		t.Errorf("flat count after reconcile = %d, want 2", len(r.Billboards()))
	}
	if healed := r.ReconcileBotBillboards(); healed != 0 {
		t.Errorf("second reconcile healed %d, want 0", healed)
	}
}

func TestReplaceBotBillboards(t *testing.T) {
	r := NewRegistry()
	r.UpsertBillboard(testBillboard("bot_old", CategoryBot))
	r.UpsertBillboard(testBillboard("p1", CategoryPlayer))

	uploaded := []Billboard{
		{ID: "bot_new_1", Timestamp: 1},
		{ID: "bot_new_2", Timestamp: 2},
	}
	removed := r.ReplaceBotBillboards(uploaded)

	if len(removed) != 1 || removed[0] != "bot_old" {
		t.Fatalf("removed = %v, want [bot_old]", removed)
	}
	if r.BotBillboardCount() != 2 {
		t.Errorf("bot count = %d, want 2", r.BotBillboardCount())
	}
	for _, b := range r.BotBillboards() {
		if b.Category != CategoryBot {
			t.Errorf("uploaded billboard %s category = %q, want bot", b.ID, b.Category)
		}
	}
	// The player billboard survives the swap.
	if len(r.Billboards()) != 3 {
		t.Errorf("flat count = %d, want 3", len(r.Billboards()))
	}
}

func TestTerrainFirstWriterWins(t *testing.T) {
	r := NewRegistry()

	if r.HasTerrain() {
		t.Fatal("fresh registry should not have terrain")
	}
	placeholder := r.Terrain()
	if !placeholder.IsEmpty() {
		t.Fatal("placeholder terrain should be empty")
	}

	// Empty submissions never take the slot.
	if r.SetTerrain(TerrainData{Seed: 9}) {
		t.Fatal("empty blob should be rejected")
	}

	blobA := TerrainData{Seed: 1, Craters: []map[string]any{{"r": 5.0}}}
	blobB := TerrainData{Seed: 2, Rocks: []map[string]any{{"s": 1.0}}}

	if !r.SetTerrain(blobA) {
		t.Fatal("first non-empty blob should be accepted")
	}
	if r.SetTerrain(blobB) {
		t.Fatal("second blob should be ignored")
	}

	if got := r.Terrain(); got.Seed != 1 {
		t.Errorf("served terrain seed = %v, want 1 (first writer)", got.Seed)
	}
}

func TestPlayerRecordFieldUpserts(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Player("u1"); ok {
		t.Fatal("unknown player should not be found")
	}

	r.UpsertPlayerData("u1", PlayerRecord{
		Username:      "vandal",
		BillboardText: "hello",
		ShootingAmmo:  10,
		BillboardAmmo: 3,
		LastUpdate:    100,
	})

	r.UpsertPlayerAmmo("u1", 7, 2, 200)
	rec, ok := r.Player("u1")
	if !ok {
		t.Fatal("player should exist")
	}
	if rec.ShootingAmmo != 7 || rec.BillboardAmmo != 2 {
		t.Errorf("ammo = %d/%d, want 7/2", rec.ShootingAmmo, rec.BillboardAmmo)
	}
	if rec.Username != "vandal" || rec.BillboardText != "hello" {
		t.Errorf("ammo upsert clobbered other fields: %+v", rec)
	}

	r.UpsertPlayerBillboardText("u1", "goodbye", 300)
	rec, _ = r.Player("u1")
	if rec.BillboardText != "goodbye" {
		t.Errorf("billboardText = %q, want goodbye", rec.BillboardText)
	}
	if rec.ShootingAmmo != 7 {
		t.Errorf("text upsert clobbered ammo: %+v", rec)
	}
	if rec.LastUpdate != 300 {
		t.Errorf("lastUpdate = %d, want 300", rec.LastUpdate)
	}
}
