package store

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"marsvandals/internal/model"
)

// CheckpointFile is the compact binary snapshot written alongside the JSON
// collections. The JSON files stay the primary persistence format; the
// checkpoint exists so a collection whose file went missing or corrupt can
// still be restored on boot.
const CheckpointFile = "world.checkpoint"

// Checkpoint is a point-in-time copy of every world collection.
type Checkpoint struct {
	Billboards    []model.Billboard             `msgpack:"billboards"`
	BotBillboards []model.Billboard             `msgpack:"botBillboards"`
	Powerups      []model.Powerup               `msgpack:"powerups"`
	Players       map[string]model.PlayerRecord `msgpack:"players"`
	Terrain       *model.TerrainData            `msgpack:"terrain"`
	WrittenAt     int64                        `msgpack:"writtenAt"` // epoch ms
}

// WriteCheckpoint serializes the snapshot with msgpack and rewrites the
// checkpoint file. Best-effort like every other save.
func (s *Store) WriteCheckpoint(cp Checkpoint) {
	cp.WrittenAt = time.Now().UnixMilli()

	data, err := msgpack.Marshal(cp)
	if err != nil {
		log.Printf("Error marshaling checkpoint: %v", err)
		return
	}

	path := filepath.Join(s.dir, CheckpointFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("Error writing checkpoint: %v", err)
	}
}

// ReadCheckpoint loads the last written checkpoint, if any.
func (s *Store) ReadCheckpoint() (Checkpoint, bool) {
	path := filepath.Join(s.dir, CheckpointFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Error reading checkpoint: %v", err)
		}
		return Checkpoint{}, false
	}

	var cp Checkpoint
	if err := msgpack.Unmarshal(data, &cp); err != nil {
		log.Printf("Error parsing checkpoint: %v", err)
		return Checkpoint{}, false
	}
	return cp, true
}
