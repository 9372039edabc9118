// Package snapshot materializes the read-optimized world document. The
// document is the sole data source for the read path: handlers serve it
// verbatim and never query the primary store. It is replaced atomically
// each tick (serialize to a temporary file, then rename over the old
// one) so a concurrent reader always sees either the previous or the
// new complete document, never a partial write.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/iliyamo/tower-construction-game/internal/model"
	"github.com/iliyamo/tower-construction-game/internal/repository"
)

// RoomView is the denormalized per-cell form served to clients.
type RoomView struct {
	ID     uint64 `json:"id"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Sector string `json:"sector"`
	Wear   int    `json:"wear"`
	Status string `json:"status"`
}

// DocumentV1 is the versioned snapshot artifact: the full grid, every
// bid and ownership record with bidder identity replaced by display
// name, and the tick metadata clients use to compute the next boundary.
type DocumentV1 struct {
	Version     int                        `json:"version"`
	GeneratedAt time.Time                  `json:"generated_at"`
	LastTickAt  time.Time                  `json:"last_tick_at"`
	Rooms       []RoomView                 `json:"rooms"`
	Bids        []repository.BidView       `json:"bids"`
	Ownerships  []repository.OwnershipView `json:"ownerships"`
}

// Write serializes the document to path atomically: the JSON is written
// to a sibling temporary file first and renamed into place.
func Write(path string, doc *DocumentV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Read loads the current document. Callers get os.ErrNotExist before the
// first tick has ever materialized one.
func Read(path string) (*DocumentV1, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc DocumentV1
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &doc, nil
}

// Materializer assembles a DocumentV1 from the primary store and
// publishes it. It runs after the tick transaction commits, so it reads
// a consistent post-tick state.
type Materializer struct {
	Rooms      *repository.RoomRepo
	Bids       *repository.BidRepo
	Ownerships *repository.OwnershipRepo
	Path       string
}

// NewMaterializer constructs a Materializer writing to path.
func NewMaterializer(rooms *repository.RoomRepo, bids *repository.BidRepo, ownerships *repository.OwnershipRepo, path string) *Materializer {
	return &Materializer{Rooms: rooms, Bids: bids, Ownerships: ownerships, Path: path}
}

// Materialize builds and atomically publishes the document for the tick
// completed at lastTickAt.
func (m *Materializer) Materialize(ctx context.Context, lastTickAt time.Time) error {
	rooms, err := m.Rooms.All(ctx)
	if err != nil {
		return fmt.Errorf("snapshot rooms: %w", err)
	}
	bids, err := m.Bids.Views(ctx)
	if err != nil {
		return fmt.Errorf("snapshot bids: %w", err)
	}
	ownerships, err := m.Ownerships.Views(ctx)
	if err != nil {
		return fmt.Errorf("snapshot ownerships: %w", err)
	}
	doc := BuildDocument(time.Now().UTC(), lastTickAt, rooms, bids, ownerships)
	return Write(m.Path, doc)
}

// BuildDocument converts raw store rows into the versioned document.
// Separated from Materialize so the conversion is testable without a
// database.
func BuildDocument(generatedAt, lastTickAt time.Time, rooms []model.Room, bids []repository.BidView, ownerships []repository.OwnershipView) *DocumentV1 {
	views := make([]RoomView, 0, len(rooms))
	for _, rm := range rooms {
		views = append(views, RoomView{
			ID:     rm.ID,
			X:      rm.X,
			Y:      rm.Y,
			Sector: string(rm.Sector),
			Wear:   rm.Wear,
			Status: string(rm.Status),
		})
	}
	if bids == nil {
		bids = []repository.BidView{}
	}
	if ownerships == nil {
		ownerships = []repository.OwnershipView{}
	}
	return &DocumentV1{
		Version:     1,
		GeneratedAt: generatedAt,
		LastTickAt:  lastTickAt,
		Rooms:       views,
		Bids:        bids,
		Ownerships:  ownerships,
	}
}
