package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iliyamo/tower-construction-game/internal/model"
	"github.com/iliyamo/tower-construction-game/internal/repository"
)

var snapEpoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func sampleDocument() *DocumentV1 {
	return BuildDocument(snapEpoch.Add(time.Second), snapEpoch,
		[]model.Room{
			{ID: 1, X: 0, Y: 0, Sector: model.SectorShop, Wear: 12, Status: model.RoomStatusOldConstructed},
			{ID: 2, X: 1, Y: 0, Sector: model.SectorHotel, Status: model.RoomStatusPlanned},
		},
		[]repository.BidView{
			{ID: 7, RoomID: 2, BidderName: "ada", Amount: 400, PlacedAt: snapEpoch.Add(-time.Minute), Status: "new"},
		},
		[]repository.OwnershipView{
			{RoomID: 1, OwnerName: "grace", CreatedAt: snapEpoch.Add(-time.Hour)},
		},
	)
}

func TestWriteReadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "snapshot.json")
	doc := sampleDocument()

	if err := Write(path, doc); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Version != 1 {
		t.Fatalf("version = %d, want 1", got.Version)
	}
	if !got.LastTickAt.Equal(doc.LastTickAt) {
		t.Fatalf("last_tick_at = %v, want %v", got.LastTickAt, doc.LastTickAt)
	}
	if len(got.Rooms) != 2 || len(got.Bids) != 1 || len(got.Ownerships) != 1 {
		t.Fatalf("roundtrip lost rows: %d rooms, %d bids, %d ownerships",
			len(got.Rooms), len(got.Bids), len(got.Ownerships))
	}
	if got.Rooms[0].Sector != "shop" || got.Rooms[0].Status != "old_constructed" {
		t.Fatalf("room view = %+v", got.Rooms[0])
	}
	if got.Bids[0].BidderName != "ada" {
		t.Fatalf("bid view = %+v", got.Bids[0])
	}
}

func TestWriteLeavesNoTemporaryFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.json")
	if err := Write(path, sampleDocument()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temporary file left behind: %v", err)
	}
}

func TestWriteReplacesPreviousDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	first := sampleDocument()
	if err := Write(path, first); err != nil {
		t.Fatalf("first Write: %v", err)
	}

	second := sampleDocument()
	second.LastTickAt = snapEpoch.Add(time.Minute)
	second.Rooms = nil
	if err := Write(path, second); err != nil {
		t.Fatalf("second Write: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !got.LastTickAt.Equal(second.LastTickAt) {
		t.Fatalf("read stale document: last_tick_at = %v", got.LastTickAt)
	}
}

func TestReadMissingDocument(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.json"))
	if !os.IsNotExist(err) {
		t.Fatalf("missing document error = %v, want not-exist", err)
	}
}

func TestBuildDocumentEmptySlicesNotNull(t *testing.T) {
	doc := BuildDocument(snapEpoch, snapEpoch, nil, nil, nil)
	if doc.Rooms == nil || doc.Bids == nil || doc.Ownerships == nil {
		t.Fatalf("empty document has nil collections: %+v", doc)
	}
	if len(doc.Rooms) != 0 {
		t.Fatalf("rooms = %v, want empty", doc.Rooms)
	}
}
