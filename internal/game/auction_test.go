package game

import (
	"testing"
	"time"

	"github.com/iliyamo/tower-construction-game/internal/model"
)

var auctionEpoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func bidAt(id, player uint64, amount int64, offset time.Duration) model.Bid {
	return model.Bid{
		ID:       id,
		RoomID:   1,
		PlayerID: player,
		Amount:   amount,
		PlacedAt: auctionEpoch.Add(offset),
		Status:   model.BidStatusNew,
	}
}

func TestResolveAuctionNoBids(t *testing.T) {
	out := ResolveAuction(nil, map[uint64]int64{})
	if out.Winner != nil || len(out.Losers) != 0 {
		t.Fatalf("empty auction produced outcome %+v", out)
	}
}

func TestResolveAuctionHighestAffordableWins(t *testing.T) {
	bids := []model.Bid{
		bidAt(1, 10, 300, 0),
		bidAt(2, 11, 500, time.Second),
		bidAt(3, 12, 400, 2*time.Second),
	}
	funds := map[uint64]int64{10: 1000, 11: 1000, 12: 1000}
	out := ResolveAuction(bids, funds)
	if out.Winner == nil || out.Winner.ID != 2 {
		t.Fatalf("winner = %+v, want bid 2", out.Winner)
	}
	if len(out.Losers) != 2 {
		t.Fatalf("got %d losers, want 2", len(out.Losers))
	}
}

func TestResolveAuctionTieBreaksOnEarlierPlacement(t *testing.T) {
	// Equal amounts: the bid placed first wins, reproducibly.
	bids := []model.Bid{
		bidAt(2, 11, 500, time.Second),
		bidAt(1, 10, 500, 0),
	}
	funds := map[uint64]int64{10: 500, 11: 500}
	for i := 0; i < 10; i++ {
		out := ResolveAuction(bids, funds)
		if out.Winner == nil || out.Winner.ID != 1 {
			t.Fatalf("run %d: winner = %+v, want earlier bid 1", i, out.Winner)
		}
	}
}

func TestResolveAuctionSkipsUnaffordableAndTakesNextInScanOrder(t *testing.T) {
	bids := []model.Bid{
		bidAt(1, 10, 900, 0),             // top ranked, bidder cannot cover it
		bidAt(2, 11, 400, time.Second),   // next in scan order, affordable
		bidAt(3, 12, 700, 2*time.Second), // ranked between them, also unaffordable
	}
	funds := map[uint64]int64{10: 100, 11: 400, 12: 100}
	out := ResolveAuction(bids, funds)
	if out.Winner == nil || out.Winner.ID != 2 {
		t.Fatalf("winner = %+v, want bid 2 (first affordable in scan order)", out.Winner)
	}
	if len(out.Losers) != 2 {
		t.Fatalf("got %d losers, want 2", len(out.Losers))
	}
}

func TestResolveAuctionUnaffordableHighBidBlocksRoom(t *testing.T) {
	// Every bid exceeds its own bidder's balance, so nobody wins, even
	// though player 11's funds would have covered a smaller amount. The
	// scan never re-seats bidders; this behavior is deliberate.
	bids := []model.Bid{
		bidAt(1, 10, 900, 0),
		bidAt(2, 11, 800, time.Second),
	}
	funds := map[uint64]int64{10: 100, 11: 700}
	out := ResolveAuction(bids, funds)
	if out.Winner != nil {
		t.Fatalf("winner = %+v, want none", out.Winner)
	}
	if len(out.Losers) != 2 {
		t.Fatalf("got %d losers, want 2", len(out.Losers))
	}
}

func TestResolveAuctionWinnerAffordableAtResolutionTime(t *testing.T) {
	bids := []model.Bid{
		bidAt(1, 10, 500, 0),
		bidAt(2, 11, 500, time.Second),
	}
	funds := map[uint64]int64{10: 499, 11: 500}
	out := ResolveAuction(bids, funds)
	if out.Winner == nil || out.Winner.ID != 2 {
		t.Fatalf("winner = %+v, want bid 2", out.Winner)
	}
	if out.Winner.Amount > funds[out.Winner.PlayerID] {
		t.Fatalf("winner amount %d exceeds funds %d", out.Winner.Amount, funds[out.Winner.PlayerID])
	}
}

func TestResolveAuctionDoesNotModifyInput(t *testing.T) {
	bids := []model.Bid{
		bidAt(1, 10, 100, 0),
		bidAt(2, 11, 900, time.Second),
	}
	out := ResolveAuction(bids, map[uint64]int64{10: 1000, 11: 1000})
	if out.Winner == nil || out.Winner.ID != 2 {
		t.Fatalf("winner = %+v, want bid 2", out.Winner)
	}
	if bids[0].ID != 1 || bids[1].ID != 2 {
		t.Fatalf("input slice reordered: %+v", bids)
	}
}
