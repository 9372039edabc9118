package game

import (
	"sort"

	"github.com/iliyamo/tower-construction-game/internal/model"
)

// Outcome is the result of resolving one room's auction. Winner is nil
// when the room attracted no bids or no bid was affordable in scan order;
// Losers always holds every bid that did not win.
type Outcome struct {
	Winner *model.Bid
	Losers []model.Bid
}

// ResolveAuction selects at most one winner among the new bids for a
// single room. Bids are ranked by amount descending, ties broken by the
// earlier placement timestamp. The ranked list is then scanned from the
// top: the first bid whose amount the bidder's current balance covers
// wins, and every other bid loses.
//
// The scan order is the whole rule. An unaffordable bid is skipped, not
// disqualifying, but a cheaper affordable bid further down is never
// promoted past it: if every bid is unaffordable at its own rank, the
// room has no winner even when some bidder could have covered a higher
// slot. Changing this would change observable auction outcomes, so it is
// kept exactly as is.
//
// The input slice is not modified.
func ResolveAuction(bids []model.Bid, funds map[uint64]int64) Outcome {
	if len(bids) == 0 {
		return Outcome{}
	}

	ranked := make([]model.Bid, len(bids))
	copy(ranked, bids)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Amount != ranked[j].Amount {
			return ranked[i].Amount > ranked[j].Amount
		}
		return ranked[i].PlacedAt.Before(ranked[j].PlacedAt)
	})

	winner := -1
	for i, b := range ranked {
		if b.Amount <= funds[b.PlayerID] {
			winner = i
			break
		}
	}

	out := Outcome{Losers: make([]model.Bid, 0, len(ranked))}
	for i := range ranked {
		if i == winner {
			w := ranked[i]
			out.Winner = &w
			continue
		}
		out.Losers = append(out.Losers, ranked[i])
	}
	return out
}
