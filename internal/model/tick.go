package model

import "time"

// TickMeta is the single-row `tick_meta` table holding the timestamp of
// the last completed tick. Clients derive the next tick boundary from it;
// the tick engine overwrites it once per successful run.
type TickMeta struct {
	LastTickAt time.Time // tick_meta.last_tick_at (UTC)
}
