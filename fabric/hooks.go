package fabric

import (
	"log/slog"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/cgrafab/tile"
)

// LogHook logs fabric construction progress.
type LogHook struct {
	Logger *slog.Logger
}

// Func implements sim.Hook.
func (h LogHook) Func(ctx sim.HookCtx) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch ctx.Pos {
	case HookPosTileElaborated:
		t := ctx.Item.(*tile.Tile)
		logger.Debug("TileElaborated",
			"tile", t.Path(),
			"type", t.Type(),
			"bels", len(t.Bels()),
		)
	case HookPosAddressAssigned:
		pt := ctx.Item.(PlacedTile)
		logger.Debug("AddressAssigned",
			"tile", pt.Tile.Path(),
			"start", pt.Range.Start,
			"end", pt.Range.End,
		)
	}
}
