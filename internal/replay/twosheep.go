package replay

import (
	"math"
	"time"

	"catan-standings/internal/domain"

	"github.com/tidwall/gjson"
)

// twosheep.io reports a pre-summed victory point total per seat.
func normalizeTwoSheep(data gjson.Result, division domain.Division) (*domain.GameRecord, error) {
	created, err := requireField(data, "c")
	if err != nil {
		return nil, err
	}
	// whole microseconds, rounded half to even like the ledger's existing rows
	playedAt := time.UnixMicro(int64(math.RoundToEven(created.Float() * 1e6))).UTC()

	players, err := requireField(data, "p")
	if err != nil {
		return nil, err
	}

	rec := &domain.GameRecord{PlayedAt: playedAt}

	var seatErr error
	players.ForEach(func(_, player gjson.Result) bool {
		name, vp := player.Get("n"), player.Get("v")
		if !name.Exists() || !vp.Exists() {
			seatErr = domain.Malformed("twosheep seat without name or victory points")
			return false
		}
		rec.Scores = append(rec.Scores, domain.PlayerScore{
			SourceName: name.String(),
			Score:      domain.Clamp(int(vp.Int()), division),
		})
		return true
	})
	if seatErr != nil {
		return nil, seatErr
	}

	return rec, nil
}
