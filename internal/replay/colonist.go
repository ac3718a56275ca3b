package replay

import (
	"strconv"
	"time"

	"catan-standings/internal/domain"

	"github.com/tidwall/gjson"
)

func normalizeColonist(data gjson.Result, division domain.Division) (*domain.GameRecord, error) {
	start, err := requireField(data, "eventHistory.startTime")
	if err != nil {
		return nil, err
	}
	playedAt, err := time.Parse(time.RFC3339Nano, start.String())
	if err != nil {
		return nil, domain.Malformed("bad startTime %q: %v", start.String(), err)
	}

	states, err := requireField(data, "playerUserStates")
	if err != nil {
		return nil, err
	}
	colorsToNames := make(map[int64]string)
	for _, st := range states.Array() {
		color, name := st.Get("selectedColor"), st.Get("username")
		if !color.Exists() || !name.Exists() {
			return nil, domain.Malformed("player user state without selectedColor or username")
		}
		colorsToNames[color.Int()] = name.String()
	}

	players, err := requireField(data, "eventHistory.endGameState.players")
	if err != nil {
		return nil, err
	}
	if !players.IsObject() && !players.IsArray() {
		return nil, domain.Malformed("endGameState.players is not a collection")
	}

	rec := &domain.GameRecord{PlayedAt: playedAt.UTC()}

	var seatErr error
	players.ForEach(func(_, player gjson.Result) bool {
		color := player.Get("color")
		if !color.Exists() {
			seatErr = domain.Malformed("end game player without color")
			return false
		}
		name, ok := colorsToNames[color.Int()]
		if !ok {
			seatErr = domain.Malformed("color %d has no player entry", color.Int())
			return false
		}

		rec.Scores = append(rec.Scores, domain.PlayerScore{
			SourceName: name,
			Score:      domain.Score(vpComponents(player.Get("victoryPoints")), division),
		})
		return true
	})
	if seatErr != nil {
		return nil, seatErr
	}

	return rec, nil
}

func vpComponents(vp gjson.Result) domain.VPComponents {
	var c domain.VPComponents
	vp.ForEach(func(key, value gjson.Result) bool {
		i, err := strconv.Atoi(key.String())
		if err == nil && i >= 0 && i < len(c) {
			c[i] = int(value.Int())
		}
		return true
	})
	return c
}
