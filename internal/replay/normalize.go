// Package replay turns raw replay-host payloads into canonical game records.
package replay

import (
	"fmt"

	"catan-standings/internal/domain"

	"github.com/tidwall/gjson"
)

// Normalize dispatches on the source site. The returned record has its
// scores populated and capped and IsDuplicate left false.
func Normalize(link Link, raw []byte, division domain.Division) (*domain.GameRecord, error) {
	if !gjson.ValidBytes(raw) {
		return nil, domain.Malformed("%s payload is not valid JSON", link.Site)
	}

	var (
		rec *domain.GameRecord
		err error
	)
	switch link.Site {
	case domain.SiteColonist:
		rec, err = normalizeColonist(gjson.ParseBytes(raw), division)
	case domain.SiteTwoSheep:
		rec, err = normalizeTwoSheep(gjson.ParseBytes(raw), division)
	default:
		return nil, fmt.Errorf("unsupported replay site %q", link.Site)
	}
	if err != nil {
		return nil, err
	}

	if len(rec.Scores) != domain.SeatCount {
		return nil, domain.Malformed("%s replay has %d seats, want %d", link.Site, len(rec.Scores), domain.SeatCount)
	}
	for _, s := range rec.Scores {
		if err := domain.CheckScore(s.Score, division); err != nil {
			return nil, err
		}
	}

	rec.Site = link.Site
	rec.Division = division
	rec.ReplayLink = link.URL()
	rec.RawJSON = append([]byte(nil), raw...)
	return rec, nil
}

func requireField(r gjson.Result, path string) (gjson.Result, error) {
	v := r.Get(path)
	if !v.Exists() {
		return v, domain.Malformed("missing field %q", path)
	}
	return v, nil
}
