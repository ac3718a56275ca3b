// Package trivia picks one noteworthy statistic out of a finished colonist match.
package trivia

import (
	"math"
	"strconv"

	"github.com/tidwall/gjson"
)

type fact struct {
	// extract reads the statistic for one seat from endGameState; false when
	// the payload does not carry it.
	extract   func(stats gjson.Result, color string) (float64, bool)
	describe  func(name, x string) string
	funFactor func(x float64) float64
}

func seatStat(section, field string) func(gjson.Result, string) (float64, bool) {
	return func(stats gjson.Result, color string) (float64, bool) {
		return number(stats.Get(section + "." + color + "." + field))
	}
}

func gameStat(path string) func(gjson.Result, string) (float64, bool) {
	return func(stats gjson.Result, _ string) (float64, bool) {
		return number(stats.Get(path))
	}
}

func scaled(k float64) func(float64) float64 {
	return func(x float64) float64 { return x * k }
}

// catalog is ordered; on equal fun factors the earlier fact wins.
var catalog = []fact{
	{
		extract:   seatStat("resourceStats", "robbingLoss"),
		describe:  func(name, x string) string { return name + " got robbed " + x + " times" },
		funFactor: scaled(0.7),
	},
	{
		extract:   seatStat("resourceStats", "robbingIncome"),
		describe:  func(name, x string) string { return name + " robbed others " + x + " times" },
		funFactor: scaled(0.5),
	},
	{
		extract:   seatStat("resourceStats", "rollingLoss"),
		describe:  func(name, x string) string { return name + " lost " + x + " resources by getting 7'd out" },
		funFactor: scaled(0.35),
	},
	{
		extract: func(stats gjson.Result, color string) (float64, bool) {
			income, ok := number(stats.Get("resourceStats." + color + ".tradeIncome"))
			if !ok {
				return 0, false
			}
			loss, ok := number(stats.Get("resourceStats." + color + ".tradeLoss"))
			if !ok {
				return 0, false
			}
			return income - loss, true
		},
		describe:  func(name, x string) string { return name + " traded a net profit of " + x + " cards" },
		funFactor: scaled(2),
	},
	{
		extract:   seatStat("activityStats", "resourceIncomeBlocked"),
		describe:  func(name, x string) string { return name + " lost " + x + " resources to blocked tiles" },
		funFactor: scaled(0.2),
	},
	{
		extract:   gameStat("diceStats.0"),
		describe:  func(_, x string) string { return "Two was rolled " + x + " times this game" },
		funFactor: scaled(1.5),
	},
	{
		extract:   gameStat("diceStats.1"),
		describe:  func(_, x string) string { return "Three was rolled " + x + " times this game" },
		funFactor: scaled(1),
	},
	{
		extract:   gameStat("diceStats.9"),
		describe:  func(_, x string) string { return "Eleven was rolled " + x + " times this game" },
		funFactor: scaled(1),
	},
	{
		extract:   gameStat("diceStats.10"),
		describe:  func(_, x string) string { return "Twelve was rolled " + x + " times this game" },
		funFactor: scaled(1.5),
	},
	{
		extract: func(stats gjson.Result, _ string) (float64, bool) {
			ms, ok := number(stats.Get("gameDurationInMS"))
			if !ok {
				return 0, false
			}
			return math.Floor(ms / 60000), true
		},
		describe:  func(_, x string) string { return "This game lasted only " + x + " minutes" },
		funFactor: func(x float64) float64 { return 23 - x },
	},
	{
		extract:   gameStat("totalTurnCount"),
		describe:  func(_, x string) string { return "This game lasted only " + x + " turns" },
		funFactor: func(x float64) float64 { return 55 - x },
	},
	{
		// a player without VP development cards has no "2" key
		extract: func(stats gjson.Result, color string) (float64, bool) {
			vp := stats.Get("players." + color + ".victoryPoints")
			if !vp.Exists() {
				return 0, false
			}
			return vp.Get("2").Float(), true
		},
		describe: func(name, x string) string { return name + " bought " + x + " VP devs" },
		funFactor: func(x float64) float64 {
			if x >= 4 {
				return x * 10
			}
			return 0
		},
	},
}

type seat struct {
	color string
	name  string
}

// Select returns the description of the fact with the highest fun factor
// over every (fact, seat) pair of a colonist payload. Missing statistics are
// skipped. It reports false when nothing could be computed.
func Select(raw []byte) (string, bool) {
	if !gjson.ValidBytes(raw) {
		return "", false
	}
	doc := gjson.ParseBytes(raw)
	stats := doc.Get("eventHistory.endGameState")
	if !stats.Exists() {
		return "", false
	}

	var seats []seat
	doc.Get("playerUserStates").ForEach(func(_, st gjson.Result) bool {
		color, name := st.Get("selectedColor"), st.Get("username")
		if color.Exists() && name.Exists() {
			seats = append(seats, seat{color: color.String(), name: name.String()})
		}
		return true
	})

	best, bestFun, found := "", math.Inf(-1), false
	for _, f := range catalog {
		for _, s := range seats {
			x, ok := f.extract(stats, s.color)
			if !ok {
				continue
			}
			if fun := f.funFactor(x); fun > bestFun {
				best, bestFun, found = f.describe(s.name, format(x)), fun, true
			}
		}
	}
	return best, found
}

func number(r gjson.Result) (float64, bool) {
	if r.Type != gjson.Number {
		return 0, false
	}
	return r.Float(), true
}

func format(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
