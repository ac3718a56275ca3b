package domain

import "fmt"

// VP category indices as reported by colonist.io.
const (
	VPSettlement     = 0
	VPCity           = 1
	VPDevCard        = 2
	VPLargestArmy    = 3
	VPLongestRoad    = 4
	VPMetropolis     = 6
	VPCatanPoints    = 7
	VPBonus          = 8
	VPMerchant       = 9
	vpCategoryLength = 10
)

var vpWeights = [vpCategoryLength]int{
	VPSettlement:  1,
	VPCity:        2,
	VPDevCard:     1,
	VPLargestArmy: 2,
	VPLongestRoad: 2,
	VPMetropolis:  2,
	VPCatanPoints: 1,
	VPBonus:       1,
	VPMerchant:    1,
}

// VPComponents holds victory point counts keyed by category index.
// Categories the source did not report stay zero.
type VPComponents [vpCategoryLength]int

// Cap is the highest legal score in a division.
func Cap(d Division) int {
	if d == CK {
		return 13
	}
	return 10
}

// Score is the weighted sum of the components clamped to the division cap.
func Score(c VPComponents, d Division) int {
	raw := 0
	for i, n := range c {
		raw += n * vpWeights[i]
	}
	return Clamp(raw, d)
}

func Clamp(raw int, d Division) int {
	return min(max(raw, 0), Cap(d))
}

// CheckScore reports ErrScoringInvariant for a score outside [0, cap].
func CheckScore(score int, d Division) error {
	if score < 0 || score > Cap(d) {
		return fmt.Errorf("%w: score %d outside [0, %d] for division %s", ErrScoringInvariant, score, Cap(d), d)
	}
	return nil
}
