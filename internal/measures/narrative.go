package measures

import (
	"fmt"
	"math"

	"switching-insights-go/internal/types"
)

// GenerateNarrative compares an insurer's shopping rate with the market. The
// direction is "in line with" when the gap rounds to 0.0 points.
func GenerateNarrative(insurer string, insurerRate, marketRate types.Rate) (string, bool) {
	if insurer == "" || !insurerRate.Valid || !marketRate.Valid {
		return "", false
	}
	gap := math.Round((insurerRate.Value-marketRate.Value)*1000) / 10
	ins, mkt := insurerRate.Value*100, marketRate.Value*100
	if gap == 0 {
		return fmt.Sprintf("%s customers shop at %.1f%%, in line with the market average of %.1f%%.", insurer, ins, mkt), true
	}
	direction := "above"
	if gap < 0 {
		direction = "below"
	}
	return fmt.Sprintf("%s customers shop at %.1f%%, %.1fpts %s the market average of %.1f%%.", insurer, ins, math.Abs(gap), direction, mkt), true
}
