package measures

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"switching-insights-go/internal/types"
)

// ZScore returns the two-sided normal critical value for a confidence level
// in (0, 1).
func ZScore(confidence float64) float64 {
	if confidence <= 0 || confidence >= 1 {
		panic(fmt.Sprintf("measures: confidence %v outside (0,1)", confidence))
	}
	return distuv.UnitNormal.Quantile(1 - (1-confidence)/2)
}

// WilsonInterval is the Wilson score interval for successes out of n.
func WilsonInterval(successes, n int, z float64) (lower, upper float64) {
	if n == 0 {
		return 0, 0
	}
	p := float64(successes) / float64(n)
	nf := float64(n)
	denom := 1 + z*z/nf
	centre := (p + z*z/(2*nf)) / denom
	margin := (z / denom) * math.Sqrt(p*(1-p)/nf+z*z/(4*nf*nf))
	return math.Max(0, centre-margin), math.Min(1, centre+margin)
}

type RateCI struct {
	Rate    types.Rate `json:"rate"`
	CILower float64    `json:"ci_lower"`
	CIUpper float64    `json:"ci_upper"`
	N       int        `json:"n"`
}

// RateWithCI computes the share matching p with a Wilson band.
func RateWithCI(rows []types.Respondent, p Predicate, confidence float64) (RateCI, bool) {
	if len(rows) == 0 {
		return RateCI{}, false
	}
	k := Count(rows, p)
	lo, hi := WilsonInterval(k, len(rows), ZScore(confidence))
	return RateCI{Rate: types.RateOf(k, len(rows)), CILower: lo, CIUpper: hi, N: len(rows)}, true
}

// Smoothed is a Beta-Binomial posterior for a proportion.
type Smoothed struct {
	PosteriorMean float64    `json:"posterior_mean"`
	CILower       float64    `json:"ci_lower"`
	CIUpper       float64    `json:"ci_upper"`
	ESS           float64    `json:"ess"`
	Weight        float64    `json:"weight"`
	RawRate       types.Rate `json:"raw_rate"`
}

// BayesianSmooth shrinks successes/trials toward priorMean with a Beta prior
// worth priorStrength observations and returns a 95% credible interval.
// With zero trials the prior is returned unchanged.
func BayesianSmooth(successes, trials int, priorMean, priorStrength float64) Smoothed {
	if trials == 0 {
		return Smoothed{
			PosteriorMean: priorMean,
			CILower:       priorMean,
			CIUpper:       priorMean,
			ESS:           priorStrength * 2,
		}
	}
	alpha := priorMean*priorStrength + float64(successes)
	beta := (1-priorMean)*priorStrength + float64(trials-successes)
	ess := alpha + beta
	s := Smoothed{
		PosteriorMean: alpha / ess,
		ESS:           ess,
		Weight:        float64(trials) / ess,
		RawRate:       types.RateOf(successes, trials),
	}
	// A prior of exactly 0 or 1 with no contrary observations leaves all the
	// mass at one end; the Beta quantile is undefined there.
	if alpha <= 0 || beta <= 0 {
		s.CILower, s.CIUpper = s.PosteriorMean, s.PosteriorMean
		return s
	}
	post := distuv.Beta{Alpha: alpha, Beta: beta}
	s.CILower = post.Quantile(0.025)
	s.CIUpper = post.Quantile(0.975)
	return s
}

type InsurerRetention struct {
	Insurer    string  `json:"insurer"`
	N          int     `json:"n"`
	MarketRate float64 `json:"market_rate"`
	Smoothed
}

// SmoothedRetention estimates retention per current insurer, shrunk toward the
// market retention rate. Insurers are listed alphabetically.
func SmoothedRetention(rows []types.Respondent, priorStrength float64) []InsurerRetention {
	market := RetentionRate(rows, "")
	if !market.Valid {
		return nil
	}
	byInsurer := map[string][]types.Respondent{}
	for _, r := range rows {
		if r.CurrentInsurer == "" || r.IsNewToMarket() {
			continue
		}
		byInsurer[r.CurrentInsurer] = append(byInsurer[r.CurrentInsurer], r)
	}
	names := make([]string, 0, len(byInsurer))
	for name := range byInsurer {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]InsurerRetention, 0, len(names))
	for _, name := range names {
		sub := byInsurer[name]
		retained := Count(sub, types.Respondent.IsNonSwitcher)
		out = append(out, InsurerRetention{
			Insurer:    name,
			N:          len(sub),
			MarketRate: market.Value,
			Smoothed:   BayesianSmooth(retained, len(sub), market.Value, priorStrength),
		})
	}
	return out
}
