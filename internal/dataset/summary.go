package dataset

import (
	"sort"

	"switching-insights-go/internal/logger"
	"switching-insights-go/internal/types"
)

// Summary is a compact profile of a loaded extract, used by the CLI and the
// validation screen.
type Summary struct {
	TotalRows        int                          `json:"total_rows"`
	BySegment        map[string]int               `json:"by_segment"`
	ByPriceDirection map[types.PriceDirection]int `json:"by_price_direction"`
	ByPeriod         map[int]int                  `json:"by_period"`
	FirstPeriod      int                          `json:"first_period"`
	LastPeriod       int                          `json:"last_period"`
	Insurers         int                          `json:"insurers"`
	TopInsurers      []string                     `json:"top_insurers"`
	Unsegmented      int                          `json:"unsegmented"`
}

const summaryTopInsurers = 5

// Summarize profiles rows. Rows with no journey segment are counted as
// unsegmented.
func Summarize(rows []types.Respondent) Summary {
	log := logger.New().WithField("component", "dataset.summary")

	s := Summary{
		TotalRows:        len(rows),
		BySegment:        map[string]int{},
		ByPriceDirection: map[types.PriceDirection]int{},
		ByPeriod:         map[int]int{},
	}
	insurerCounts := map[string]int{}
	for _, r := range rows {
		if r.JourneySegment == "" {
			s.Unsegmented++
		} else {
			s.BySegment[r.JourneySegment]++
		}
		if r.PriceDirection != "" {
			s.ByPriceDirection[r.PriceDirection]++
		}
		if r.RenewalPeriod > 0 {
			s.ByPeriod[r.RenewalPeriod]++
			if s.FirstPeriod == 0 || r.RenewalPeriod < s.FirstPeriod {
				s.FirstPeriod = r.RenewalPeriod
			}
			if r.RenewalPeriod > s.LastPeriod {
				s.LastPeriod = r.RenewalPeriod
			}
		}
		if r.CurrentInsurer != "" {
			insurerCounts[r.CurrentInsurer]++
		}
	}
	s.Insurers = len(insurerCounts)

	type ic struct {
		name string
		n    int
	}
	var arr []ic
	for k, v := range insurerCounts {
		arr = append(arr, ic{k, v})
	}
	sort.Slice(arr, func(i, j int) bool {
		if arr[i].n != arr[j].n {
			return arr[i].n > arr[j].n
		}
		return arr[i].name < arr[j].name
	})
	s.TopInsurers = []string{}
	for i := 0; i < len(arr) && i < summaryTopInsurers; i++ {
		s.TopInsurers = append(s.TopInsurers, arr[i].name)
	}

	log.WithFields(map[string]interface{}{
		"total_rows":  s.TotalRows,
		"segments":    len(s.BySegment),
		"periods":     len(s.ByPeriod),
		"insurers":    s.Insurers,
		"unsegmented": s.Unsegmented,
	}).Info("dataset summarization complete")
	return s
}
