package governance

// Banner is the single prominent sample-size indicator shown above a screen.
// Its bands are a presentation scale over the same counts, not a display rule.
type Banner struct {
	Level  string `json:"level"`
	Colour string `json:"colour"`
	Label  string `json:"label"`
	N      int    `json:"n"`
}

var bannerBands = []struct {
	min    int
	level  string
	colour string
	label  string
}{
	{200, "high", "#48A23F", "High confidence"},
	{50, "good", "#48A23F", "Good confidence"},
	{30, "moderate", "#F5A623", "Indicative: small sample"},
	{0, "low", "#F4364C", "Insufficient data: results suppressed"},
}

func BannerFor(n int) Banner {
	mustCount(n)
	for _, b := range bannerBands {
		if n >= b.min {
			return Banner{Level: b.level, Colour: b.colour, Label: b.label, N: n}
		}
	}
	last := bannerBands[len(bannerBands)-1]
	return Banner{Level: last.level, Colour: last.colour, Label: last.label, N: n}
}
