package analytics

import "math"

// Trend is the month-over-month change of one counter. A nil *Trend means
// the comparison is undefined because the prior month had no activity;
// rendering that as growth would be misleading.
type Trend struct {
	Percent  float64 `json:"percent"`
	Positive bool    `json:"positive"`
}

// TrendSet carries one trend per rollup counter. Pointers so undefined
// trends serialize as null.
type TrendSet struct {
	ProfileViews     *Trend `json:"profileViews"`
	PhoneClicks      *Trend `json:"phoneClicks"`
	WhatsappClicks   *Trend `json:"whatsappClicks"`
	WebsiteClicks    *Trend `json:"websiteClicks"`
	DirectionsClicks *Trend `json:"directionsClicks"`
	EmailClicks      *Trend `json:"emailClicks"`
	BookingClicks    *Trend `json:"bookingClicks"`
}

// PercentChange compares a counter's most recent month against the prior
// month. Returns nil when the prior month is 0; a current value of 0 against
// a nonzero prior yields -100.
func PercentChange(current, previous int) *Trend {
	if previous == 0 {
		return nil
	}
	change := (float64(current) - float64(previous)) / float64(previous) * 100
	return &Trend{Percent: round1(change), Positive: change >= 0}
}

// computeTrends compares the last two entries of an ascending series.
// Fewer than two months means every trend is undefined.
func computeTrends(series []MonthlyDataPoint) TrendSet {
	if len(series) < 2 {
		return TrendSet{}
	}
	last := series[len(series)-1]
	prior := series[len(series)-2]
	return TrendSet{
		ProfileViews:     PercentChange(last.ProfileViews, prior.ProfileViews),
		PhoneClicks:      PercentChange(last.PhoneClicks, prior.PhoneClicks),
		WhatsappClicks:   PercentChange(last.WhatsappClicks, prior.WhatsappClicks),
		WebsiteClicks:    PercentChange(last.WebsiteClicks, prior.WebsiteClicks),
		DirectionsClicks: PercentChange(last.DirectionsClicks, prior.DirectionsClicks),
		EmailClicks:      PercentChange(last.EmailClicks, prior.EmailClicks),
		BookingClicks:    PercentChange(last.BookingClicks, prior.BookingClicks),
	}
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
