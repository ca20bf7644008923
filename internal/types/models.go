package types

import (
	"fmt"
	"strings"
)

type ShopperFlag string

const (
	Shopper    ShopperFlag = "Shoppers"
	NonShopper ShopperFlag = "Non-shoppers"
)

type SwitcherFlag string

const (
	Switcher    SwitcherFlag = "Switcher"
	NonSwitcher SwitcherFlag = "Non-switcher"
	NewToMarket SwitcherFlag = "New-to-market"
)

// PriceDirection is the normalised renewal premium change. The zero value
// means the direction could not be classified.
type PriceDirection string

const (
	PriceUp        PriceDirection = "Up"
	PriceDown      PriceDirection = "Down"
	PriceUnchanged PriceDirection = "Unchanged"
	PriceNew       PriceDirection = "New"
)

// Respondent is one survey response row. Strings are empty when the source
// cell was blank; integers are zero.
type Respondent struct {
	ID             int            `json:"id"`
	Product        string         `json:"product,omitempty"`
	RenewalPeriod  int            `json:"renewal_period,omitempty"`
	SurveyPeriod   int            `json:"survey_period,omitempty"`
	PriorInsurer   string         `json:"prior_insurer,omitempty"`
	CurrentInsurer string         `json:"current_insurer,omitempty"`
	Shopper        ShopperFlag    `json:"shopper_flag"`
	Switcher       SwitcherFlag   `json:"switcher_flag"`
	PriceChangeRaw string         `json:"price_change_raw,omitempty"`
	PriceDirection PriceDirection `json:"price_direction,omitempty"`
	PCWUsed        bool           `json:"pcw_used"`
	Negotiated     bool           `json:"negotiated"`
	HigherAmount   *float64       `json:"higher_amount,omitempty"`
	LowerAmount    *float64       `json:"lower_amount,omitempty"`
	SortOrder      int            `json:"sort_order,omitempty"`
	AgeBand        string         `json:"age_band,omitempty"`
	Region         string         `json:"region,omitempty"`
	PaymentType    string         `json:"payment_type,omitempty"`
	JourneySegment string         `json:"journey_segment,omitempty"`
	NPSCategory    string         `json:"nps_category,omitempty"`
	TenureBand     string         `json:"tenure_band,omitempty"`
	Fields         Fields         `json:"fields,omitempty"`
}

func (r Respondent) IsShopper() bool     { return r.Shopper == Shopper }
func (r Respondent) IsSwitcher() bool    { return r.Switcher == Switcher }
func (r Respondent) IsNewToMarket() bool { return r.Switcher == NewToMarket }
func (r Respondent) IsNonSwitcher() bool { return r.Switcher == NonSwitcher }

// Field returns a survey column by its normalised name.
func (r Respondent) Field(key string) string {
	return r.Fields.Get(key)
}

// Fields holds survey columns that have no dedicated struct field, keyed by
// normalised column name.
type Fields map[string]string

func (f Fields) Get(key string) string {
	if f == nil {
		return ""
	}
	return f[key]
}

// First returns the first non-empty value among keys.
func (f Fields) First(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(f.Get(k)); v != "" {
			return v
		}
	}
	return ""
}

// Truthy reports a Yes/true/1 answer, the coding used by yes/no and
// multi-code survey columns.
func Truthy(v string) bool {
	switch strings.TrimSpace(v) {
	case "Yes", "yes", "true", "1":
		return true
	}
	return false
}

var monthNames = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// PeriodDisplay formats a YYYYMM period as "Mon YY", e.g. 202502 -> "Feb 25".
func PeriodDisplay(period int) string {
	if period <= 0 {
		return ""
	}
	year, month := period/100, period%100
	name := "???"
	if month >= 1 && month <= 12 {
		name = monthNames[month-1]
	}
	return fmt.Sprintf("%s %02d", name, year%100)
}
