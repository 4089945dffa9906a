package domain

import (
	"github.com/shopspring/decimal"
)

// Stats are the live dashboard counters.
type Stats struct {
	Total         int
	Students      int
	Professionals int
	Workshops     int
}

// Tally counts profile types. The switch is exhaustive over ProfileType, so
// Students+Professionals+Workshops always equals Total for valid input.
// Rows with an unrecognised type still count toward Total and land in
// Workshops alongside Other.
func Tally(types []ProfileType) Stats {
	s := Stats{Total: len(types)}
	for _, t := range types {
		switch t {
		case Student:
			s.Students++
		case WorkingProfessional:
			s.Professionals++
		default:
			s.Workshops++
		}
	}
	return s
}

var hundred = decimal.NewFromInt(100)

// Percent is the unclamped share of target reached, in percent.
func (s Stats) Percent(target int) decimal.Decimal {
	if target <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(s.Total)).
		Div(decimal.NewFromInt(int64(target))).
		Mul(hundred)
}

// PercentLabel renders Percent with two decimals, e.g. "0.00".
func (s Stats) PercentLabel(target int) string {
	return s.Percent(target).StringFixed(2)
}

// ProgressWidth is Percent clamped to [0, 100] for the progress bar.
func (s Stats) ProgressWidth(target int) float64 {
	p := s.Percent(target)
	switch {
	case p.LessThan(decimal.Zero):
		return 0
	case p.GreaterThan(hundred):
		return 100
	default:
		return p.InexactFloat64()
	}
}
