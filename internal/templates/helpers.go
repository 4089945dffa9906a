package templates

import (
	"slices"
	"strconv"

	"github.com/csg33k/pledge-wall/internal/domain"
)

// thousands formats n with comma separators, e.g. 1000000 -> "1,000,000".
func thousands(n int) string {
	s := strconv.Itoa(n)
	neg := false
	if n < 0 {
		neg, s = true, s[1:]
	}
	out := make([]byte, 0, len(s)+len(s)/3)
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

// hearts returns a slice of length n so templates can range over it.
func hearts(n int) []struct{} {
	return make([]struct{}, max(n, 0))
}

// checked reports whether item is selected in d.
func checked(d domain.Draft, item string) bool {
	return slices.Contains(d.Commitments, item)
}

// width renders a progress-bar width as a CSS percentage.
func width(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64) + "%"
}
