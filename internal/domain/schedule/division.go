package schedule

import "strings"

// Division identifies a trade division: a base category (the trade itself)
// plus a project-type segment.
type Division string

const (
	DivisionPlumbingMultifamily Division = "plumbing_multifamily"
	DivisionPlumbingCommercial  Division = "plumbing_commercial"
	DivisionPlumbingCustom      Division = "plumbing_custom"
	DivisionHVACMultifamily     Division = "hvac_multifamily"
	DivisionHVACCommercial      Division = "hvac_commercial"
	DivisionHVACCustom          Division = "hvac_custom"
)

// AllDivisions returns every recognized division value.
func AllDivisions() []Division {
	return []Division{
		DivisionPlumbingMultifamily,
		DivisionPlumbingCommercial,
		DivisionPlumbingCustom,
		DivisionHVACMultifamily,
		DivisionHVACCommercial,
		DivisionHVACCustom,
	}
}

// IsValid checks if the division is a recognized value.
func (d Division) IsValid() bool {
	for _, v := range AllDivisions() {
		if d == v {
			return true
		}
	}
	return false
}

// Base returns the trade category, e.g. "plumbing" for plumbing_commercial.
func (d Division) Base() string {
	if i := strings.IndexByte(string(d), '_'); i > 0 {
		return string(d)[:i]
	}
	return string(d)
}

// Segment returns the project-type segment, e.g. "commercial".
func (d Division) Segment() string {
	if i := strings.IndexByte(string(d), '_'); i >= 0 {
		return string(d)[i+1:]
	}
	return ""
}

// Compatible reports whether two divisions share the same base category.
// Crews move freely between segments of the same trade.
func (d Division) Compatible(other Division) bool {
	return d.Base() == other.Base()
}
