package domain

import (
	"fmt"
)

// ProfileType is the closed set of pledger categories. The zero value is
// invalid so a missing form field never silently becomes a Student.
type ProfileType int

const (
	Student ProfileType = iota + 1
	WorkingProfessional
	Other
)

// ProfileTypes lists every variant in display order.
var ProfileTypes = []ProfileType{Student, WorkingProfessional, Other}

// String returns the wire/display value stored in the profile_type column.
func (p ProfileType) String() string {
	switch p {
	case Student:
		return "Student"
	case WorkingProfessional:
		return "Working Professional"
	case Other:
		return "Other"
	default:
		return fmt.Sprintf("ProfileType(%d)", int(p))
	}
}

// Valid reports whether p is one of the declared variants.
func (p ProfileType) Valid() bool {
	switch p {
	case Student, WorkingProfessional, Other:
		return true
	default:
		return false
	}
}

// ParseProfileType maps a stored/wire string to its variant.
func ParseProfileType(s string) (ProfileType, error) {
	for _, p := range ProfileTypes {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown profile type %q", s)
}
