package constants

import "sort"

// Jurisdiction is a 5-digit county FIPS code.
type Jurisdiction string

// Counties the collector is allowed to retain records for.
const (
	Fresno     Jurisdiction = "06019"
	Kern       Jurisdiction = "06029"
	Merced     Jurisdiction = "06047"
	SanJoaquin Jurisdiction = "06077"
)

var allowedJurisdictions = map[Jurisdiction]string{
	Fresno:     "Fresno",
	Kern:       "Kern",
	Merced:     "Merced",
	SanJoaquin: "San Joaquin",
}

// IsAllowed reports whether code belongs to the fixed allow-list.
func IsAllowed(code string) bool {
	_, ok := allowedJurisdictions[Jurisdiction(code)]
	return ok
}

// CountyName returns the display name for an allowed code, or "" if unknown.
func CountyName(code string) string {
	return allowedJurisdictions[Jurisdiction(code)]
}

// AllowedCodes returns the allow-list as a sorted string slice.
func AllowedCodes() []string {
	out := make([]string, 0, len(allowedJurisdictions))
	for code := range allowedJurisdictions {
		out = append(out, string(code))
	}
	sort.Strings(out)
	return out
}
