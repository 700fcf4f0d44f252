package segment

import "strings"

// abbreviations are lowercase tokens, without their trailing period, that do not end a sentence
var abbreviations = newSet(
	// Titles
	"dr", "mr", "mrs", "ms", "prof", "rev", "gen", "hon", "jr", "sr", "st",
	"capt", "col", "lt", "sgt", "gov", "sen", "rep", "mt",
	// Organizations and places
	"ltd", "co", "inc", "corp", "dept", "univ", "assn", "bros", "ave", "blvd",
	// Academic and English
	"fig", "figs", "eq", "ch", "sec", "vol", "pp", "ed", "eds", "est", "approx",
	"ph.d", "m.d", "b.a", "m.a", "u.s.a", "u.s", "u.k", "u.n",
	// Latin
	"e.g", "i.e", "etc", "vs", "viz", "al", "ca", "cf",
	// Time
	"a.m", "p.m", "a.d", "b.c",
	// Units
	"min", "max", "hr", "hrs", "yr", "yrs", "mm", "cm", "km", "mg", "kg",
	"ml", "oz", "lb", "lbs", "ft", "sq",
)

func newSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// IsAbbreviation reports whether token (case-insensitive, trailing periods ignored)
// is a known abbreviation
func IsAbbreviation(token string) bool {
	_, ok := abbreviations[strings.TrimRight(strings.ToLower(token), ".")]
	return ok
}
