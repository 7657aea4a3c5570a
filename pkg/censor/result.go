package censor

import "encoding/json"

// Result is the outcome of a single check. It is never modified after
// being returned.
type Result struct {
	sourceString           string
	cleanString            string
	profanitiesCount       int
	uniqueProfanitiesFound []string
}

func (r *Result) HasProfanity() bool {
	return len(r.uniqueProfanitiesFound) > 0
}

// ProfanitiesCount returns the number of matches, repeated words included.
func (r *Result) ProfanitiesCount() int {
	return r.profanitiesCount
}

// UniqueProfanitiesFound returns the distinct dictionary words matched, in
// order of first appearance in the text.
func (r *Result) UniqueProfanitiesFound() []string {
	return append([]string(nil), r.uniqueProfanitiesFound...)
}

func (r *Result) SourceString() string {
	return r.sourceString
}

// CleanString returns the source text with every match masked.
func (r *Result) CleanString() string {
	return r.cleanString
}

type resultJSON struct {
	SourceString           string   `json:"source_string"`
	CleanString            string   `json:"clean_string"`
	HasProfanity           bool     `json:"has_profanity"`
	ProfanitiesCount       int      `json:"profanities_count"`
	UniqueProfanitiesFound []string `json:"unique_profanities_found"`
}

func (r *Result) MarshalJSON() ([]byte, error) {
	found := r.uniqueProfanitiesFound
	if found == nil {
		found = []string{}
	}
	return json.Marshal(resultJSON{
		SourceString:           r.sourceString,
		CleanString:            r.cleanString,
		HasProfanity:           r.HasProfanity(),
		ProfanitiesCount:       r.profanitiesCount,
		UniqueProfanitiesFound: found,
	})
}
