package api

import "censorship/pkg/storage"

// CheckRequest is the body of POST /check. A null text is checked as an
// empty string.
type CheckRequest struct {
	Text     *string `json:"text"`
	Language string  `json:"language"`
}

type LanguagesResponse struct {
	Languages []string `json:"languages"`
	Default   string   `json:"default"`
}

type AddWordsRequest struct {
	Kind  storage.WordKind `json:"kind"`
	Words []string         `json:"words"`
}
