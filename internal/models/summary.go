package models

// Summary is the structured result of analyzing a batch of articles.
// RawResponse is only populated when the model reply could not be parsed
// as JSON and the fallback summary was returned instead.
type Summary struct {
	Summary         string   `json:"summary"`
	KeyPoints       []string `json:"key_points"`
	Sentiment       string   `json:"sentiment"`
	PotentialImpact string   `json:"potential_impact"`
	RawResponse     string   `json:"raw_response,omitempty"`
}
