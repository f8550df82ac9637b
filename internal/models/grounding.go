package models

// GroundingResult is the database agent's final verdict for one question. It
// is produced even when the pipeline fails internally, with the degraded
// fields carrying explanatory text.
type GroundingResult struct {
	IsSufficient bool   `json:"is_sufficient"`
	Explanation  string `json:"explanation"`
	QueryResults any    `json:"query_results"`
	Analysis     string `json:"analysis"`
}

// Relevance is the classifier's verdict on whether a question needs a
// database lookup.
type Relevance struct {
	NeedsDB        bool     `json:"needs_db"`
	Explanation    string   `json:"explanation"`
	PossibleTables []string `json:"possible_tables"`
}
