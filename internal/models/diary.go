package models

// DaySummary is the diary pipeline's output for one day of conversation.
type DaySummary struct {
	Mood     string `json:"mood"`
	Diary    string `json:"daySummaryDescription"`
	ImageURL string `json:"daySummaryImage"`
	Date     string `json:"date"`
}

// DailyRecord is one day's sentiment and diary text fed into the weekly
// analysis.
type DailyRecord struct {
	Date      string `json:"date"`
	Sentiment string `json:"sentiment"`
	Diary     string `json:"diary"`
}

// WeekReport is the four-part weekly analysis.
type WeekReport struct {
	Feedback       string `json:"feedback"`
	Summary        string `json:"week_summary"`
	Suggestions    string `json:"suggestion"`
	Recommendation string `json:"recommendation"`
}
