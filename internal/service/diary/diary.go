package diary

import (
	"context"
	"fmt"
	"log"
	"strings"

	"harugo/internal/extract"
	"harugo/internal/models"
)

const summarySystemPrompt = "You are a diary-writing assistant. You summarize conversations " +
	"into the user's diary and give feedback on how their week went."

// ModelCaller is the slice of the gateway the summarizer needs.
type ModelCaller interface {
	Shape() models.ContentShape
	Generate(ctx context.Context, systemPrompt, userMessage string, history *models.History) (string, error)
}

// ImageGenerator turns a scene description into a served image URL.
type ImageGenerator interface {
	Generate(ctx context.Context, description string) (string, error)
}

// Service condenses a day's conversation into a diary entry and a week of
// entries into a report. Image generation is best effort: a failed or absent
// generator leaves the image URL empty.
type Service struct {
	model  ModelCaller
	images ImageGenerator
}

func NewService(model ModelCaller, images ImageGenerator) *Service {
	return &Service{model: model, images: images}
}

// SummarizeDay writes the diary entry for one day of conversation. The model
// reply is tag-structured; when the diary tag is missing the whole reply is
// kept as the diary so the user never loses their day.
func (s *Service) SummarizeDay(ctx context.Context, date string, conversation []models.Turn) (models.DaySummary, error) {
	prompt := fmt.Sprintf(`Summarize the user's day from the conversation below and write their diary.

Conversation:
%s

Rules:
- Write the diary in the first person, as the user.
- Keep only what actually happened and how the user felt about it.
- The illustration summary is one sentence describing a scene from the day, suitable for drawing.

Respond in exactly this format, keeping the bracket tags:
[DIARY_SUMMARY]
the diary entry
[ILLUSTRATION_SUMMARY]
one sentence describing the scene
[SENTIMENT]
POSITIVE, NEGATIVE or NEUTRAL`, renderConversation(conversation))

	scratch := models.NewHistory(s.model.Shape())
	reply, err := s.model.Generate(ctx, summarySystemPrompt, prompt, scratch)
	if err != nil {
		return models.DaySummary{}, fmt.Errorf("summarize day: %w", err)
	}

	entry := extract.Section(reply, "DIARY_SUMMARY")
	if entry == "" {
		entry = strings.TrimSpace(reply)
	}
	summary := models.DaySummary{
		Date:  date,
		Diary: entry,
		Mood:  moodFromSentiment(extract.Section(reply, "SENTIMENT")),
	}

	if scene := extract.Section(reply, "ILLUSTRATION_SUMMARY"); scene != "" && s.images != nil {
		url, err := s.images.Generate(ctx, scene)
		if err != nil {
			log.Printf("diary: illustration generation failed: %v", err)
		} else {
			summary.ImageURL = url
		}
	}
	return summary, nil
}

// AnalyzeWeek builds the weekly report from the given daily records. An empty
// week gets an explanatory report without a model call.
func (s *Service) AnalyzeWeek(ctx context.Context, records []models.DailyRecord) (models.WeekReport, error) {
	if len(records) == 0 {
		return models.WeekReport{
			Feedback: "There are no diary entries for this week yet. Keep chatting about your days and the weekly report will appear here.",
		}, nil
	}

	prompt := fmt.Sprintf(`Review the user's diary entries for the week below and write their weekly report.

This week's entries:
%s

Rules:
- The feedback is a warm, encouraging look at how the week went.
- The summary condenses the week into a few sentences.
- The suggestions give the user something concrete to try next week.
- The recommendation names one activity that fits the week's mood.

Respond in exactly this format, keeping the bracket tags:
[WEEK_FEEDBACK]
the feedback
[WEEK_SUMMARY]
the summary
[SUGGESTIONS]
the suggestions
[RECOMMENDATION]
the recommendation`, renderRecords(records))

	scratch := models.NewHistory(s.model.Shape())
	reply, err := s.model.Generate(ctx, summarySystemPrompt, prompt, scratch)
	if err != nil {
		return models.WeekReport{}, fmt.Errorf("analyze week: %w", err)
	}

	report := models.WeekReport{
		Feedback:       extract.Section(reply, "WEEK_FEEDBACK"),
		Summary:        extract.Section(reply, "WEEK_SUMMARY"),
		Suggestions:    extract.Section(reply, "SUGGESTIONS"),
		Recommendation: extract.Section(reply, "RECOMMENDATION"),
	}
	if report.Feedback == "" {
		report.Feedback = strings.TrimSpace(reply)
	}
	return report, nil
}

func moodFromSentiment(sentiment string) string {
	switch strings.ToUpper(strings.TrimSpace(sentiment)) {
	case "POSITIVE":
		return "happy"
	case "NEGATIVE":
		return "sad"
	default:
		return "normal"
	}
}

func renderConversation(turns []models.Turn) string {
	var b strings.Builder
	for _, turn := range turns {
		fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
	}
	return b.String()
}

func renderRecords(records []models.DailyRecord) string {
	var b strings.Builder
	for _, record := range records {
		fmt.Fprintf(&b, "- %s (%s): %s\n", record.Date, record.Sentiment, record.Diary)
	}
	return b.String()
}
