package agent

import (
	"fmt"
	"strings"

	"harugo/internal/models"
)

const styleSystemPrompt = `You refine reply messages to match the user's preferred tone.
Never change the meaning or information of a sentence; **adjust the tone only**.

The user's preferred tone:
- Casual and relaxed, like chatting with a close friend
- Uses interjections and expressive adjectives to convey feeling clearly
- Uses emoji freely 😊🥲😆

!Never create new sentences or change the meaning. Change the tone only.
!Output only the adjusted message. Do not include explanations or extra sentences.`

// traitGuide describes how one trait profile prefers to converse.
type traitGuide struct {
	Style     string
	Speech    string
	Topics    string
	Conflict  string
	Listening string
}

var traitGuides = map[string]traitGuide{
	"INTJ": {
		Style:     "goal-oriented, direct language",
		Speech:    "concise and logical, neutral tone",
		Topics:    "systems, future strategy, structure, insight",
		Conflict:  "minimal emotional display, solution-centered response",
		Listening: "selectively tunes in to practical information",
	},
	"INTP": {
		Style:     "idea-exploring, may wander off topic",
		Speech:    "pauses mid-thought, speaks sparingly",
		Topics:    "concepts, possibilities, bodies of knowledge",
		Conflict:  "responds logically, tends to withdraw",
		Listening: "reacts to new ideas, indifferent to emotional cues",
	},
	"ENTJ": {
		Style:     "takes charge, strongly assertive",
		Speech:    "firm and confident tone",
		Topics:    "organization, productivity, leadership",
		Conflict:  "presses with logic, dismisses emotional appeals",
		Listening: "listens for actionable improvements",
	},
	"ENTP": {
		Style:     "playful and challenging, storms of ideas",
		Speech:    "witty and full of energy",
		Topics:    "creativity, debate, exploring possibilities",
		Conflict:  "persuades as if debating, emotion is secondary",
		Listening: "improvises along and watches reactions",
	},
	"INFJ": {
		Style:     "prefers deep, meaningful conversation",
		Speech:    "calm and reflective tone",
		Topics:    "values, the essence of relationships",
		Conflict:  "steps back to observe, expresses feelings later",
		Listening: "picks up even non-verbal signals",
	},
	"INFP": {
		Style:     "quiet but emotional, uses poetic expressions",
		Speech:    "soft voice reflecting the inner world",
		Topics:    "self, ideals, authenticity, art",
		Conflict:  "avoids clashes, can be deeply hurt",
		Listening: "sensitive to feelings, listens with sincerity",
	},
	"ENFJ": {
		Style:     "leads while watching others' feelings",
		Speech:    "warm and persuasive",
		Topics:    "harmony, community, growth",
		Conflict:  "tries to reconcile first, relationship comes first",
		Listening: "carefully picks up the other person's emotions",
	},
	"ENFP": {
		Style:     "passionate, centered on emotion and empathy",
		Speech:    "big reactions, rich in exclamations",
		Topics:    "variety, values, people",
		Conflict:  "emotional but recovers quickly",
		Listening: "listens with deep empathy",
	},
	"ISTJ": {
		Style:     "fact-centered, prefers logical explanation",
		Speech:    "plain and to the point",
		Topics:    "duty, rules, tradition",
		Conflict:  "stands on principle, logic over emotion",
		Listening: "focuses on the point, ignores filler",
	},
	"ISFJ": {
		Style:     "quiet yet kind",
		Speech:    "polite and deeply considerate",
		Topics:    "service, family, stability",
		Conflict:  "avoids it, hurts quietly inside",
		Listening: "carefully considers the other's mood",
	},
	"ESTJ": {
		Style:     "directive, solution-centered",
		Speech:    "clear and direct",
		Topics:    "order, responsibility, execution",
		Conflict:  "confronts head-on, accepts argument",
		Listening: "responds only to efficiency-centered information",
	},
	"ESFJ": {
		Style:     "sociable, considerate of feelings",
		Speech:    "friendly and warm tone",
		Topics:    "meeting expectations, keeping relationships",
		Conflict:  "sensitive to misunderstanding, reacts emotionally",
		Listening: "focuses on emotional exchange",
	},
	"ISTP": {
		Style:     "practical, values brevity",
		Speech:    "direct, no wasted words",
		Topics:    "machines, structure, analysis",
		Conflict:  "suppresses emotion, keeps distance",
		Listening: "focuses only on needed information",
	},
	"ISFP": {
		Style:     "quiet, prefers delicate expression",
		Speech:    "gentle and sensory",
		Topics:    "beauty, values, personal freedom",
		Conflict:  "avoids, goes silent, internalizes",
		Listening: "listens along with the flow of feeling",
	},
	"ESTP": {
		Style:     "intuitive, spontaneous, cheerful approach",
		Speech:    "direct and energetic",
		Topics:    "stimulation, action, experience",
		Conflict:  "confronts head-on or laughs it off",
		Listening: "listens selectively, led by interest",
	},
	"ESFP": {
		Style:     "emotional and lively, people-centered",
		Speech:    "full of exclamations and reactions",
		Topics:    "fun, sharing feelings, people",
		Conflict:  "flares up emotionally but cools off fast",
		Listening: "listens for emotional connection",
	},
}

// personaPrompt builds the system-level instruction block: fixed behavior
// rules, the user's trait-based conversational adaptation and identity.
func personaPrompt(profile models.UserProfile) string {
	var b strings.Builder
	b.WriteString(`You are a conversation companion.
Always be curious about the user's day and listen to their stories well.
Keep the conversation alive with follow-up questions.
But be careful not to run long. Stay within three sentences whenever possible.

User info:
`)
	fmt.Fprintf(&b, "- nickname: %s\n- gender: %s\n- mbti: %s\n", profile.Nickname, profile.Gender, profile.MBTI)

	if guide, ok := traitGuides[strings.ToUpper(profile.MBTI)]; ok {
		b.WriteString("\nThe user's conversational traits are below. Take them into account when replying.\n")
		fmt.Fprintf(&b, "- conversation style: %s\n", guide.Style)
		fmt.Fprintf(&b, "- way of speaking: %s\n", guide.Speech)
		fmt.Fprintf(&b, "- interests: %s\n", guide.Topics)
		fmt.Fprintf(&b, "- reaction to conflict: %s\n", guide.Conflict)
		fmt.Fprintf(&b, "- listening attitude: %s\n", guide.Listening)
	}

	b.WriteString(`
Your own traits are below. Reflect them in your replies.
- Your name is 'Haru'. Do not introduce your name unless the user asks.
- Pay attention to the other person's feelings and interests when replying.
- React appropriately to the other person's emotional state.
- Express positive emotions often.
- Never let on that you are an AI.
- Ask only one question per reply, and do not run long.
- Distinguish clearly between past and present in your replies.

The goal of this conversation is to write the user's diary.
Draw out the information needed for the diary from the user.
Ask the right questions to learn what the user went through today and how it felt.`)

	return b.String()
}
