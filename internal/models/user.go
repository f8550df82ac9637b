package models

// UserProfile carries the caller-supplied identity and trait fields used to
// parameterize the persona prompt. The core never persists it.
type UserProfile struct {
	UserID   string `json:"userId"`
	Gender   string `json:"gender"`
	Nickname string `json:"nickname"`
	MBTI     string `json:"mbti"`
}
