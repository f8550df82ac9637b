package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"harugo/internal/models"
)

// Store wraps the domain writes and reads the handlers need. Generated
// queries from the grounding agent go straight to the *sql.DB instead.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func nowStamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

// UpsertUser records the profile attached to a request. Update-then-insert
// keeps the statement portable across sqlite and mysql.
func (s *Store) UpsertUser(ctx context.Context, profile models.UserProfile) error {
	if profile.UserID == "" {
		return fmt.Errorf("upsert user: user id required")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET nickname = ?, gender = ?, mbti = ? WHERE id = ?`,
		profile.Nickname, profile.Gender, profile.MBTI, profile.UserID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if affected > 0 {
		return nil
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, nickname, gender, mbti, created_at) VALUES (?, ?, ?, ?, ?)`,
		profile.UserID, profile.Nickname, profile.Gender, profile.MBTI, nowStamp())
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// SaveChat appends one message to the conversation log.
func (s *Store) SaveChat(ctx context.Context, userID string, role models.Role, content, sentDate, sentTime string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chats (user_id, role, content, sent_date, sent_time, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, string(role), content, sentDate, sentTime, nowStamp())
	if err != nil {
		return fmt.Errorf("save chat: %w", err)
	}
	return nil
}

// SaveDiary stores the day's entry, replacing an earlier entry for the same
// date.
func (s *Store) SaveDiary(ctx context.Context, userID string, summary models.DaySummary) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM diaries WHERE user_id = ? AND date = ?`, userID, summary.Date); err != nil {
		return fmt.Errorf("replace diary: %w", err)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO diaries (user_id, date, mood, content, image_url, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, summary.Date, summary.Mood, summary.Diary, summary.ImageURL, nowStamp())
	if err != nil {
		return fmt.Errorf("save diary: %w", err)
	}
	return nil
}

// DiaryOn returns the entry for one date, or nil when none exists.
func (s *Store) DiaryOn(ctx context.Context, userID, date string) (*models.DaySummary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT date, mood, content, COALESCE(image_url, '') FROM diaries WHERE user_id = ? AND date = ?`,
		userID, date)
	var summary models.DaySummary
	if err := row.Scan(&summary.Date, &summary.Mood, &summary.Diary, &summary.ImageURL); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("load diary: %w", err)
	}
	return &summary, nil
}

// DiariesBetween returns the entries in [from, to] in date order, as the
// records the weekly report consumes.
func (s *Store) DiariesBetween(ctx context.Context, userID, from, to string) ([]models.DailyRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, mood, content FROM diaries WHERE user_id = ? AND date >= ? AND date <= ? ORDER BY date`,
		userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load diaries: %w", err)
	}
	defer rows.Close()

	var records []models.DailyRecord
	for rows.Next() {
		var record models.DailyRecord
		var mood string
		if err := rows.Scan(&record.Date, &mood, &record.Diary); err != nil {
			return nil, fmt.Errorf("scan diary: %w", err)
		}
		record.Sentiment = sentimentFromMood(mood)
		records = append(records, record)
	}
	return records, rows.Err()
}

func sentimentFromMood(mood string) string {
	switch mood {
	case "happy":
		return "POSITIVE"
	case "sad":
		return "NEGATIVE"
	default:
		return "NEUTRAL"
	}
}
