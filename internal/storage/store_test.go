package storage

import (
	"context"
	"testing"

	"harugo/internal/models"
)

func TestUpsertUser(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	profile := models.UserProfile{UserID: "u1", Nickname: "dana", Gender: "female", MBTI: "INFP"}
	if err := store.UpsertUser(ctx, profile); err != nil {
		t.Fatalf("insert: %v", err)
	}

	profile.Nickname = "dan"
	if err := store.UpsertUser(ctx, profile); err != nil {
		t.Fatalf("update: %v", err)
	}

	var nickname string
	var count int
	row := store.db.QueryRow(`SELECT COUNT(*), MAX(nickname) FROM users WHERE id = 'u1'`)
	if err := row.Scan(&count, &nickname); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if count != 1 || nickname != "dan" {
		t.Fatalf("count=%d nickname=%q", count, nickname)
	}

	if err := store.UpsertUser(ctx, models.UserProfile{}); err == nil {
		t.Fatalf("expected error for missing user id")
	}
}

func TestSaveDiaryReplacesSameDate(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()
	if err := store.UpsertUser(ctx, models.UserProfile{UserID: "u1", Nickname: "dana"}); err != nil {
		t.Fatalf("upsert user: %v", err)
	}

	first := models.DaySummary{Date: "2026-08-28", Mood: "sad", Diary: "A rough start."}
	second := models.DaySummary{Date: "2026-08-28", Mood: "happy", Diary: "It got better.", ImageURL: "/uploads/x.png"}
	if err := store.SaveDiary(ctx, "u1", first); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := store.SaveDiary(ctx, "u1", second); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := store.DiaryOn(ctx, "u1", "2026-08-28")
	if err != nil {
		t.Fatalf("DiaryOn: %v", err)
	}
	if got == nil || got.Mood != "happy" || got.Diary != "It got better." {
		t.Fatalf("got %+v", got)
	}

	missing, err := store.DiaryOn(ctx, "u1", "1999-01-01")
	if err != nil || missing != nil {
		t.Fatalf("missing diary: %+v, %v", missing, err)
	}
}

func TestDiariesBetween(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()
	if err := store.UpsertUser(ctx, models.UserProfile{UserID: "u1", Nickname: "dana"}); err != nil {
		t.Fatalf("upsert user: %v", err)
	}

	for _, entry := range []models.DaySummary{
		{Date: "2026-08-24", Mood: "happy", Diary: "Monday"},
		{Date: "2026-08-26", Mood: "sad", Diary: "Wednesday"},
		{Date: "2026-09-01", Mood: "normal", Diary: "Out of range"},
	} {
		if err := store.SaveDiary(ctx, "u1", entry); err != nil {
			t.Fatalf("save diary: %v", err)
		}
	}

	records, err := store.DiariesBetween(ctx, "u1", "2026-08-24", "2026-08-30")
	if err != nil {
		t.Fatalf("DiariesBetween: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %+v", records)
	}
	if records[0].Sentiment != "POSITIVE" || records[1].Sentiment != "NEGATIVE" {
		t.Fatalf("sentiment mapping wrong: %+v", records)
	}
}

func TestSaveChat(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()
	if err := store.UpsertUser(ctx, models.UserProfile{UserID: "u1", Nickname: "dana"}); err != nil {
		t.Fatalf("upsert user: %v", err)
	}

	if err := store.SaveChat(ctx, "u1", models.RoleUser, "hello", "2026-08-28", "10:00:00"); err != nil {
		t.Fatalf("save chat: %v", err)
	}
	var count int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM chats WHERE user_id = 'u1'`).Scan(&count); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d", count)
	}
}
