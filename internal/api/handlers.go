package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"harugo/internal/models"
	"harugo/internal/worker"
)

// WorkerManager is the per-user conversation surface the handlers drive.
type WorkerManager interface {
	Ask(worker.Request) (string, error)
	History(userID string) []models.Turn
	Reset(userID string)
}

// DiaryService summarizes a day and reviews a week.
type DiaryService interface {
	SummarizeDay(ctx context.Context, date string, conversation []models.Turn) (models.DaySummary, error)
	AnalyzeWeek(ctx context.Context, records []models.DailyRecord) (models.WeekReport, error)
}

// Store persists users, chat logs and diary entries.
type Store interface {
	UpsertUser(ctx context.Context, profile models.UserProfile) error
	SaveChat(ctx context.Context, userID string, role models.Role, content, sentDate, sentTime string) error
	SaveDiary(ctx context.Context, userID string, summary models.DaySummary) error
	DiaryOn(ctx context.Context, userID, date string) (*models.DaySummary, error)
	DiariesBetween(ctx context.Context, userID, from, to string) ([]models.DailyRecord, error)
}

// Handler wires HTTP routes to the conversation workers and diary services.
type Handler struct {
	workers WorkerManager
	diary   DiaryService
	store   Store
}

func NewHandler(workers WorkerManager, diary DiaryService, store Store) *Handler {
	return &Handler{workers: workers, diary: diary, store: store}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	api.POST("/question", h.postQuestion)
	api.POST("/day-diary", h.postDayDiary)
	api.POST("/week-status", h.postWeekStatus)
	api.GET("/today", h.getToday)
}

type questionRequest struct {
	UserID      string `json:"userId"`
	Content     string `json:"content"`
	Gender      string `json:"gender"`
	Nickname    string `json:"nickname"`
	MBTI        string `json:"mbti"`
	SendingDate string `json:"sendingDate"`
	SendingTime string `json:"sendingTime"`
}

func (h *Handler) postQuestion(c *gin.Context) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and content are required"})
		return
	}
	now := time.Now()
	if req.SendingDate == "" {
		req.SendingDate = now.Format("2006-01-02")
	}
	if req.SendingTime == "" {
		req.SendingTime = now.Format("15:04:05")
	}

	profile := models.UserProfile{
		UserID:   req.UserID,
		Gender:   req.Gender,
		Nickname: req.Nickname,
		MBTI:     req.MBTI,
	}
	if err := h.store.UpsertUser(c.Request.Context(), profile); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.SaveChat(c.Request.Context(), req.UserID, models.RoleUser, req.Content, req.SendingDate, req.SendingTime); err != nil {
		log.Printf("api: save user chat failed: %v", err)
	}

	reply, err := h.workers.Ask(worker.Request{
		Context:  c.Request.Context(),
		UserID:   req.UserID,
		Question: req.Content,
		SendDate: req.SendingDate,
		SendTime: req.SendingTime,
		Profile:  profile,
	})
	if err != nil {
		if errors.Is(err, worker.ErrBusy) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "server is busy, please retry"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	if err := h.store.SaveChat(c.Request.Context(), req.UserID, models.RoleAssistant, reply, req.SendingDate, req.SendingTime); err != nil {
		log.Printf("api: save assistant chat failed: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"content": reply})
}

type dayDiaryRequest struct {
	UserID       string        `json:"userId"`
	Date         string        `json:"date"`
	Conversation []models.Turn `json:"conversation"`
}

func (h *Handler) postDayDiary(c *gin.Context) {
	var req dayDiaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	if req.Date == "" {
		req.Date = time.Now().Format("2006-01-02")
	}

	conversation := req.Conversation
	if len(conversation) == 0 {
		conversation = h.workers.History(req.UserID)
	}
	if len(conversation) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no conversation to summarize"})
		return
	}

	summary, err := h.diary.SummarizeDay(c.Request.Context(), req.Date, conversation)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.SaveDiary(c.Request.Context(), req.UserID, summary); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	// The diary closes the day, so the conversation starts over.
	h.workers.Reset(req.UserID)

	c.JSON(http.StatusOK, summary)
}

type weekStatusRequest struct {
	UserID     string               `json:"userId"`
	Date       string               `json:"date"`
	WeeklyData []models.DailyRecord `json:"weekly_data"`
}

func (h *Handler) postWeekStatus(c *gin.Context) {
	var req weekStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	records := req.WeeklyData
	if len(records) == 0 {
		end := req.Date
		if end == "" {
			end = time.Now().Format("2006-01-02")
		}
		endDay, err := time.Parse("2006-01-02", end)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
			return
		}
		start := endDay.AddDate(0, 0, -6).Format("2006-01-02")
		records, err = h.store.DiariesBetween(c.Request.Context(), req.UserID, start, end)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	report, err := h.diary.AnalyzeWeek(c.Request.Context(), records)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) getToday(c *gin.Context) {
	userID := c.Query("userId")
	if strings.TrimSpace(userID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	summary, err := h.store.DiaryOn(c.Request.Context(), userID, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if summary == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no diary for this date"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
