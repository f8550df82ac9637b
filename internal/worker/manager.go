package worker

import (
	"context"
	"errors"
	"log"
	"sync"

	"harugo/internal/models"
	"harugo/internal/redis"
)

const queueLen = 16

// ErrBusy is returned when a user's turn queue is full.
var ErrBusy = errors.New("worker queue full for user")

// Answerer runs one conversation turn against the given history and returns
// the reply plus the reconciled history.
type Answerer interface {
	Answer(ctx context.Context, userID, question, sendDate, sendTime string, profile models.UserProfile, history *models.History) (string, *models.History, error)
}

// Request carries one conversation turn to a user's worker.
type Request struct {
	Context  context.Context
	UserID   string
	Question string
	SendDate string
	SendTime string
	Profile  models.UserProfile
}

type task struct {
	req      Request
	resultCh chan taskReturn
}

type taskReturn struct {
	reply string
	err   error
}

type userWorker struct {
	taskCh chan task
	stopCh chan struct{}

	mu      sync.Mutex
	history *models.History
}

// Manager gives every user a single worker goroutine that owns their
// conversation history, so turns for one user never interleave while turns
// for different users run concurrently. History snapshots go to redis so a
// restarted worker picks up where the conversation left off.
type Manager struct {
	companion Answerer
	cache     *historyCache

	mu      sync.Mutex
	workers map[string]*userWorker
}

func NewManager(companion Answerer, cache *redis.Client) *Manager {
	return &Manager{
		companion: companion,
		cache:     newHistoryCache(cache),
		workers:   make(map[string]*userWorker),
	}
}

// Ask queues one turn on the user's worker and waits for the reply. ErrBusy
// means the queue is full, not that the turn failed.
func (m *Manager) Ask(req Request) (string, error) {
	if req.UserID == "" {
		return "", errors.New("user id required")
	}
	state := m.ensureWorker(req.UserID)

	resultCh := make(chan taskReturn, 1)
	select {
	case state.taskCh <- task{req: req, resultCh: resultCh}:
	default:
		return "", ErrBusy
	}

	ret := <-resultCh
	return ret.reply, ret.err
}

// History returns a copy of the user's current conversation turns. A user
// with no worker has no history yet.
func (m *Manager) History(userID string) []models.Turn {
	m.mu.Lock()
	state := m.workers[userID]
	m.mu.Unlock()
	if state == nil {
		if history := m.cache.load(userID); history != nil {
			return history.Clone().Turns
		}
		return nil
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	if state.history == nil {
		return nil
	}
	return state.history.Clone().Turns
}

// Reset drops the user's conversation history, in memory and in the cache.
func (m *Manager) Reset(userID string) {
	m.mu.Lock()
	state := m.workers[userID]
	m.mu.Unlock()
	if state != nil {
		state.mu.Lock()
		state.history = nil
		state.mu.Unlock()
	}
	m.cache.drop(userID)
}

// Stop shuts down one user's worker. The cached snapshot stays so a later
// worker can resume the conversation.
func (m *Manager) Stop(userID string) {
	m.mu.Lock()
	if state, ok := m.workers[userID]; ok {
		close(state.stopCh)
	}
	m.mu.Unlock()
}

// StopAll shuts down every worker, for server shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	for _, state := range m.workers {
		close(state.stopCh)
	}
	m.mu.Unlock()
}

func (m *Manager) ensureWorker(userID string) *userWorker {
	m.mu.Lock()
	defer m.mu.Unlock()

	if state, ok := m.workers[userID]; ok {
		return state
	}

	state := &userWorker{
		taskCh:  make(chan task, queueLen),
		stopCh:  make(chan struct{}),
		history: m.cache.load(userID),
	}
	m.workers[userID] = state
	go m.runWorker(userID, state)
	return state
}

func (m *Manager) runWorker(userID string, state *userWorker) {
	defer func() {
		m.mu.Lock()
		delete(m.workers, userID)
		m.mu.Unlock()
	}()

	for {
		select {
		case <-state.stopCh:
			log.Printf("worker for user %s stopped", userID)
			return
		case t := <-state.taskCh:
			m.handleTurn(userID, state, t)
		}
	}
}

func (m *Manager) handleTurn(userID string, state *userWorker, t task) {
	ctx := t.req.Context
	if ctx == nil {
		ctx = context.Background()
	}

	state.mu.Lock()
	history := state.history
	state.mu.Unlock()

	reply, updated, err := m.companion.Answer(ctx, userID, t.req.Question, t.req.SendDate, t.req.SendTime, t.req.Profile, history)
	if err != nil {
		t.resultCh <- taskReturn{err: err}
		return
	}

	state.mu.Lock()
	state.history = updated
	state.mu.Unlock()
	m.cache.store(userID, updated)

	t.resultCh <- taskReturn{reply: reply}
}
