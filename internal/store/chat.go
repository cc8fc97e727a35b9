package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"vestia-backend/internal/models"
	"vestia-backend/internal/storage"
)

// ErrSendInFlight is returned when a send is attempted while another is
// outstanding. Sends are rejected, not queued.
var ErrSendInFlight = errors.New("chat: a request is already in flight")

// ChatStore owns the per-session conversation log and the single-flight send
// state. The full turn sequence is re-persisted after every append.
type ChatStore struct {
	backend storage.Store
	images  *ImageStore

	mu       sync.Mutex
	sessions map[string]*sessionState
}

type sessionState struct {
	streaming     bool
	cancel        context.CancelFunc
	responseTimes []int64
}

func NewChatStore(backend storage.Store, images *ImageStore) *ChatStore {
	return &ChatStore{
		backend:  backend,
		images:   images,
		sessions: make(map[string]*sessionState),
	}
}

// AppendUserTurn validates each attached image independently, stores the
// accepted ones and appends a user turn referencing them by id. Rejected
// images are reported but do not abort the turn.
func (s *ChatStore) AppendUserTurn(ctx context.Context, sessionID, text string, uploads []models.ImageUpload) (models.ChatTurn, []models.RejectedImage, error) {
	accepted, rejected := s.images.AddBatch(ctx, sessionID, uploads)

	ids := make([]string, 0, len(accepted))
	for _, img := range accepted {
		ids = append(ids, img.ID)
	}

	turn := models.ChatTurn{
		Role:      models.RoleUser,
		Text:      text,
		ImageIDs:  ids,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.append(ctx, sessionID, turn); err != nil {
		return models.ChatTurn{}, rejected, err
	}
	return turn, rejected, nil
}

// AppendBotTurn appends a bot reply (or a user-facing error text standing in
// for one, preserving user/bot alternation).
func (s *ChatStore) AppendBotTurn(ctx context.Context, sessionID, text string) (models.ChatTurn, error) {
	turn := models.ChatTurn{
		Role:      models.RoleBot,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.append(ctx, sessionID, turn); err != nil {
		return models.ChatTurn{}, err
	}
	return turn, nil
}

// History returns all turns in append order. Missing or corrupt persisted
// history degrades to an empty conversation.
func (s *ChatStore) History(ctx context.Context, sessionID string) []models.ChatTurn {
	raw, err := s.backend.Get(ctx, sessionID, storage.KeyHistory)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("chat: load history for session %s: %v", sessionID, err)
		}
		return nil
	}

	var turns []models.ChatTurn
	if err := json.Unmarshal(raw, &turns); err != nil {
		log.Printf("chat: corrupt history for session %s: %v", sessionID, err)
		return nil
	}
	return turns
}

// Clear empties the conversation, drops stored images and aborts any
// in-flight send.
func (s *ChatStore) Clear(ctx context.Context, sessionID string) error {
	s.CancelInFlight(sessionID)

	if err := s.backend.Delete(ctx, sessionID, storage.KeyHistory); err != nil {
		return fmt.Errorf("chat: clear history: %w", err)
	}
	if err := s.images.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("chat: clear images: %w", err)
	}

	s.mu.Lock()
	if state, ok := s.sessions[sessionID]; ok {
		state.responseTimes = nil
	}
	s.mu.Unlock()
	return nil
}

// BeginSend claims the session's single send slot and registers the cancel
// function for the outgoing request. A second send while one is outstanding
// is rejected outright.
func (s *ChatStore) BeginSend(sessionID string, cancel context.CancelFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.state(sessionID)
	if state.streaming {
		return ErrSendInFlight
	}
	state.streaming = true
	state.cancel = cancel
	return nil
}

// EndSend releases the send slot.
func (s *ChatStore) EndSend(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.state(sessionID)
	state.streaming = false
	state.cancel = nil
}

// CancelInFlight aborts the outstanding send, if any.
func (s *ChatStore) CancelInFlight(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.state(sessionID)
	if state.streaming && state.cancel != nil {
		state.cancel()
	}
}

// RecordResponseTime feeds the per-session stats counters.
func (s *ChatStore) RecordResponseTime(sessionID string, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.state(sessionID)
	state.responseTimes = append(state.responseTimes, elapsed.Milliseconds())
}

// Stats reports messages sent plus average and last response times.
func (s *ChatStore) Stats(ctx context.Context, sessionID string) models.ChatStats {
	sent := 0
	for _, turn := range s.History(ctx, sessionID) {
		if turn.Role == models.RoleUser {
			sent++
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stats := models.ChatStats{MessagesSent: sent}
	times := s.state(sessionID).responseTimes
	if len(times) > 0 {
		var sum int64
		for _, t := range times {
			sum += t
		}
		stats.AvgResponseMs = sum / int64(len(times))
		stats.LastResponseMs = times[len(times)-1]
	}
	return stats
}

// state must be called with s.mu held.
func (s *ChatStore) state(sessionID string) *sessionState {
	st, ok := s.sessions[sessionID]
	if !ok {
		st = &sessionState{}
		s.sessions[sessionID] = st
	}
	return st
}

func (s *ChatStore) append(ctx context.Context, sessionID string, turn models.ChatTurn) error {
	turns := s.History(ctx, sessionID)
	turns = append(turns, turn)

	raw, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("chat: encode history: %w", err)
	}
	if err := s.backend.Set(ctx, sessionID, storage.KeyHistory, raw); err != nil {
		return fmt.Errorf("chat: persist history: %w", err)
	}
	return nil
}
