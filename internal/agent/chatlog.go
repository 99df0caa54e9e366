package agent

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tripbrain-dev/tripbrain/internal/store"
)

// ChatLog is one persisted turn. It is audit data only: context resolution
// reads session state, never the transcript.
type ChatLog struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
	Timestamp   time.Time `json:"timestamp"`
}

// saveChatLog persists the turn best-effort; a storage failure is logged as
// degraded mode and never fails the turn.
func (s *Service) saveChatLog(ctx context.Context, sessionID, userMessage, botResponse string) {
	if s.deps.ChatStore == nil {
		return
	}

	entry := ChatLog{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		UserMessage: userMessage,
		BotResponse: botResponse,
		Timestamp:   time.Now().UTC(),
	}

	raw, err := json.Marshal(&entry)
	if err != nil {
		return
	}

	key := sessionID + ":" + entry.ID
	if err := s.deps.ChatStore.Put(ctx, store.BucketChats, key, raw); err != nil {
		log.Warn().Err(err).Str("component", "agent").Str("session_id", sessionID).
			Msg("failed to persist chat log, continuing without it")
	}
}
