package state

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tripbrain-dev/tripbrain/internal/store"
	apperrors "github.com/tripbrain-dev/tripbrain/pkg/app/errors"
)

// SessionState is the persistent context of one conversation session.
// ShownPlaceIDs is scoped to CurrentLocation and is cleared whenever the
// location changes; it never mixes identifiers from a previous location.
type SessionState struct {
	SessionID       string    `json:"session_id"`
	CurrentLocation string    `json:"current_location,omitempty"`
	CurrentLat      *float64  `json:"current_lat,omitempty"`
	CurrentLon      *float64  `json:"current_lon,omitempty"`
	ShownPlaceIDs   []string  `json:"shown_place_ids,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HasLocation reports whether the session has a resolved location.
func (s *SessionState) HasLocation() bool {
	return s.CurrentLocation != ""
}

// HasCoordinates reports whether both coordinates are present.
func (s *SessionState) HasCoordinates() bool {
	return s.CurrentLat != nil && s.CurrentLon != nil
}

// SameLocation compares two location names case-insensitively with
// whitespace normalization, so "paris" and " Paris " are the same place.
func SameLocation(a, b string) bool {
	return strings.EqualFold(normalizeName(a), normalizeName(b))
}

func normalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// Manager owns session state. Mutations for the same session are serialized
// with a per-session mutex; sessions never contend with each other. When the
// configured store is unreachable the manager degrades to an in-memory
// fallback so the turn can still proceed, and logs the degradation.
type Manager struct {
	store    store.Store
	fallback *store.MemoryStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	now func() time.Time
}

// NewManager creates a session state manager over the given store.
func NewManager(s store.Store) *Manager {
	return &Manager{
		store:    s,
		fallback: store.NewMemoryStore(),
		locks:    make(map[string]*sync.Mutex),
		now:      time.Now,
	}
}

func (m *Manager) sessionLock(sessionID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[sessionID] = lock
	}
	return lock
}

// GetOrCreate returns the state for a session, creating a default state for
// an unknown id. It never errors on unknown ids; only a full storage outage
// (primary and fallback) surfaces as STORAGE_UNAVAILABLE.
func (m *Manager) GetOrCreate(ctx context.Context, sessionID string) (*SessionState, error) {
	raw, err := m.store.Get(ctx, store.BucketState, sessionID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Warn().Err(err).Str("component", "state").Str("session_id", sessionID).
			Msg("state store unavailable, reading in-memory fallback")
		raw, err = m.fallback.Get(ctx, store.BucketState, sessionID)
	}
	if errors.Is(err, store.ErrNotFound) {
		return &SessionState{SessionID: sessionID}, nil
	}
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeSessionGet, "failed to load session state", err)
	}

	var sess SessionState
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, apperrors.New(apperrors.ErrCodeSessionGet, "failed to decode session state", err)
	}
	sess.SessionID = sessionID
	return &sess, nil
}

// UpdateLocation sets the current location and coordinates. When the new
// name differs from the stored one the shown-place set is cleared; an
// idempotent re-mention of the same location (case or spacing variants
// included) leaves the rotation state untouched.
func (m *Manager) UpdateLocation(ctx context.Context, sessionID, name string, lat, lon float64) (*SessionState, error) {
	var updated SessionState
	err := m.update(ctx, sessionID, func(sess *SessionState) {
		if !SameLocation(sess.CurrentLocation, name) {
			sess.ShownPlaceIDs = nil
		}
		sess.CurrentLocation = name
		sess.CurrentLat = &lat
		sess.CurrentLon = &lon
		updated = *sess
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// RecordShown appends place ids to the session's shown set, deduplicating.
func (m *Manager) RecordShown(ctx context.Context, sessionID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return m.update(ctx, sessionID, func(sess *SessionState) {
		seen := make(map[string]struct{}, len(sess.ShownPlaceIDs))
		for _, id := range sess.ShownPlaceIDs {
			seen[id] = struct{}{}
		}
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			sess.ShownPlaceIDs = append(sess.ShownPlaceIDs, id)
		}
	})
}

// Delete removes a session's state. Administrative operation; the turn
// pipeline never calls it.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if err := m.store.Delete(ctx, store.BucketState, sessionID); err != nil {
		return apperrors.New(apperrors.ErrCodeStorageUnavailable, "failed to delete session state", err)
	}
	return m.fallback.Delete(ctx, store.BucketState, sessionID)
}

// update performs a per-session serialized read-modify-write. The session
// lock is held only around the store mutation, never around provider I/O.
func (m *Manager) update(ctx context.Context, sessionID string, mutate func(*SessionState)) error {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	apply := func(current []byte, found bool) ([]byte, error) {
		sess := SessionState{SessionID: sessionID}
		if found {
			if err := json.Unmarshal(current, &sess); err != nil {
				// Corrupt state is replaced rather than wedging the session.
				sess = SessionState{SessionID: sessionID}
			}
			sess.SessionID = sessionID
		}
		mutate(&sess)
		sess.UpdatedAt = m.now()
		return json.Marshal(&sess)
	}

	err := m.store.Update(ctx, store.BucketState, sessionID, apply)
	if err == nil {
		return nil
	}

	log.Warn().Err(err).Str("component", "state").Str("session_id", sessionID).
		Msg("state store unavailable, writing in-memory fallback")
	if fbErr := m.fallback.Update(ctx, store.BucketState, sessionID, apply); fbErr != nil {
		return apperrors.New(apperrors.ErrCodeStorageUnavailable, "failed to persist session state", err)
	}
	return nil
}
