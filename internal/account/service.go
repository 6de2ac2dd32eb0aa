// Package account holds the per-process user state: the authentication flag,
// the profile and the saved-word list. Every mutation is written through to
// durable storage before the in-memory state is committed.
package account

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/projectlearn/vocaquiz/internal/domain"
	"github.com/projectlearn/vocaquiz/internal/errors"
	"github.com/projectlearn/vocaquiz/internal/event"
)

// Storage keys, fixed layout: userToken is a presence flag, the other two
// hold JSON. Absent keys mean logged-out with an empty saved list.
const (
	keyUserToken  = "userToken"
	keyUserData   = "userData"
	keySavedWords = "savedWords"
)

type Storage interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Store(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type Config struct {
	EventBus *event.Bus
	Storage  Storage
}

type Service struct {
	eb    *event.Bus
	store Storage

	mu            sync.Mutex
	authenticated bool
	user          *domain.UserProfile
	saved         []domain.SavedWord
}

func NewService(c Config) *Service {
	return &Service{
		eb:    c.EventBus,
		store: c.Storage,
	}
}

// Load hydrates the service from storage at startup. Read failures are logged
// and treated as absent keys; startup never fails on them.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token, ok := s.load(ctx, keyUserToken); ok && len(token) > 0 {
		s.authenticated = true

		if b, ok := s.load(ctx, keyUserData); ok {
			var u domain.UserProfile
			if err := json.Unmarshal(b, &u); err != nil {
				slog.WarnContext(ctx, "account: corrupt user data, ignoring", "error", err)
			} else {
				s.user = &u
			}
		}
	}

	if b, ok := s.load(ctx, keySavedWords); ok {
		var words []domain.SavedWord
		if err := json.Unmarshal(b, &words); err != nil {
			slog.WarnContext(ctx, "account: corrupt saved words, ignoring", "error", err)
		} else {
			s.saved = words
		}
	}

	return nil
}

func (s *Service) load(ctx context.Context, key string) ([]byte, bool) {
	b, ok, err := s.store.Load(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "account: load failed, falling back to default", "key", key, "error", err)
		return nil, false
	}
	return b, ok
}

type LoginRequest struct {
	Email    string
	Password string
}

// Login accepts any non-empty email/password pair and creates a synthetic
// profile. There is no credential verification behind this; it is a
// placeholder interface, not a security model.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*domain.UserProfile, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("email and password are required"))
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	u := &domain.UserProfile{
		ID:    id.String(),
		Name:  displayName(email),
		Email: email,
	}

	b, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("marshal user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Store(ctx, keyUserToken, []byte("1")); err != nil {
		return nil, err
	}
	if err := s.store.Store(ctx, keyUserData, b); err != nil {
		return nil, err
	}

	s.authenticated = true
	s.user = u

	s.eb.Publish(ctx, domain.EventAuthChanged{Authenticated: true, User: u})
	return u, nil
}

// Logout clears the authentication flag and the profile. Saved words stay.
// Storage failures are logged; the in-memory state is cleared regardless, so
// the user always ends up logged out.
func (s *Service) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range []string{keyUserToken, keyUserData} {
		if err := s.store.Delete(ctx, key); err != nil {
			slog.WarnContext(ctx, "account: logout cleanup failed", "key", key, "error", err)
		}
	}

	s.authenticated = false
	s.user = nil

	s.eb.Publish(ctx, domain.EventAuthChanged{Authenticated: false})
}

// SaveWord appends the word to the saved list. Duplicates are allowed; the
// list keeps one entry per save.
func (s *Service) SaveWord(ctx context.Context, w domain.SavedWord) error {
	if w.ID == "" || w.Word == "" {
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("word id and text are required"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := make([]domain.SavedWord, len(s.saved), len(s.saved)+1)
	copy(updated, s.saved)
	updated = append(updated, w)

	if err := s.persistSaved(ctx, updated); err != nil {
		return err
	}

	s.saved = updated
	s.eb.Publish(ctx, domain.EventWordSaved{Word: w})
	return nil
}

// RemoveWord drops every saved entry with the given ID. Removing an unknown
// ID is a no-op, not an error.
func (s *Service) RemoveWord(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := make([]domain.SavedWord, 0, len(s.saved))
	for _, w := range s.saved {
		if w.ID != id {
			updated = append(updated, w)
		}
	}

	if err := s.persistSaved(ctx, updated); err != nil {
		return err
	}

	s.saved = updated
	s.eb.Publish(ctx, domain.EventWordRemoved{WordID: id})
	return nil
}

// persistSaved writes the list before the caller commits it in memory.
func (s *Service) persistSaved(ctx context.Context, words []domain.SavedWord) error {
	b, err := json.Marshal(words)
	if err != nil {
		return fmt.Errorf("marshal saved words: %w", err)
	}
	return s.store.Store(ctx, keySavedWords, b)
}

// SavedWords returns a snapshot of the saved list.
func (s *Service) SavedWords() []domain.SavedWord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.SavedWord, len(s.saved))
	copy(out, s.saved)
	return out
}

func (s *Service) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// User returns the current profile, or nil when logged out.
func (s *Service) User() *domain.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// displayName derives a profile name from the email's local part.
func displayName(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
