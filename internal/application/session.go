package application

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sidhync-maker/workshop/internal/domain"
)

// Session is the logged-in state handed to the presentation layer. Token is
// only populated on the value returned from Create.
type Session struct {
	Token     string    `json:"token,omitempty"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s Session) IsManager() bool {
	return s.Role == domain.RoleManager
}

// SessionStore keeps sessions in memory keyed by the SHA-256 of the token.
// Sessions end at logout, expiry or process exit.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]Session
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionStore{
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
		sessions: make(map[string]Session),
	}
}

func (s *SessionStore) Create(u domain.User) (Session, error) {
	plain, hash, err := newTokenPair()
	if err != nil {
		return Session{}, err
	}

	now := s.now()
	sess := Session{
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[hash] = sess
	s.mu.Unlock()

	sess.Token = plain
	return sess, nil
}

func (s *SessionStore) Get(token string) (Session, error) {
	if strings.TrimSpace(token) == "" {
		return Session{}, domain.ErrUnauthorized
	}
	hash := hashToken(token)

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[hash]
	if !ok {
		return Session{}, domain.ErrUnauthorized
	}
	if !sess.ExpiresAt.After(s.now()) {
		delete(s.sessions, hash)
		return Session{}, fmt.Errorf("%w: session expired", domain.ErrUnauthorized)
	}
	return sess, nil
}

func (s *SessionStore) Delete(token string) {
	if strings.TrimSpace(token) == "" {
		return
	}
	s.mu.Lock()
	delete(s.sessions, hashToken(token))
	s.mu.Unlock()
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func newTokenPair() (string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	plain := base64.RawURLEncoding.EncodeToString(raw)
	return plain, hashToken(plain), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", sum[:])
}
