// Package session tags a connected stream with a signed, expiring token
// identifying the player it belongs to, so a reconnect can resume the same
// player without re-authenticating from scratch.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/fluffybytesoftware/fluffymud/internal/filedaemon/ferrors"
)

// Claims identifies the player a session token was issued for.
type Claims struct {
	PlayerID string `json:"player_id"`
	jwt.StandardClaims
}

// Config controls token lifetime and signing.
type Config struct {
	TokenExpiration time.Duration
	SecretKey       string
}

// Manager issues and validates player session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration

	mu     sync.Mutex
	issued map[string]time.Time

	stop chan struct{}
}

// NewManager constructs a Manager and starts its expired-token sweep. An
// empty SecretKey generates a random one, scoped to this process's
// lifetime. Call Close to stop the sweep goroutine.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.SecretKey == "" {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, ferrors.Wrap("session.NewManager", err)
		}
		cfg.SecretKey = base64.StdEncoding.EncodeToString(secret)
	}
	if cfg.TokenExpiration <= 0 {
		cfg.TokenExpiration = 24 * time.Hour
	}
	m := &Manager{
		secret: []byte(cfg.SecretKey),
		ttl:    cfg.TokenExpiration,
		issued: make(map[string]time.Time),
		stop:   make(chan struct{}),
	}
	go m.sweepLoop()
	return m, nil
}

// Close stops the background sweep goroutine.
func (m *Manager) Close() {
	close(m.stop)
}

func (m *Manager) sweepLoop() {
	interval := m.ttl / 4
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.sweep(now)
		}
	}
}

// Issue mints a token for playerID.
func (m *Manager) Issue(playerID string) (string, error) {
	claims := Claims{
		PlayerID: playerID,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(m.ttl).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", ferrors.Wrap("session.Issue", err)
	}

	m.mu.Lock()
	m.issued[signed] = time.Now().Add(m.ttl)
	m.mu.Unlock()
	return signed, nil
}

// Validate returns the player ID a token was issued for, if it is both
// well-formed and still tracked as issued (Revoke removes it early).
func (m *Manager) Validate(token string) (string, error) {
	m.mu.Lock()
	_, tracked := m.issued[token]
	m.mu.Unlock()
	if !tracked {
		return "", ferrors.Wrap("session.Validate", ferrors.InvariantViolation)
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return "", ferrors.Wrap("session.Validate", err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return "", ferrors.Wrap("session.Validate", ferrors.InvariantViolation)
	}
	return claims.PlayerID, nil
}

// Revoke removes token from the tracked set immediately.
func (m *Manager) Revoke(token string) {
	m.mu.Lock()
	delete(m.issued, token)
	m.mu.Unlock()
}

// sweep removes tokens past their expiry; callers drive this on a ticker.
func (m *Manager) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, expiry := range m.issued {
		if now.After(expiry) {
			delete(m.issued, token)
		}
	}
}
