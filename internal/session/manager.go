package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultCookieName = "clinic_session"
	defaultTTL        = 24 * time.Hour
)

type Options struct {
	Secret       string
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
}

// Manager binds sessions in a Store to browser cookies. The cookie carries an
// HS256-signed token whose jti is the session id.
type Manager struct {
	store      Store
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
	now        func() time.Time
}

func NewManager(store Store, opts Options) *Manager {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	name := opts.CookieName
	if name == "" {
		name = defaultCookieName
	}
	return &Manager{
		store:      store,
		secret:     []byte(opts.Secret),
		ttl:        ttl,
		cookieName: name,
		secure:     opts.CookieSecure,
		now:        time.Now,
	}
}

// New returns an unsaved session for userID; zero means anonymous.
func (m *Manager) New(userID uint) *Session {
	return &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: m.now().Add(m.ttl),
	}
}

// Load resolves the request's session. A missing, forged or expired cookie
// yields a fresh anonymous session rather than an error.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return m.New(0), nil
	}

	id, err := m.parseToken(cookie.Value)
	if err != nil {
		return m.New(0), nil
	}

	s, err := m.store.Get(r.Context(), id)
	if errors.Is(err, ErrSessionNotFound) {
		return m.New(0), nil
	}
	if err != nil {
		return nil, err
	}
	s.persisted = true
	return s, nil
}

// Save persists the session and refreshes the cookie. An anonymous session
// without flashes is not worth keeping and is dropped instead.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if !s.Authenticated() && len(s.Flashes) == 0 {
		if s.persisted {
			return m.Destroy(ctx, w, s)
		}
		return nil
	}

	token, err := m.signToken(s)
	if err != nil {
		return err
	}
	if err := m.store.Put(ctx, s); err != nil {
		return err
	}
	s.persisted = true

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Destroy removes the session from the store and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if s != nil && s.persisted {
		if err := m.store.Delete(ctx, s.ID); err != nil {
			return err
		}
		s.persisted = false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Renew replaces old with a new session bound to userID, carrying over
// pending flashes. Used on login so a pre-login session id is never reused.
func (m *Manager) Renew(ctx context.Context, w http.ResponseWriter, old *Session, userID uint) (*Session, error) {
	fresh := m.New(userID)
	if old != nil {
		fresh.Flashes = old.PopFlashes()
		if old.persisted {
			if err := m.store.Delete(ctx, old.ID); err != nil {
				return nil, err
			}
			old.persisted = false
		}
	}
	if err := m.Save(ctx, w, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

func (m *Manager) signToken(s *Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        s.ID,
		IssuedAt:  jwt.NewNumericDate(m.now()),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

func (m *Manager) parseToken(value string) (string, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(value, &claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid session token: %w", err)
	}
	if claims.ID == "" {
		return "", errors.New("invalid session token: missing id")
	}
	return claims.ID, nil
}
