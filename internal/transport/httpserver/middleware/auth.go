package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	userdomain "clinic-app-go/internal/domain/user"
	"clinic-app-go/internal/session"
	"clinic-app-go/pkg/logger"
)

type contextKey int

// LoginRequiredNotice is the notice query value RequireUser sends with its
// redirect to the login page.
const LoginRequiredNotice = "login_required"

const (
	userKey contextKey = iota
	sessionKey
)

// User is the authenticated caller of the current request.
type User struct {
	ID       uint
	Username string
}

type UserGetter interface {
	Get(ctx context.Context, id uint) (*userdomain.User, error)
}

// SessionAuth resolves the session cookie into a request-scoped session and,
// when the session is bound to an existing user, into a User.
type SessionAuth struct {
	sessions  *session.Manager
	users     UserGetter
	log       logger.Logger
	loginPath string
}

func NewSessionAuth(sessions *session.Manager, users UserGetter, log logger.Logger) *SessionAuth {
	return &SessionAuth{
		sessions:  sessions,
		users:     users,
		log:       log,
		loginPath: "/login",
	}
}

func (a *SessionAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := a.sessions.Load(r)
		if err != nil {
			a.log.InternalError("auth.session: load failed", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
			return
		}

		ctx := WithSession(r.Context(), sess)
		if sess.Authenticated() {
			found, err := a.users.Get(ctx, sess.UserID)
			switch {
			case err == nil:
				ctx = WithUser(ctx, User{ID: found.ID, Username: found.Username})
			case errors.Is(err, userdomain.ErrUserNotFound):
				a.log.Debug("auth.session: user no longer exists", "user_id", sess.UserID)
				sess.UserID = 0
			default:
				a.log.InternalError("auth.session: load user failed", err, "user_id", sess.UserID)
				writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser redirects anonymous callers to the login page. The notice
// travels in the query string so the redirect never writes a session.
func (a *SessionAuth) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}

		a.log.Debug("auth.require_user: anonymous request", "path", r.URL.Path)
		http.Redirect(w, r, a.loginPath+"?notice="+LoginRequiredNotice, http.StatusSeeOther)
	})
}

func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func UserFromContext(ctx context.Context) (User, bool) {
	value := ctx.Value(userKey)
	user, ok := value.(User)
	if !ok || user.ID == 0 {
		return User{}, false
	}
	return user, true
}

func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*session.Session)
	if !ok || sess == nil {
		return nil, false
	}
	return sess, true
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
