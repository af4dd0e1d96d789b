package handler

import (
	"errors"
	"net/http"

	userdomain "clinic-app-go/internal/domain/user"
	"clinic-app-go/internal/metrics"
	"clinic-app-go/internal/session"
	"clinic-app-go/internal/transport/httpserver/middleware"
)

func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserFromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("notice") == middleware.LoginRequiredNotice {
		h.flash(r, session.FlashInfo, "Please log in to access this page.")
	}
	h.render(w, r, http.StatusOK, "login", "Log in", credentialsForm{})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	form := readCredentialsForm(r)
	if form.Errors = validateForm(form); form.Errors != nil {
		h.render(w, r, http.StatusBadRequest, "login", "Log in", form)
		return
	}

	h.log.Info("auth.login: login attempt", "username", form.Username)
	user, err := h.Users.Authenticate(r.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, userdomain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("failed").Inc()
			h.log.BusinessError("auth.login: failed login attempt", err, "username", form.Username)
			h.flash(r, session.FlashError, "Invalid username or password.")
			h.render(w, r, http.StatusUnauthorized, "login", "Log in", form)
			return
		}
		h.internalError(w, r, "auth.login: authenticate failed", err, "username", form.Username)
		return
	}

	current, _ := middleware.SessionFromContext(r.Context())
	if _, err := h.sessions.Renew(r.Context(), w, current, user.ID); err != nil {
		h.internalError(w, r, "auth.login: start session failed", err, "user_id", user.ID)
		return
	}
	metrics.LoginsTotal.WithLabelValues("succeeded").Inc()
	h.log.Info("auth.login: user logged in", "user_id", user.ID)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if current, ok := middleware.SessionFromContext(r.Context()); ok {
		if err := h.sessions.Destroy(r.Context(), w, current); err != nil {
			h.internalError(w, r, "auth.logout: destroy session failed", err)
			return
		}
	}

	next := h.sessions.New(0)
	next.AddFlash(session.FlashInfo, "You have been logged out.")
	h.saveSession(w, r, next)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handlers) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register", "Register", credentialsForm{})
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	form := readCredentialsForm(r)
	if form.Errors = validateForm(form); form.Errors != nil {
		h.render(w, r, http.StatusBadRequest, "register", "Register", form)
		return
	}

	created, err := h.Users.Register(r.Context(), form.Username, form.Password)
	if err != nil {
		switch {
		case errors.Is(err, userdomain.ErrUserExists):
			h.log.BusinessError("auth.register: failed register attempt", err, "username", form.Username)
			h.flash(r, session.FlashWarning, "That username is already taken.")
			h.redirect(w, r, "/register")
		case errors.Is(err, userdomain.ErrInvalidInput):
			h.log.BusinessError("auth.register: invalid input", err, "username", form.Username)
			form.Errors = map[string]string{"form": err.Error()}
			h.render(w, r, http.StatusBadRequest, "register", "Register", form)
		default:
			h.internalError(w, r, "auth.register: create user failed", err, "username", form.Username)
		}
		return
	}

	h.log.Info("auth.register: user created", "user_id", created.ID, "username", created.Username)
	h.flash(r, session.FlashSuccess, "Account created. You can log in now.")
	h.redirect(w, r, "/login")
}

// DeleteAccount removes the current user and ends the session.
func (h *Handlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := h.Users.Delete(r.Context(), user.ID); err != nil && !errors.Is(err, userdomain.ErrUserNotFound) {
		h.internalError(w, r, "auth.delete_user: delete failed", err, "user_id", user.ID)
		return
	}
	if current, ok := middleware.SessionFromContext(r.Context()); ok {
		if err := h.sessions.Destroy(r.Context(), w, current); err != nil {
			h.log.InternalError("auth.delete_user: destroy session failed", err, "user_id", user.ID)
		}
	}

	h.log.Info("auth.delete_user: user deleted", "user_id", user.ID, "username", user.Username)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	found, err := h.Users.Get(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, userdomain.ErrUserNotFound) {
			h.notFound(w, r, "User not found.")
			return
		}
		h.internalError(w, r, "auth.profile: load user failed", err, "user_id", user.ID)
		return
	}
	h.render(w, r, http.StatusOK, "profile", "Profile", found)
}
