package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"clinic-app-go/internal/session"
	"clinic-app-go/internal/transport/httpserver/middleware"
	"clinic-app-go/internal/transport/httpserver/view"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorPage struct {
	Status  int
	Message string
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// render writes the named page with the pending flashes of the session.
func (h *Handlers) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	page := view.Page{Title: title, Data: data}
	if user, ok := middleware.UserFromContext(r.Context()); ok {
		page.Username = user.Username
	}

	sess, hasSession := middleware.SessionFromContext(r.Context())
	var popped bool
	if hasSession {
		for _, flash := range sess.PopFlashes() {
			page.Flashes = append(page.Flashes, view.Flash{Kind: flash.Kind, Message: flash.Message})
			popped = true
		}
	}

	var buf bytes.Buffer
	if err := h.views.Render(&buf, name, page); err != nil {
		h.log.InternalError("view.render: render failed", err, "page", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if popped {
		h.saveSession(w, r, sess)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// redirect persists the session, so queued flashes survive, and answers 303.
func (h *Handlers) redirect(w http.ResponseWriter, r *http.Request, url string) {
	if sess, ok := middleware.SessionFromContext(r.Context()); ok {
		h.saveSession(w, r, sess)
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func (h *Handlers) flash(r *http.Request, kind, message string) {
	if sess, ok := middleware.SessionFromContext(r.Context()); ok {
		sess.AddFlash(kind, message)
	}
}

func (h *Handlers) saveSession(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := h.sessions.Save(r.Context(), w, sess); err != nil {
		h.log.InternalError("session.save: save failed", err)
	}
}

func (h *Handlers) notFound(w http.ResponseWriter, r *http.Request, message string) {
	h.render(w, r, http.StatusNotFound, "error", "Not found", errorPage{Status: http.StatusNotFound, Message: message})
}

func (h *Handlers) internalError(w http.ResponseWriter, r *http.Request, message string, err error, args ...any) {
	h.log.InternalError(message, err, args...)
	h.render(w, r, http.StatusInternalServerError, "error", "Error", errorPage{Status: http.StatusInternalServerError, Message: "Something went wrong."})
}

// NotFound answers unmatched routes: JSON below /api, an HTML page elsewhere.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if isAPIPath(r.URL.Path) {
		writeError(w, http.StatusNotFound, "not_found", "not found")
		return
	}
	h.notFound(w, r, "The requested page was not found.")
}

func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if isAPIPath(r.URL.Path) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	h.render(w, r, http.StatusMethodNotAllowed, "error", "Method not allowed", errorPage{Status: http.StatusMethodNotAllowed, Message: "Method not allowed."})
}

func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}
