package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	clinicdomain "clinic-app-go/internal/domain/clinic"
	"clinic-app-go/internal/metrics"
	"clinic-app-go/internal/session"
)

type enrollPage struct {
	Client   clinicdomain.Client
	Programs []clinicdomain.Program
	Enrolled map[uint]bool
}

func (h *Handlers) EnrollForm(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		h.notFound(w, r, "Client not found.")
		return
	}

	profile, err := h.Clinic.GetClientProfile(r.Context(), id)
	if err != nil {
		h.clientError(w, r, "enrollments.form", err, id)
		return
	}
	programs, err := h.Clinic.ListPrograms(r.Context())
	if err != nil {
		h.internalError(w, r, "enrollments.form: list programs failed", err, "client_id", id)
		return
	}

	enrolled := make(map[uint]bool, len(profile.Programs))
	for _, program := range profile.Programs {
		enrolled[program.ID] = true
	}
	h.render(w, r, http.StatusOK, "enroll_client", "Enroll "+profile.Client.Name, enrollPage{
		Client:   profile.Client,
		Programs: programs,
		Enrolled: enrolled,
	})
}

func (h *Handlers) Enroll(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		h.notFound(w, r, "Client not found.")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, "error", "Invalid input", errorPage{Status: http.StatusBadRequest, Message: "Malformed form."})
		return
	}

	result, err := h.Clinic.Enroll(r.Context(), id, parseIDs(r.PostForm["programs"]))
	if err != nil {
		h.clientError(w, r, "enrollments.enroll", err, id)
		return
	}

	metrics.EnrollmentsTotal.WithLabelValues("enrolled").Add(float64(len(result.Enrolled)))
	h.log.Info("enrollments.enroll: enrollment processed",
		"client_id", id,
		"enrolled", len(result.Enrolled),
		"already_enrolled", len(result.AlreadyEnrolled),
		"unknown", len(result.Unknown),
	)

	if len(result.Enrolled) > 0 {
		h.flash(r, session.FlashSuccess, "Enrolled in "+programNames(result.Enrolled)+".")
	}
	if len(result.AlreadyEnrolled) > 0 {
		h.flash(r, session.FlashInfo, "Already enrolled in "+programNames(result.AlreadyEnrolled)+".")
	}
	if len(result.Unknown) > 0 {
		h.flash(r, session.FlashWarning, fmt.Sprintf("%d selected program(s) no longer exist.", len(result.Unknown)))
	}
	if len(result.Enrolled)+len(result.AlreadyEnrolled)+len(result.Unknown) == 0 {
		h.flash(r, session.FlashInfo, "No programs selected.")
	}
	h.redirect(w, r, clientPath(id))
}

func (h *Handlers) Unenroll(w http.ResponseWriter, r *http.Request) {
	clientID, ok := parseIDParam(r, "id")
	if !ok {
		h.notFound(w, r, "Client not found.")
		return
	}
	programID, ok := parseIDParam(r, "programID")
	if !ok {
		h.notFound(w, r, "Program not found.")
		return
	}

	ref, err := h.Clinic.Unenroll(r.Context(), clientID, programID)
	if err != nil {
		switch {
		case errors.Is(err, clinicdomain.ErrNotEnrolled):
			h.log.BusinessError("enrollments.unenroll: client not enrolled", err, "client_id", clientID, "program_id", programID)
			h.flash(r, session.FlashWarning, ref.Client.Name+" is not enrolled in "+ref.Program.Name+".")
			h.redirect(w, r, clientPath(clientID))
		case errors.Is(err, clinicdomain.ErrClientNotFound):
			h.log.BusinessError("enrollments.unenroll: client not found", err, "client_id", clientID)
			h.notFound(w, r, "Client not found.")
		case errors.Is(err, clinicdomain.ErrProgramNotFound):
			h.log.BusinessError("enrollments.unenroll: program not found", err, "program_id", programID)
			h.notFound(w, r, "Program not found.")
		default:
			h.internalError(w, r, "enrollments.unenroll: unenroll failed", err, "client_id", clientID, "program_id", programID)
		}
		return
	}

	metrics.EnrollmentsTotal.WithLabelValues("unenrolled").Inc()
	h.log.Info("enrollments.unenroll: client unenrolled", "client_id", clientID, "program_id", programID)
	h.flash(r, session.FlashSuccess, ref.Client.Name+" has been unenrolled from "+ref.Program.Name+".")
	h.redirect(w, r, clientPath(clientID))
}

func programNames(programs []clinicdomain.Program) string {
	names := make([]string, 0, len(programs))
	for _, program := range programs {
		names = append(names, program.Name)
	}
	return strings.Join(names, ", ")
}
