package handler

import (
	"errors"
	"net/http"

	clinicdomain "clinic-app-go/internal/domain/clinic"
	"clinic-app-go/internal/session"
)

type dashboardPage struct {
	Programs []clinicdomain.Program
}

func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	programs, err := h.Clinic.ListPrograms(r.Context())
	if err != nil {
		h.internalError(w, r, "programs.list: list failed", err)
		return
	}
	h.render(w, r, http.StatusOK, "dashboard", "Dashboard", dashboardPage{Programs: programs})
}

func (h *Handlers) CreateProgramForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "create_program", "New program", programForm{})
}

func (h *Handlers) CreateProgram(w http.ResponseWriter, r *http.Request) {
	form := readProgramForm(r)
	if form.Errors = validateForm(form); form.Errors != nil {
		h.render(w, r, http.StatusBadRequest, "create_program", "New program", form)
		return
	}

	program, err := h.Clinic.CreateProgram(r.Context(), clinicdomain.CreateProgramInput{
		Name:        form.Name,
		Description: form.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, clinicdomain.ErrProgramExists):
			h.log.BusinessError("programs.create: program already exists", err, "name", form.Name)
			h.flash(r, session.FlashWarning, "Program "+form.Name+" already exists.")
			h.redirect(w, r, "/program/create")
		case errors.Is(err, clinicdomain.ErrInvalidInput):
			form.Errors = map[string]string{"name": err.Error()}
			h.render(w, r, http.StatusBadRequest, "create_program", "New program", form)
		default:
			h.internalError(w, r, "programs.create: create failed", err, "name", form.Name)
		}
		return
	}

	h.log.Info("programs.create: program created", "program_id", program.ID, "name", program.Name)
	h.flash(r, session.FlashSuccess, "Program "+program.Name+" created.")
	h.redirect(w, r, "/dashboard")
}

func (h *Handlers) ViewProgram(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		h.notFound(w, r, "Program not found.")
		return
	}

	details, err := h.Clinic.GetProgram(r.Context(), id)
	if err != nil {
		if errors.Is(err, clinicdomain.ErrProgramNotFound) {
			h.log.BusinessError("programs.get: program not found", err, "program_id", id)
			h.notFound(w, r, "Program not found.")
			return
		}
		h.internalError(w, r, "programs.get: get failed", err, "program_id", id)
		return
	}
	h.render(w, r, http.StatusOK, "program", details.Program.Name, details)
}

func (h *Handlers) DeleteProgram(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		h.notFound(w, r, "Program not found.")
		return
	}

	deleted, err := h.Clinic.DeleteProgram(r.Context(), id)
	if err != nil {
		if errors.Is(err, clinicdomain.ErrProgramNotFound) {
			h.log.BusinessError("programs.delete: program not found", err, "program_id", id)
			h.notFound(w, r, "Program not found.")
			return
		}
		h.internalError(w, r, "programs.delete: delete failed", err, "program_id", id)
		return
	}

	h.log.Info("programs.delete: program deleted", "program_id", deleted.ID, "name", deleted.Name)
	h.flash(r, session.FlashSuccess, "Program "+deleted.Name+" deleted.")
	h.redirect(w, r, "/dashboard")
}
