package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	clinicdomain "clinic-app-go/internal/domain/clinic"
	"clinic-app-go/internal/session"
)

type editClientPage struct {
	Client clinicdomain.Client
	Name   string
	Age    string
	Errors map[string]string
}

type clientsPage struct {
	Search  string
	Clients []clinicdomain.Client
}

func (h *Handlers) RegisterClientForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register_client", "Register client", clientForm{})
}

func (h *Handlers) RegisterClient(w http.ResponseWriter, r *http.Request) {
	form := readClientForm(r)
	if form.Errors = validateForm(form); form.Errors != nil {
		h.render(w, r, http.StatusBadRequest, "register_client", "Register client", form)
		return
	}
	age, err := parseAge(form.Age)
	if err != nil {
		form.Errors = map[string]string{"age": "age must be a whole number"}
		h.render(w, r, http.StatusBadRequest, "register_client", "Register client", form)
		return
	}

	client, err := h.Clinic.RegisterClient(r.Context(), clinicdomain.CreateClientInput{
		Name:   form.Name,
		Age:    age,
		Gender: form.Gender,
	})
	if err != nil {
		switch {
		case errors.Is(err, clinicdomain.ErrClientExists):
			h.log.BusinessError("clients.register: client already exists", err, "name", form.Name)
			h.flash(r, session.FlashWarning, "Client "+form.Name+" already exists.")
			h.redirect(w, r, "/client/register")
		case errors.Is(err, clinicdomain.ErrInvalidInput):
			form.Errors = map[string]string{"form": err.Error()}
			h.render(w, r, http.StatusBadRequest, "register_client", "Register client", form)
		default:
			h.internalError(w, r, "clients.register: create failed", err, "name", form.Name)
		}
		return
	}

	h.log.Info("clients.register: client registered", "client_id", client.ID, "name", client.Name)
	h.flash(r, session.FlashSuccess, "Client "+client.Name+" registered.")
	h.redirect(w, r, clientPath(client.ID))
}

func (h *Handlers) ViewClient(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		h.notFound(w, r, "Client not found.")
		return
	}

	profile, err := h.Clinic.GetClientProfile(r.Context(), id)
	if err != nil {
		h.clientError(w, r, "clients.get", err, id)
		return
	}
	h.render(w, r, http.StatusOK, "client", profile.Client.Name, profile)
}

func (h *Handlers) EditClientForm(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		h.notFound(w, r, "Client not found.")
		return
	}

	client, err := h.Clinic.GetClient(r.Context(), id)
	if err != nil {
		h.clientError(w, r, "clients.edit", err, id)
		return
	}
	h.render(w, r, http.StatusOK, "edit_client", "Edit client", editClientPage{
		Client: *client,
		Name:   client.Name,
		Age:    strconv.Itoa(client.Age),
	})
}

func (h *Handlers) EditClient(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		h.notFound(w, r, "Client not found.")
		return
	}

	form := readClientEditForm(r)
	input := clinicdomain.UpdateClientInput{ID: id}
	if form.Errors = validateForm(form); form.Errors == nil {
		if form.Name != "" {
			input.Name = &form.Name
		}
		if form.Age != "" {
			age, err := parseAge(form.Age)
			if err != nil {
				form.Errors = map[string]string{"age": "age must be a whole number"}
			} else {
				input.Age = &age
			}
		}
	}
	if form.Errors != nil {
		client, err := h.Clinic.GetClient(r.Context(), id)
		if err != nil {
			h.clientError(w, r, "clients.edit", err, id)
			return
		}
		h.render(w, r, http.StatusBadRequest, "edit_client", "Edit client", editClientPage{
			Client: *client,
			Name:   form.Name,
			Age:    form.Age,
			Errors: form.Errors,
		})
		return
	}

	updated, err := h.Clinic.UpdateClient(r.Context(), input)
	if err != nil {
		if errors.Is(err, clinicdomain.ErrClientExists) {
			h.log.BusinessError("clients.edit: name already taken", err, "client_id", id, "name", form.Name)
			h.flash(r, session.FlashWarning, "Client "+form.Name+" already exists.")
			h.redirect(w, r, clientPath(id)+"/edit")
			return
		}
		h.clientError(w, r, "clients.edit", err, id)
		return
	}

	h.log.Info("clients.edit: client updated", "client_id", updated.ID, "name", updated.Name)
	h.flash(r, session.FlashSuccess, "Client "+updated.Name+" updated.")
	h.redirect(w, r, clientPath(updated.ID))
}

func (h *Handlers) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		h.notFound(w, r, "Client not found.")
		return
	}

	deleted, err := h.Clinic.DeleteClient(r.Context(), id)
	if err != nil {
		h.clientError(w, r, "clients.delete", err, id)
		return
	}

	h.log.Info("clients.delete: client deleted", "client_id", deleted.ID, "name", deleted.Name)
	h.flash(r, session.FlashSuccess, "Client "+deleted.Name+" deleted.")
	h.redirect(w, r, "/clients")
}

// ListClients serves both the plain list and the search form; the term is
// read from the form body or the query string.
func (h *Handlers) ListClients(w http.ResponseWriter, r *http.Request) {
	term := r.FormValue("search")
	clients, err := h.Clinic.ListClients(r.Context(), term)
	if err != nil {
		h.internalError(w, r, "clients.list: list failed", err, "search", term)
		return
	}
	h.render(w, r, http.StatusOK, "clients", "Clients", clientsPage{Search: term, Clients: clients})
}

// clientError renders the page for a failed client lookup or update.
func (h *Handlers) clientError(w http.ResponseWriter, r *http.Request, action string, err error, id uint) {
	switch {
	case errors.Is(err, clinicdomain.ErrClientNotFound):
		h.log.BusinessError(action+": client not found", err, "client_id", id)
		h.notFound(w, r, "Client not found.")
	case errors.Is(err, clinicdomain.ErrInvalidInput):
		h.log.BusinessError(action+": invalid input", err, "client_id", id)
		h.render(w, r, http.StatusBadRequest, "error", "Invalid input", errorPage{Status: http.StatusBadRequest, Message: err.Error()})
	default:
		h.internalError(w, r, action+": failed", err, "client_id", id)
	}
}

func clientPath(id uint) string {
	return fmt.Sprintf("/client/%d", id)
}
