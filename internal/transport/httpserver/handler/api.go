package handler

import (
	"errors"
	"net/http"

	clinicdomain "clinic-app-go/internal/domain/clinic"
)

type clientResponse struct {
	ID       uint     `json:"id"`
	Name     string   `json:"name"`
	Age      int      `json:"age"`
	Gender   string   `json:"gender"`
	Programs []string `json:"programs"`
}

type clientListResponse struct {
	Clients []clientResponse `json:"clients"`
}

func (h *Handlers) APIGetClient(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "client_not_found", "client not found")
		return
	}

	summary, err := h.Clinic.GetClientSummary(r.Context(), id)
	if err != nil {
		if errors.Is(err, clinicdomain.ErrClientNotFound) {
			h.log.BusinessError("api.get_client: client not found", err, "client_id", id)
			writeError(w, http.StatusNotFound, "client_not_found", "client not found")
			return
		}
		h.log.InternalError("api.get_client: get failed", err, "client_id", id)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, mapClient(*summary))
}

func (h *Handlers) APIListClients(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.Clinic.ListClientSummaries(r.Context())
	if err != nil {
		h.log.InternalError("api.list_clients: list failed", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	response := clientListResponse{Clients: make([]clientResponse, 0, len(summaries))}
	for _, summary := range summaries {
		response.Clients = append(response.Clients, mapClient(summary))
	}
	writeJSON(w, http.StatusOK, response)
}

func mapClient(summary clinicdomain.ClientSummary) clientResponse {
	return clientResponse{
		ID:       summary.Client.ID,
		Name:     summary.Client.Name,
		Age:      summary.Client.Age,
		Gender:   summary.Client.Gender,
		Programs: summary.Programs,
	}
}
