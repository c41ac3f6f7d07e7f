package handlers

import (
	"net/http"

	"github.com/courtroom-studio/engine/internal/api/types"
	"github.com/courtroom-studio/engine/internal/services"
	"github.com/google/uuid"
)

type ConnectionsHandler struct {
	connections services.ConnectionService
}

func NewConnectionsHandler(connections services.ConnectionService) *ConnectionsHandler {
	return &ConnectionsHandler{connections: connections}
}

// Create godoc
// @Summary      Connect two nodes of a scenario
// @Description  Decision nodes connect through one of their options.
// @Tags         connections
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                         true  "scenario id"
// @Param        body  body      types.ConnectionCreateRequest  true  "edge"
// @Success      201   {object}  types.APIResponse{data=models.Connection}
// @Failure      400   {object}  types.APIResponse
// @Failure      409   {object}  types.APIResponse
// @Router       /scenarios/{id}/connections [post]
func (h *ConnectionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	scenarioID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req types.ConnectionCreateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	// the validator already checked the uuid format
	in := &services.ConnectInput{
		FromNodeID: uuid.MustParse(req.FromNodeID),
		ToNodeID:   uuid.MustParse(req.ToNodeID),
		Label:      req.Label,
	}
	if req.OptionID != nil {
		id := uuid.MustParse(*req.OptionID)
		in.OptionID = &id
	}

	c, err := h.connections.Connect(r.Context(), actor(r), scenarioID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, c)
}

// Delete godoc
// @Summary      Remove a connection
// @Tags         connections
// @Security     BearerAuth
// @Param        id  path  string  true  "connection id"
// @Success      204
// @Router       /connections/{id} [delete]
func (h *ConnectionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.connections.Disconnect(r.Context(), actor(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
