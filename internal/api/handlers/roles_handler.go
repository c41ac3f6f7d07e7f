package handlers

import (
	"net/http"

	"github.com/courtroom-studio/engine/internal/api/types"
	"github.com/courtroom-studio/engine/internal/services"
)

type RolesHandler struct {
	roles services.RoleService
}

func NewRolesHandler(roles services.RoleService) *RolesHandler {
	return &RolesHandler{roles: roles}
}

// List godoc
// @Summary      Roles of a scenario in display order
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "scenario id"
// @Success      200  {object}  types.APIResponse{data=[]models.Role}
// @Router       /scenarios/{id}/roles [get]
func (h *RolesHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	roles, err := h.roles.List(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, roles)
}

// Create godoc
// @Summary      Add a role and its flow to a scenario
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                   true  "scenario id"
// @Param        body  body      types.RoleCreateRequest  true  "role"
// @Success      201   {object}  types.APIResponse{data=models.Role}
// @Failure      409   {object}  types.APIResponse
// @Router       /scenarios/{id}/roles [post]
func (h *RolesHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req types.RoleCreateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	role, err := h.roles.Create(r.Context(), actor(r), id, &services.RoleInput{
		Name:     req.Name,
		Color:    req.Color,
		Icon:     req.Icon,
		Required: req.Required,
		Order:    req.Order,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, role)
}

// Update godoc
// @Summary      Update a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                   true  "role id"
// @Param        body  body      types.RoleUpdateRequest  true  "changes"
// @Success      200   {object}  types.APIResponse{data=models.Role}
// @Router       /roles/{id} [patch]
func (h *RolesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req types.RoleUpdateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	role, err := h.roles.Update(r.Context(), actor(r), id, &services.RoleUpdate{
		Name:     req.Name,
		Color:    req.Color,
		Icon:     req.Icon,
		Required: req.Required,
		Order:    req.Order,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, role)
}

// Delete godoc
// @Summary      Delete a role with its flow and nodes
// @Tags         roles
// @Security     BearerAuth
// @Param        id  path  string  true  "role id"
// @Success      204
// @Router       /roles/{id} [delete]
func (h *RolesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.roles.Delete(r.Context(), actor(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
