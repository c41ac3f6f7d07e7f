package handlers

import (
	"context"
	"net/http"

	"github.com/courtroom-studio/engine/internal/api/types"
	"github.com/courtroom-studio/engine/internal/models"
	"github.com/courtroom-studio/engine/internal/repository"
	"github.com/courtroom-studio/engine/internal/services"
	"github.com/google/uuid"
)

type ScenariosHandler struct {
	scenarios services.ScenarioService
}

func NewScenariosHandler(scenarios services.ScenarioService) *ScenariosHandler {
	return &ScenariosHandler{scenarios: scenarios}
}

// ValidationResponse is the body of a validation run.
type ValidationResponse struct {
	OK       bool     `json:"ok"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// List godoc
// @Summary      List visible scenarios
// @Tags         scenarios
// @Produce      json
// @Security     BearerAuth
// @Param        state      query     string  false  "draft, active or archived"
// @Param        page       query     int     false  "page"
// @Param        page_size  query     int     false  "page size"
// @Success      200        {object}  types.APIResponse{data=[]models.Scenario}
// @Router       /scenarios [get]
func (h *ScenariosHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size := pagination(r)
	state := r.URL.Query().Get("state")
	if !knownState(state) {
		writeErrorStr(w, r, http.StatusBadRequest, "unknown state "+state)
		return
	}

	items, total, err := h.scenarios.List(r.Context(), actor(r), repository.ScenarioFilters{State: state, Page: page, PageSize: size})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{
		Success: true,
		Data:    items,
		Meta:    &types.Meta{Page: page, PageSize: size, Total: total},
	})
}

func knownState(s string) bool {
	switch s {
	case "", models.ScenarioDraft, models.ScenarioActive, models.ScenarioArchived:
		return true
	}
	return false
}

// Create godoc
// @Summary      Create a draft scenario
// @Tags         scenarios
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      types.ScenarioCreateRequest  true  "scenario"
// @Success      201   {object}  types.APIResponse{data=models.Scenario}
// @Router       /scenarios [post]
func (h *ScenariosHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.ScenarioCreateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	s, err := h.scenarios.Create(r.Context(), actor(r), &services.CreateScenarioInput{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		Settings:    req.Settings,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, s)
}

// Get godoc
// @Summary      Get a scenario
// @Tags         scenarios
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "scenario id"
// @Success      200  {object}  types.APIResponse{data=models.Scenario}
// @Failure      404  {object}  types.APIResponse
// @Router       /scenarios/{id} [get]
func (h *ScenariosHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.scenarios.Get(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, s)
}

// Update godoc
// @Summary      Update scenario metadata
// @Tags         scenarios
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                       true  "scenario id"
// @Param        body  body      types.ScenarioUpdateRequest  true  "changes"
// @Success      200   {object}  types.APIResponse{data=models.Scenario}
// @Router       /scenarios/{id} [patch]
func (h *ScenariosHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req types.ScenarioUpdateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	s, err := h.scenarios.Update(r.Context(), actor(r), id, &services.UpdateScenarioInput{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		Settings:    req.Settings,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, s)
}

// Delete godoc
// @Summary      Delete a scenario with its roles, nodes and connections
// @Tags         scenarios
// @Security     BearerAuth
// @Param        id  path  string  true  "scenario id"
// @Success      204
// @Router       /scenarios/{id} [delete]
func (h *ScenariosHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.scenarios.Delete(r.Context(), actor(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Activate godoc
// @Summary      Validate and activate a scenario
// @Description  Fails with validation_failed and the error list when the graph has errors.
// @Tags         scenarios
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "scenario id"
// @Success      200  {object}  types.APIResponse{data=models.Scenario}
// @Failure      422  {object}  types.APIResponse
// @Router       /scenarios/{id}/activate [post]
func (h *ScenariosHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.scenarios.Activate)
}

// Archive godoc
// @Summary      Archive a scenario
// @Tags         scenarios
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "scenario id"
// @Success      200  {object}  types.APIResponse{data=models.Scenario}
// @Failure      409  {object}  types.APIResponse
// @Router       /scenarios/{id}/archive [post]
func (h *ScenariosHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.scenarios.Archive)
}

func (h *ScenariosHandler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, services.Actor, uuid.UUID) (*models.Scenario, error)) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	s, err := fn(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, s)
}

// Validate godoc
// @Summary      Run graph validation without changing state
// @Tags         scenarios
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "scenario id"
// @Success      200  {object}  types.APIResponse{data=ValidationResponse}
// @Router       /scenarios/{id}/validation [get]
func (h *ScenariosHandler) Validate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := h.scenarios.Validate(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := ValidationResponse{OK: report.OK(), Errors: []string{}, Warnings: []string{}}
	for _, i := range report.Errors {
		resp.Errors = append(resp.Errors, i.String())
	}
	for _, i := range report.Warnings {
		resp.Warnings = append(resp.Warnings, i.String())
	}
	writeData(w, r, http.StatusOK, resp)
}

// Outline godoc
// @Summary      Per-role node listing in dialogue order
// @Tags         scenarios
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "scenario id"
// @Success      200  {object}  types.APIResponse{data=[]dialogue.FlowOutline}
// @Router       /scenarios/{id}/outline [get]
func (h *ScenariosHandler) Outline(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.scenarios.Outline(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, out)
}

// Graph godoc
// @Summary      Full graph of a scenario
// @Tags         scenarios
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "scenario id"
// @Success      200  {object}  types.APIResponse{data=models.GraphSet}
// @Router       /scenarios/{id}/graph [get]
func (h *ScenariosHandler) Graph(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	g, err := h.scenarios.Graph(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, g)
}

// Export godoc
// @Summary      Export a scenario as an import document
// @Tags         scenarios
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "scenario id"
// @Success      200  {object}  scenariofile.Document
// @Router       /scenarios/{id}/export [get]
func (h *ScenariosHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := h.scenarios.Export(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="scenario-`+id.String()+`.json"`)
	writeJSON(w, http.StatusOK, doc)
}

// Imports godoc
// @Summary      Import history of a scenario
// @Tags         scenarios
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "scenario id"
// @Success      200  {object}  types.APIResponse{data=[]models.ImportRecord}
// @Router       /scenarios/{id}/imports [get]
func (h *ScenariosHandler) Imports(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	recs, err := h.scenarios.Imports(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, recs)
}
