package handlers

import (
	"net/http"

	"github.com/courtroom-studio/engine/internal/api/types"
	"github.com/courtroom-studio/engine/internal/services"
)

type NodesHandler struct {
	nodes   services.NodeService
	options services.OptionService
}

func NewNodesHandler(nodes services.NodeService, options services.OptionService) *NodesHandler {
	return &NodesHandler{nodes: nodes, options: options}
}

// Create godoc
// @Summary      Add a node to a flow
// @Description  Without coordinates the node goes to the first free grid cell.
// @Tags         nodes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                   true  "flow id"
// @Param        body  body      types.NodeCreateRequest  true  "node"
// @Success      201   {object}  types.APIResponse{data=models.Node}
// @Failure      409   {object}  types.APIResponse
// @Router       /flows/{id}/nodes [post]
func (h *NodesHandler) Create(w http.ResponseWriter, r *http.Request) {
	flowID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req types.NodeCreateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	n, err := h.nodes.Create(r.Context(), actor(r), flowID, &services.NodeInput{
		Kind:      req.Kind,
		Title:     req.Title,
		Content:   req.Content,
		IsInitial: req.IsInitial,
		X:         req.X,
		Y:         req.Y,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, n)
}

// Reorder godoc
// @Summary      Set the dialogue order of a flow
// @Tags         nodes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                  true  "flow id"
// @Param        body  body      types.NodeOrderRequest  true  "every node id of the flow"
// @Success      200   {object}  types.APIResponse{data=[]models.Node}
// @Router       /flows/{id}/order [put]
func (h *NodesHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	flowID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req types.NodeOrderRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ids, err := parseIDs(req.NodeIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}

	nodes, err := h.nodes.Reorder(r.Context(), actor(r), flowID, ids)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, nodes)
}

// Get godoc
// @Summary      Get a node with its options
// @Tags         nodes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "node id"
// @Success      200  {object}  types.APIResponse{data=models.Node}
// @Router       /nodes/{id} [get]
func (h *NodesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.nodes.Get(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, n)
}

// Update godoc
// @Summary      Update a node
// @Tags         nodes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                   true  "node id"
// @Param        body  body      types.NodeUpdateRequest  true  "changes"
// @Success      200   {object}  types.APIResponse{data=models.Node}
// @Failure      400   {object}  types.APIResponse
// @Router       /nodes/{id} [patch]
func (h *NodesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req types.NodeUpdateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	n, err := h.nodes.Update(r.Context(), actor(r), id, &services.NodeUpdate{
		Kind:      req.Kind,
		Title:     req.Title,
		Content:   req.Content,
		IsInitial: req.IsInitial,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, n)
}

// Move godoc
// @Summary      Move a node on the canvas
// @Description  The node snaps to the nearest free cell; the grid grows when needed.
// @Tags         nodes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "node id"
// @Param        body  body      types.NodeMoveRequest  true  "target position"
// @Success      200   {object}  types.APIResponse{data=models.Node}
// @Router       /nodes/{id}/position [put]
func (h *NodesHandler) Move(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req types.NodeMoveRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	n, err := h.nodes.Move(r.Context(), actor(r), id, *req.X, *req.Y)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, n)
}

// Delete godoc
// @Summary      Delete a node with its options and connections
// @Tags         nodes
// @Security     BearerAuth
// @Param        id  path  string  true  "node id"
// @Success      204
// @Router       /nodes/{id} [delete]
func (h *NodesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.nodes.Delete(r.Context(), actor(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddOption godoc
// @Summary      Add an answer option to a decision node
// @Tags         options
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                     true  "node id"
// @Param        body  body      types.OptionCreateRequest  true  "option"
// @Success      201   {object}  types.APIResponse{data=models.Option}
// @Failure      409   {object}  types.APIResponse
// @Router       /nodes/{id}/options [post]
func (h *NodesHandler) AddOption(w http.ResponseWriter, r *http.Request) {
	nodeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req types.OptionCreateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.options.Add(r.Context(), actor(r), nodeID, &services.OptionInput{
		Label: req.Label,
		Text:  req.Text,
		Color: req.Color,
		Score: req.Score,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, o)
}

// UpdateOption godoc
// @Summary      Update an option
// @Tags         options
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                     true  "option id"
// @Param        body  body      types.OptionUpdateRequest  true  "changes"
// @Success      200   {object}  types.APIResponse{data=models.Option}
// @Router       /options/{id} [patch]
func (h *NodesHandler) UpdateOption(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req types.OptionUpdateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.options.Update(r.Context(), actor(r), id, &services.OptionUpdate{
		Text:  req.Text,
		Color: req.Color,
		Score: req.Score,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, o)
}

// DeleteOption godoc
// @Summary      Delete an option and the connection it feeds
// @Tags         options
// @Security     BearerAuth
// @Param        id  path  string  true  "option id"
// @Success      204
// @Router       /options/{id} [delete]
func (h *NodesHandler) DeleteOption(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.options.Delete(r.Context(), actor(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
