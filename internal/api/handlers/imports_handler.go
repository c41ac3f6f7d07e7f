package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/courtroom-studio/engine/internal/services"
	appErr "github.com/courtroom-studio/engine/pkg/errors"
)

type ImportsHandler struct {
	imports  services.ImportService
	maxBytes int64
}

func NewImportsHandler(imports services.ImportService, maxBytes int64) *ImportsHandler {
	return &ImportsHandler{imports: imports, maxBytes: maxBytes}
}

// Create godoc
// @Summary      Import a scenario document
// @Description  The whole document is materialized in one transaction or not at all.
// @Tags         imports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        auto_roles  query     bool                   false  "create roles missing from the catalog"
// @Param        body        body      scenariofile.Document  true   "scenario document"
// @Success      201         {object}  types.APIResponse{data=services.ImportResult}
// @Failure      422         {object}  types.APIResponse
// @Router       /imports [post]
func (h *ImportsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var opts services.ImportOptions
	if v := r.URL.Query().Get("auto_roles"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeErrorStr(w, r, http.StatusBadRequest, "auto_roles must be a boolean")
			return
		}
		opts.AutoCreateRoles = &b
	}

	body := io.Reader(r.Body)
	if h.maxBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, appErr.WithItems(appErr.CodeImportSyntax, "malformed scenario document",
				[]string{fmt.Sprintf("document exceeds %d bytes", tooLarge.Limit)}))
			return
		}
		writeErrorStr(w, r, http.StatusBadRequest, "could not read body")
		return
	}

	res, err := h.imports.Import(r.Context(), actor(r), data, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, res)
}
