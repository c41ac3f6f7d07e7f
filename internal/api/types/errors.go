package types

import (
	"errors"
	"net/http"

	appErr "github.com/courtroom-studio/engine/pkg/errors"
)

// FromAppError renders err for the response envelope. Itemized problem lists
// travel verbatim in Errors.
func FromAppError(err error) *APIError {
	if err == nil {
		return nil
	}
	var e *appErr.AppError
	if errors.As(err, &e) {
		out := &APIError{Code: string(e.Code), Message: e.Message, Kind: e.Kind(), Errors: e.Items()}
		if e.Code == appErr.CodeInternal || e.Code == appErr.CodeUnknown {
			out.Message = "internal error"
		}
		return out
	}
	return &APIError{Code: string(appErr.CodeUnknown), Message: "internal error"}
}

// HTTPStatus maps an error code to its response status.
func HTTPStatus(err error) int {
	switch appErr.CodeOf(err) {
	case appErr.CodeInvalid:
		return http.StatusBadRequest
	case appErr.CodeValidationFailed, appErr.CodeImportSchema, appErr.CodeImportSyntax:
		return http.StatusUnprocessableEntity
	case appErr.CodeNotFound:
		return http.StatusNotFound
	case appErr.CodeConflict, appErr.CodeAlreadyExists, appErr.CodeGridExhausted:
		return http.StatusConflict
	case appErr.CodeUnauthorized:
		return http.StatusUnauthorized
	case appErr.CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
