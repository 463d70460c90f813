package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/cortexerrors"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError classifies err by its cortexerrors.Kind (spec §7's
// error-handling design) and writes the matching HTTP status. Unclassified
// errors are treated as internal.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var valErrs validator.ValidationErrors
	if errors.As(err, &valErrs) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: valErrs.Error()})
		return
	}

	var ce *cortexerrors.CortexError
	if errors.As(err, &ce) {
		switch ce.Kind {
		case cortexerrors.KindValidation:
			writeJSON(w, http.StatusBadRequest, errorBody{Error: ce.Error()})
			return
		case cortexerrors.KindUpstream:
			logger.Warn("upstream failure surfaced to caller", zap.Error(err))
			writeJSON(w, http.StatusBadGateway, errorBody{Error: ce.Error()})
			return
		case cortexerrors.KindInvariant:
			logger.Error("invariant violation", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: ce.Error()})
			return
		case cortexerrors.KindFatal:
			logger.Error("fatal store error", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: ce.Error()})
			return
		}
	}

	logger.Error("unclassified handler error", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
}

func decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return cortexerrors.NewValidation("invalid request body: " + err.Error())
	}
	if err := validateStruct(dst); err != nil {
		return err
	}
	return nil
}
