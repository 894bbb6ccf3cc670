package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
	"github.com/RoyceAzure/lab/orderadmin/internal/service"
	"github.com/RoyceAzure/lab/orderadmin/internal/view"
	"github.com/rs/zerolog/log"
)

var (
	ErrBadRequest = errors.New("bad request")
)

type Response struct {
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

type ResponseError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func SuccessJSON(w http.ResponseWriter, data any, message string) {
	writeJSON(w, http.StatusOK, Response{Data: data, Message: message})
}

func ErrorJSON(w http.ResponseWriter, status int, err error, message string) {
	body := ResponseError{Message: message}
	if err != nil {
		body.Error = err.Error()
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("encode response failed")
	}
}

// writeError 所有 sentinel 對應的狀態碼都在這裡
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrPartnerNotFound),
		errors.Is(err, view.ErrPrintJobNotFound):
		ErrorJSON(w, http.StatusNotFound, err, "not found")
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, model.ErrInvalidStatus),
		errors.Is(err, model.ErrUnknownOperation),
		errors.Is(err, model.ErrInvalidDocumentKind),
		errors.Is(err, view.ErrEmptySelection):
		ErrorJSON(w, http.StatusBadRequest, err, "bad request")
	case errors.Is(err, service.ErrIllegalTransition):
		ErrorJSON(w, http.StatusConflict, err, "conflict")
	case errors.Is(err, service.ErrStoreQuery):
		ErrorJSON(w, http.StatusServiceUnavailable, err, "order store unavailable")
	default:
		ErrorJSON(w, http.StatusInternalServerError, err, "internal server error")
	}
}
