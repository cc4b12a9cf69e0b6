package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"blackboxbe/internal/domain/models"
	"blackboxbe/internal/domain/ports"
)

// ErrorResponse — тело ответа с ошибкой.
type ErrorResponse struct {
	Message     string `json:"message"`
	Description string `json:"description,omitempty"`
	Reason      string `json:"reason,omitempty"` // причина отказа для ответов 422
}

// SendJSONErr пишет ошибку в лог и отправляет её клиенту.
func SendJSONErr(log ports.Logger, w http.ResponseWriter, code int, originErr error, msgToSend string) {
	resp := ErrorResponse{Message: msgToSend}
	if originErr != nil {
		resp.Description = originErr.Error()
		log.Error("api error", "code", code, "error", originErr)
	}
	SendJSON(log, w, code, resp)
}

// SendJSON отправляет данные в формате JSON.
func SendJSON(log ports.Logger, w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		log.Error("encode response", "error", err)
	}
}

// sendServiceErr переводит ошибку сервиса в код ответа.
// Отказы по фискальным правилам возвращаются с текстом для пользователя и причиной.
func sendServiceErr(log ports.Logger, w http.ResponseWriter, err error, msg string) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		SendJSON(log, w, http.StatusUnprocessableEntity, ErrorResponse{
			Message: verr.Message,
			Reason:  verr.Reason.Error(),
		})
	case errors.Is(err, models.ErrNotFound):
		SendJSONErr(log, w, http.StatusNotFound, err, "not found")
	default:
		SendJSONErr(log, w, http.StatusInternalServerError, err, msg)
	}
}
