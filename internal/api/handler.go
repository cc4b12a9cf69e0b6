// Package api — HTTP-интерфейс бэк-офиса, которым пользуются терминалы.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"blackboxbe/internal/domain/models"
	"blackboxbe/internal/domain/ports"
	"blackboxbe/internal/service/backoffice"

	"github.com/go-chi/chi/v5"
)

type Service interface {
	OpenSession(ctx context.Context, req backoffice.OpenSessionRequest) (models.SessionInfo, error)
	Session(ctx context.Context, id int64) (models.SessionInfo, error)
	WorkStatus(ctx context.Context, sessionID, cashierID int64, employee bool) (bool, error)
	SetWorkStatus(ctx context.Context, status models.WorkStatus) ([]int64, error)
	RegisterOrder(ctx context.Context, order models.OrderExport) error
	SaveDraft(ctx context.Context, order models.OrderExport) error
	DeleteOrder(ctx context.Context, uid string, userID int64) error
	IncreaseCashBoxOpening(ctx context.Context, sessionID int64) (int, error)
	SessionReport(ctx context.Context, sessionID int64) (models.Report, error)
	AuditLog(ctx context.Context, limit uint64) ([]models.AuditEntry, error)
}

type Handler struct {
	s   Service
	log ports.Logger
}

func NewHandler(s Service, log ports.Logger) *Handler {
	return &Handler{
		s:   s,
		log: log.With("component", "api"),
	}
}

type WorkStatusResponse struct {
	ClockedIn bool `json:"clocked_in"`
}

type SetWorkStatusResponse struct {
	ClockedIDs []int64 `json:"clocked_ids"`
}

type CashBoxOpeningResponse struct {
	CashBoxOpening int `json:"cash_box_opening_number"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

func (h *Handler) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	SendJSON(h.log, w, http.StatusOK, StatusResponse{Status: "ok"})
}

func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req backoffice.OpenSessionRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		SendJSONErr(h.log, w, http.StatusBadRequest, err, "invalid JSON")
		return
	}

	info, err := h.s.OpenSession(r.Context(), req)
	if err != nil {
		sendServiceErr(h.log, w, err, "failed to open session")
		return
	}

	SendJSON(h.log, w, http.StatusCreated, info)
}

func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	info, err := h.s.Session(r.Context(), id)
	if err != nil {
		sendServiceErr(h.log, w, err, "failed to get session")
		return
	}

	SendJSON(h.log, w, http.StatusOK, info)
}

func (h *Handler) WorkStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()

	cashierID, err := strconv.ParseInt(q.Get("cashier_id"), 10, 64)
	if err != nil {
		SendJSONErr(h.log, w, http.StatusBadRequest, err, "invalid cashier_id")
		return
	}

	employee := false
	if s := q.Get("employee"); s != "" {
		employee, err = strconv.ParseBool(s)
		if err != nil {
			SendJSONErr(h.log, w, http.StatusBadRequest, err, "invalid employee flag")
			return
		}
	}

	in, err := h.s.WorkStatus(r.Context(), id, cashierID, employee)
	if err != nil {
		sendServiceErr(h.log, w, err, "failed to get work status")
		return
	}

	SendJSON(h.log, w, http.StatusOK, WorkStatusResponse{ClockedIn: in})
}

func (h *Handler) SetWorkStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var status models.WorkStatus

	err := json.NewDecoder(r.Body).Decode(&status)
	if err != nil {
		SendJSONErr(h.log, w, http.StatusBadRequest, err, "invalid JSON")
		return
	}
	status.SessionID = id

	ids, err := h.s.SetWorkStatus(r.Context(), status)
	if err != nil {
		sendServiceErr(h.log, w, err, "failed to set work status")
		return
	}

	SendJSON(h.log, w, http.StatusOK, SetWorkStatusResponse{ClockedIDs: ids})
}

func (h *Handler) IncreaseCashBoxOpening(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	n, err := h.s.IncreaseCashBoxOpening(r.Context(), id)
	if err != nil {
		sendServiceErr(h.log, w, err, "failed to count cash box opening")
		return
	}

	SendJSON(h.log, w, http.StatusOK, CashBoxOpeningResponse{CashBoxOpening: n})
}

func (h *Handler) SessionReport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	report, err := h.s.SessionReport(r.Context(), id)
	if err != nil {
		sendServiceErr(h.log, w, err, "failed to build report")
		return
	}

	SendJSON(h.log, w, http.StatusOK, report)
}

func (h *Handler) RegisterOrder(w http.ResponseWriter, r *http.Request) {
	var order models.OrderExport

	err := json.NewDecoder(r.Body).Decode(&order)
	if err != nil {
		SendJSONErr(h.log, w, http.StatusBadRequest, err, "invalid JSON")
		return
	}

	err = h.s.RegisterOrder(r.Context(), order)
	if err != nil {
		sendServiceErr(h.log, w, err, "failed to register order")
		return
	}

	SendJSON(h.log, w, http.StatusOK, StatusResponse{Status: "registered"})
}

func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var order models.OrderExport

	err := json.NewDecoder(r.Body).Decode(&order)
	if err != nil {
		SendJSONErr(h.log, w, http.StatusBadRequest, err, "invalid JSON")
		return
	}

	err = h.s.SaveDraft(r.Context(), order)
	if err != nil {
		sendServiceErr(h.log, w, err, "failed to save draft")
		return
	}

	SendJSON(h.log, w, http.StatusOK, StatusResponse{Status: "saved"})
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	var userID int64
	if s := r.URL.Query().Get("user_id"); s != "" {
		var err error
		userID, err = strconv.ParseInt(s, 10, 64)
		if err != nil {
			SendJSONErr(h.log, w, http.StatusBadRequest, err, "invalid user_id")
			return
		}
	}

	err := h.s.DeleteOrder(r.Context(), uid, userID)
	if err != nil {
		sendServiceErr(h.log, w, err, "failed to delete order")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AuditLog(w http.ResponseWriter, r *http.Request) {
	const defaultLimit uint64 = 100

	limit := defaultLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			SendJSONErr(h.log, w, http.StatusBadRequest, err, "invalid limit")
			return
		}
		limit = n
	}

	entries, err := h.s.AuditLog(r.Context(), limit)
	if err != nil {
		sendServiceErr(h.log, w, err, "failed to read audit log")
		return
	}

	SendJSON(h.log, w, http.StatusOK, entries)
}

func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		SendJSONErr(h.log, w, http.StatusBadRequest, fmt.Errorf("invalid session id: %w", err), "invalid session id")
		return 0, false
	}
	return id, true
}
