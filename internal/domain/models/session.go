package models

import (
	"sort"
	"sync"
	"time"

	"blackboxbe/pkg/plu"
)

// Cashier — пользователь или сотрудник, работающий на кассе.
type Cashier struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	INSZ string `json:"insz_or_bis_number"`
}

// ClockState — состояние отметки кассира в сессии.
type ClockState int

const (
	ClockedOut ClockState = iota
	ClockedIn
)

func (s ClockState) String() string {
	if s == ClockedIn {
		return "clocked in"
	}
	return "clocked out"
}

// Session — контекст открытой кассовой сессии.
// Передаётся сервисам явно; состояние отметок меняется только сервисом отметок.
type Session struct {
	ID                  int64
	ConfigName          string
	User                Cashier // владелец сессии
	HRMode              bool    // кассиры — сотрудники, а не пользователи
	FiscalMode          bool    // касса работает с фискальным модулем
	CertifiedIdentifier string
	WorkIn              Product
	WorkOut             Product
	Units               plu.UnitTable

	mu      sync.RWMutex
	cashier Cashier
	clocked map[int64]struct{}
}

// NewSession создаёт сессию; текущим кассиром становится владелец.
func NewSession(id int64, user Cashier) *Session {
	return &Session{
		ID:      id,
		User:    user,
		cashier: user,
		clocked: make(map[int64]struct{}),
	}
}

// Cashier возвращает текущего кассира.
func (s *Session) Cashier() Cashier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cashier
}

// SetCashier меняет текущего кассира.
func (s *Session) SetCashier(c Cashier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cashier = c
}

// ClockState возвращает состояние отметки кассира.
func (s *Session) ClockState(cashierID int64) ClockState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.clocked[cashierID]; ok {
		return ClockedIn
	}
	return ClockedOut
}

// IsCashierClocked сообщает, отмечен ли текущий кассир.
func (s *Session) IsCashierClocked() bool {
	return s.ClockState(s.Cashier().ID) == ClockedIn
}

// ClockedIDs возвращает идентификаторы отмеченных кассиров.
func (s *Session) ClockedIDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.clocked))
	for id := range s.clocked {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ReplaceClocked заменяет список отмеченных кассиров данными бэк-офиса.
func (s *Session) ReplaceClocked(ids []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clocked = make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		s.clocked[id] = struct{}{}
	}
}

// IsWorkProduct сообщает, что товар является товаром прихода или ухода.
func (s *Session) IsWorkProduct(productID int64) bool {
	return productID != 0 && (productID == s.WorkIn.ID || productID == s.WorkOut.ID)
}

// WorkStatus — отметка кассира, сохраняемая в бэк-офисе.
type WorkStatus struct {
	SessionID int64 `json:"session_id"`
	CashierID int64 `json:"cashier_id"`
	Employee  bool  `json:"employee"`
	ClockedIn bool  `json:"clocked_in"`
}

// SessionInfo — сессия в том виде, в каком её хранит бэк-офис.
type SessionInfo struct {
	ID             int64     `json:"id"`
	ConfigName     string    `json:"config_name"`
	User           Cashier   `json:"user"`
	HRMode         bool      `json:"module_pos_hr"`
	FiscalMode     bool      `json:"fiscal_mode"`
	FDMIdentifier  string    `json:"certified_blackbox_identifier"`
	CashBoxOpening int       `json:"cash_box_opening_number"`
	StartedAt      time.Time `json:"start_at"`
}
