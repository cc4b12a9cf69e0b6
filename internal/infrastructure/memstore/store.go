// Package memstore — хранилище бэк-офиса в памяти процесса.
// Используется, когда база данных не настроена, и в тестах.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"blackboxbe/internal/domain/models"
)

type clockKey struct {
	session  int64
	employee bool
}

// Store реализует backoffice.Store в памяти.
type Store struct {
	mu       sync.RWMutex
	nextID   int64
	nextLog  int64
	sessions map[int64]models.SessionInfo
	clocked  map[clockKey]map[int64]struct{}
	orders   map[string]models.OrderExport
	audit    []models.AuditEntry
}

// New создает пустое хранилище.
func New() *Store {
	return &Store{
		sessions: make(map[int64]models.SessionInfo),
		clocked:  make(map[clockKey]map[int64]struct{}),
		orders:   make(map[string]models.OrderExport),
	}
}

func (s *Store) CreateSession(_ context.Context, info models.SessionInfo) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	info.ID = s.nextID
	s.sessions[info.ID] = info
	return info.ID, nil
}

func (s *Store) Session(_ context.Context, id int64) (models.SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.sessions[id]
	if !ok {
		return models.SessionInfo{}, fmt.Errorf("session %d: %w", id, models.ErrNotFound)
	}
	return info, nil
}

func (s *Store) WorkStatus(_ context.Context, sessionID, cashierID int64, employee bool) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.clocked[clockKey{sessionID, employee}][cashierID]
	return ok, nil
}

func (s *Store) SetWorkStatus(_ context.Context, st models.WorkStatus) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := clockKey{st.SessionID, st.Employee}
	set, ok := s.clocked[key]
	if !ok {
		set = make(map[int64]struct{})
		s.clocked[key] = set
	}
	if st.ClockedIn {
		set[st.CashierID] = struct{}{}
	} else {
		delete(set, st.CashierID)
	}

	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Store) Order(_ context.Context, uid string) (models.OrderExport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[uid]
	if !ok {
		return models.OrderExport{}, fmt.Errorf("order %s: %w", uid, models.ErrNotFound)
	}
	return o, nil
}

func (s *Store) SaveOrder(_ context.Context, order models.OrderExport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.UID] = order
	return nil
}

func (s *Store) DeleteOrder(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[uid]; !ok {
		return fmt.Errorf("order %s: %w", uid, models.ErrNotFound)
	}
	delete(s.orders, uid)
	return nil
}

func (s *Store) SessionOrders(_ context.Context, f models.OrderFilter) ([]models.OrderExport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.OrderExport
	for _, o := range s.orders {
		if o.SessionID != f.SessionID || (o.Draft && !f.IncludeDrafts) {
			continue
		}
		if f.INSZ != "" && o.INSZ != f.INSZ {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceNumber < out[j].SequenceNumber })
	if f.Limit > 0 && uint64(len(out)) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) IncreaseCashBoxOpening(_ context.Context, sessionID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.sessions[sessionID]
	if !ok {
		return 0, fmt.Errorf("session %d: %w", sessionID, models.ErrNotFound)
	}
	info.CashBoxOpening++
	s.sessions[sessionID] = info
	return info.CashBoxOpening, nil
}

func (s *Store) AddAudit(_ context.Context, entry models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextLog++
	entry.ID = s.nextLog
	s.audit = append(s.audit, entry)
	return nil
}

// AuditLog возвращает записи от новых к старым.
func (s *Store) AuditLog(_ context.Context, limit uint64) ([]models.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AuditEntry, 0, len(s.audit))
	for i := len(s.audit) - 1; i >= 0; i-- {
		out = append(out, s.audit[i])
		if limit > 0 && uint64(len(out)) == limit {
			break
		}
	}
	return out, nil
}
