package blackbox

import (
	"context"
	"errors"
	"sync"

	"blackboxbe/internal/domain/models"
)

type memBackend struct {
	mu         sync.Mutex
	registered []models.OrderExport
	drafts     []models.OrderExport
	failReg    error
}

func (b *memBackend) WorkStatus(ctx context.Context, sessionID, cashierID int64, employee bool) (bool, error) {
	return false, nil
}

func (b *memBackend) SetWorkStatus(ctx context.Context, st models.WorkStatus) ([]int64, error) {
	return nil, nil
}

func (b *memBackend) RegisterOrder(ctx context.Context, o models.OrderExport) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failReg != nil {
		return b.failReg
	}
	b.registered = append(b.registered, o)
	return nil
}

func (b *memBackend) SaveDraft(ctx context.Context, o models.OrderExport) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.drafts = append(b.drafts, o)
	return nil
}

func (b *memBackend) IncreaseCashBoxOpening(ctx context.Context, sessionID int64) (int, error) {
	return 1, nil
}

type memUnpaid struct {
	orders map[string]*models.Order
}

func newMemUnpaid() *memUnpaid { return &memUnpaid{orders: map[string]*models.Order{}} }

func (m *memUnpaid) Save(o *models.Order) error {
	m.orders[o.UID] = o
	return nil
}

func (m *memUnpaid) Remove(uid string) error {
	delete(m.orders, uid)
	return nil
}

func (m *memUnpaid) List() ([]*models.Order, error) {
	out := make([]*models.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out, nil
}

func (m *memUnpaid) Find(uid string) (*models.Order, error) {
	if o, ok := m.orders[uid]; ok {
		return o, nil
	}
	return nil, errors.New("not found")
}

type memJournal struct {
	entries []models.JournalEntry
}

func (j *memJournal) Append(ctx context.Context, e models.JournalEntry) error {
	j.entries = append(j.entries, e)
	return nil
}

func (j *memJournal) List(ctx context.Context, limit int) ([]models.JournalEntry, error) {
	return j.entries, nil
}

// scriptedPrompter возвращает заданный PIN или отказ
type scriptedPrompter struct {
	pin    string
	cancel bool
	calls  int
}

func (p *scriptedPrompter) PromptPin(ctx context.Context, title string) (string, bool, error) {
	p.calls++
	if p.cancel {
		return "", false, nil
	}
	return p.pin, true, nil
}

type notice struct{ title, body string }

type recordingNotifier struct {
	notices []notice
}

func (n *recordingNotifier) Notify(title, body string) {
	n.notices = append(n.notices, notice{title, body})
}

type recordingPrinter struct {
	printed []string
}

func (p *recordingPrinter) PrintReceipt(ctx context.Context, o *models.Order) error {
	p.printed = append(p.printed, o.Name)
	return nil
}
