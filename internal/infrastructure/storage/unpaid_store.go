package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"blackboxbe/internal/domain/models"
	"blackboxbe/internal/domain/ports"
)

// FileUnpaidOrderStore хранит неоплаченные заказы терминала и счётчик номеров чеков в JSON-файле.
type FileUnpaidOrderStore struct {
	mu       sync.Mutex
	filePath string
	sequence int64
	orders   map[string]*models.Order
}

var (
	_ ports.UnpaidOrderStore = (*FileUnpaidOrderStore)(nil)
	_ ports.SequenceSource   = (*FileUnpaidOrderStore)(nil)
)

type unpaidFile struct {
	Sequence int64           `json:"sequence"`
	Orders   []*models.Order `json:"orders"`
}

// NewFileUnpaidOrderStore создает хранилище и загружает ранее сохранённые заказы.
func NewFileUnpaidOrderStore(filePath string) (*FileUnpaidOrderStore, error) {
	store := &FileUnpaidOrderStore{
		filePath: filePath,
	}

	// Загружаем заказы при инициализации
	if err := store.loadFromFile(); err != nil {
		return nil, fmt.Errorf("ошибка инициализации хранилища заказов: %w", err)
	}

	return store, nil
}

// Save добавляет или обновляет заказ.
func (s *FileUnpaidOrderStore) Save(order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[order.UID] = order
	return s.saveToFile()
}

// Remove удаляет заказ. Отсутствие заказа ошибкой не считается.
func (s *FileUnpaidOrderStore) Remove(uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[uid]; !ok {
		return nil
	}
	delete(s.orders, uid)
	return s.saveToFile()
}

// Find находит заказ по UID; nil, если заказа нет.
func (s *FileUnpaidOrderStore) Find(uid string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.orders[uid], nil
}

// List возвращает заказы в порядке номеров чеков.
func (s *FileUnpaidOrderStore) List() ([]*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sorted(), nil
}

// NextSequence выдаёт следующий номер чека и сразу сохраняет счётчик.
func (s *FileUnpaidOrderStore) NextSequence() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sequence++
	if err := s.saveToFile(); err != nil {
		s.sequence--
		return 0, err
	}
	return s.sequence, nil
}

func (s *FileUnpaidOrderStore) sorted() []*models.Order {
	result := make([]*models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		result = append(result, o)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SequenceNumber < result[j].SequenceNumber })
	return result
}

// loadFromFile загружает заказы из JSON-файла (не потокобезопасно, предназначено для внутреннего использования).
func (s *FileUnpaidOrderStore) loadFromFile() error {
	s.orders = make(map[string]*models.Order)

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("ошибка чтения файла заказов: %w", err)
	}

	var f unpaidFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("ошибка разбора JSON: %w", err)
	}

	s.sequence = f.Sequence
	for _, o := range f.Orders {
		s.orders[o.UID] = o
	}
	return nil
}

// saveToFile сохраняет заказы в JSON-файл (не потокобезопасно, предназначено для внутреннего использования).
func (s *FileUnpaidOrderStore) saveToFile() error {
	// Создаем директорию, если она не существует
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("ошибка создания директории: %w", err)
	}

	jsonData, err := json.MarshalIndent(unpaidFile{Sequence: s.sequence, Orders: s.sorted()}, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации JSON: %w", err)
	}

	// Пишем во временный файл, чтобы сбой не оставил заказы в полузаписанном файле
	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, jsonData, 0644); err != nil {
		return fmt.Errorf("ошибка записи файла заказов: %w", err)
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		return fmt.Errorf("ошибка записи файла заказов: %w", err)
	}

	return nil
}
