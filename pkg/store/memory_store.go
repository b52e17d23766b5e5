package store

import (
	"sort"
	"sync"

	"bookcatalog/pkg/domain"
)

// MemoryStore keeps records in-process. Used by tests and local development.
type MemoryStore struct {
	mu     sync.RWMutex
	books  map[int64]domain.Book
	nextID int64
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		books:  make(map[int64]domain.Book),
		nextID: 1,
	}
}

// CreateBook assigns the next ID and stores the record.
func (m *MemoryStore) CreateBook(b domain.Book) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = m.nextID
	m.nextID++
	m.books[b.ID] = b
	return b.ID, nil
}

// GetBook retrieves a book by ID.
func (m *MemoryStore) GetBook(id int64) (domain.Book, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.books[id]
	return b, ok, nil
}

// ListBooks returns all books in ascending ID order.
func (m *MemoryStore) ListBooks() ([]domain.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Book, 0, len(m.books))
	for _, b := range m.books {
		res = append(res, b)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

// UpdateBook replaces an existing record's fields, keeping the ID.
func (m *MemoryStore) UpdateBook(id int64, b domain.Book) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[id]; !ok {
		return false, nil
	}
	b.ID = id
	m.books[id] = b
	return true, nil
}

// DeleteBook removes a record by ID.
func (m *MemoryStore) DeleteBook(id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[id]; !ok {
		return false, nil
	}
	delete(m.books, id)
	return true, nil
}

// CompactIDs renumbers surviving books contiguously from 1.
func (m *MemoryStore) CompactIDs() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.books))
	for id := range m.books {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	renumbered := make(map[int64]domain.Book, len(ids))
	for i, id := range ids {
		b := m.books[id]
		b.ID = int64(i + 1)
		renumbered[b.ID] = b
	}
	m.books = renumbered
	m.nextID = int64(len(ids)) + 1
	return int64(len(ids)), nil
}
