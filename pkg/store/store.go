package store

import "bookcatalog/pkg/domain"

// Store defines persistence operations for book records.
type Store interface {
	// CreateBook persists a new record and returns its store-assigned ID.
	CreateBook(b domain.Book) (int64, error)
	// GetBook retrieves a book by ID; the bool reports existence.
	GetBook(id int64) (domain.Book, bool, error)
	// ListBooks returns all books ordered by ID.
	ListBooks() ([]domain.Book, error)
	// UpdateBook replaces the mutable fields of an existing record. The bool
	// reports whether the record existed; UpdateBook never creates one.
	UpdateBook(id int64, b domain.Book) (bool, error)
	// DeleteBook removes a record; the bool reports whether it existed.
	DeleteBook(id int64) (bool, error)
	// CompactIDs renumbers all surviving books contiguously from 1 in
	// ascending current-ID order and resets the ID sequence. Destructive and
	// globally visible; callers must treat it as an administrative operation.
	// Returns the number of renumbered records.
	CompactIDs() (int64, error)
}
