// Package catalog derives the browsable list view from the full collection:
// a case-insensitive search filter over title and author, and fixed-size
// pagination with clamped page numbers. Everything is a pure function of its
// inputs; there is no cached or mutable view state.
package catalog

import (
	"strings"

	"bookcatalog/pkg/domain"
)

// DefaultPageSize matches the original list view.
const DefaultPageSize = 10

// Page is one page of the filtered collection.
type Page struct {
	Items     []domain.Book
	Number    int
	PageCount int
	Total     int
	HasPrev   bool
	HasNext   bool
}

// Filter keeps books whose title or author contains query, case-insensitively.
// An empty query keeps everything.
func Filter(books []domain.Book, query string) []domain.Book {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		out := make([]domain.Book, len(books))
		copy(out, books)
		return out
	}
	out := make([]domain.Book, 0, len(books))
	for _, b := range books {
		if strings.Contains(strings.ToLower(b.Title), q) || strings.Contains(strings.ToLower(b.Author), q) {
			out = append(out, b)
		}
	}
	return out
}

// Paginate slices items into the requested page. The page number is clamped
// into [1, pageCount]; pageCount is at least 1 so page 1 always exists, even
// when empty.
func Paginate(items []domain.Book, page, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	pageCount := (len(items) + size - 1) / size
	if pageCount < 1 {
		pageCount = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pageCount {
		page = pageCount
	}
	start := (page - 1) * size
	end := start + size
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}
	return Page{
		Items:     items[start:end],
		Number:    page,
		PageCount: pageCount,
		Total:     len(items),
		HasPrev:   page > 1,
		HasNext:   page < pageCount,
	}
}

// View composes Filter and Paginate.
func View(books []domain.Book, query string, page, size int) Page {
	return Paginate(Filter(books, query), page, size)
}
