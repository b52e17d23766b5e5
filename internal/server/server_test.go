package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"bookcatalog/internal/app"
	"bookcatalog/pkg/domain"
	"bookcatalog/pkg/store"
)

// fakeObjectStore records presign and delete calls without touching a real
// object store.
type fakeObjectStore struct {
	mu       sync.Mutex
	presigns int
	deleted  []string
}

func (f *fakeObjectStore) PresignPut(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presigns++
	return "https://storage.test/signed/" + key, nil
}

func (f *fakeObjectStore) Put(_ context.Context, _ string, _ io.Reader, _ int64, _ string) error {
	return nil
}

func (f *fakeObjectStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeObjectStore) {
	t.Helper()
	objects := &fakeObjectStore{}
	core, err := app.New(app.Config{
		Store:         store.NewMemoryStore(),
		Objects:       objects,
		PublicBaseURL: "https://cdn.test/covers",
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	srv, err := New(Config{App: core})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, objects
}

func doJSON(t *testing.T, method, url string, payload any) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func createBook(t *testing.T, ts *httptest.Server, b domain.Book) domain.Book {
	t.Helper()
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/books", b)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create expected 201, got %d", resp.StatusCode)
	}
	return decode[domain.Book](t, resp)
}

func TestCreateThenGetReturnsEqualRecord(t *testing.T) {
	ts, _ := newTestServer(t)
	payload := domain.Book{
		Title:         "The Go Programming Language",
		Author:        "Donovan",
		Publisher:     "Addison-Wesley",
		PublishedDate: "2015-10-26",
		Quantity:      3,
		Description:   "The reference.",
		ImageURL:      "https://cdn.test/covers/gopl.png",
	}
	created := createBook(t, ts, payload)
	if created.ID == 0 {
		t.Fatal("created record has no id")
	}

	resp := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/books/%d", ts.URL, created.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get expected 200, got %d", resp.StatusCode)
	}
	got := decode[domain.Book](t, resp)
	payload.ID = created.ID
	if got != payload {
		t.Fatalf("roundtrip mismatch:\n got %+v\nwant %+v", got, payload)
	}
}

func TestListReturnsEmptyArrayNotNull(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := doJSON(t, http.MethodGet, ts.URL+"/api/books", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list expected 200, got %d", resp.StatusCode)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if string(bytes.TrimSpace(raw)) != "[]" {
		t.Fatalf("empty list body = %q, want []", raw)
	}
}

func TestCreateRejectsMissingTitleAndAuthor(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/books", domain.Book{Quantity: 1})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decode[map[string]string](t, resp)
	if body["code"] != "BOOK_MISSING_FIELDS" {
		t.Fatalf("unexpected error code %q", body["code"])
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/books", nil)
	books := decode[[]domain.Book](t, resp)
	if len(books) != 0 {
		t.Fatalf("rejected create persisted a record: %+v", books)
	}
}

func TestGetRejectsMalformedID(t *testing.T) {
	ts, _ := newTestServer(t)
	for _, raw := range []string{"abc", "-1", "0", "1.5"} {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/books/"+raw, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("id %q expected 400, got %d", raw, resp.StatusCode)
		}
	}
}

func TestGetMissingIDReturnsNotFound(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := doJSON(t, http.MethodGet, ts.URL+"/api/books/42", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestUpdateMissingIDNeverCreates(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := doJSON(t, http.MethodPut, ts.URL+"/api/books/7", domain.Book{Title: "T", Author: "A"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/books", nil)
	books := decode[[]domain.Book](t, resp)
	if len(books) != 0 {
		t.Fatalf("update created a record: %+v", books)
	}
}

func TestUpdateReplacesFieldsAndPreservesID(t *testing.T) {
	ts, _ := newTestServer(t)
	created := createBook(t, ts, domain.Book{Title: "Old", Author: "Author", Publisher: "P", Quantity: 1})

	resp := doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/books/%d", ts.URL, created.ID), domain.Book{
		Title: "New", Author: "Another", Quantity: 2,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update expected 200, got %d", resp.StatusCode)
	}
	updated := decode[domain.Book](t, resp)
	if updated.ID != created.ID || updated.Title != "New" || updated.Publisher != "" {
		t.Fatalf("update did not fully replace fields: %+v", updated)
	}
}

func TestSequentialUpdatesAreLastWriteWins(t *testing.T) {
	ts, _ := newTestServer(t)
	created := createBook(t, ts, domain.Book{Title: "Base", Author: "A", Quantity: 1})
	url := fmt.Sprintf("%s/api/books/%d", ts.URL, created.ID)

	doJSON(t, http.MethodPut, url, domain.Book{Title: "First", Author: "FirstAuthor", Description: "first session"}).Body.Close()
	doJSON(t, http.MethodPut, url, domain.Book{Title: "Second", Author: "SecondAuthor", Quantity: 9}).Body.Close()

	resp := doJSON(t, http.MethodGet, url, nil)
	got := decode[domain.Book](t, resp)
	want := domain.Book{ID: created.ID, Title: "Second", Author: "SecondAuthor", Quantity: 9}
	if got != want {
		t.Fatalf("second update did not fully overwrite the first:\n got %+v\nwant %+v", got, want)
	}
}

func TestDeleteRemovesRecordWithoutRenumbering(t *testing.T) {
	ts, _ := newTestServer(t)
	first := createBook(t, ts, domain.Book{Title: "one", Author: "a"})
	second := createBook(t, ts, domain.Book{Title: "two", Author: "b"})
	third := createBook(t, ts, domain.Book{Title: "three", Author: "c"})

	resp := doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/books/%d", ts.URL, second.ID), nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete expected 200, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/books/%d", ts.URL, second.ID), nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted record still readable, status %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/books", nil)
	books := decode[[]domain.Book](t, resp)
	if len(books) != 2 || books[0].ID != first.ID || books[1].ID != third.ID {
		t.Fatalf("delete disturbed surviving ids: %+v", books)
	}

	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/books/%d", ts.URL, second.ID), nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete expected 404, got %d", resp.StatusCode)
	}
}

func TestDeleteRemovesOwnedCoverObject(t *testing.T) {
	ts, objects := newTestServer(t)
	created := createBook(t, ts, domain.Book{
		Title: "T", Author: "A", ImageURL: "https://cdn.test/covers/abc123.png",
	})
	doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/books/%d", ts.URL, created.ID), nil).Body.Close()

	objects.mu.Lock()
	defer objects.mu.Unlock()
	if len(objects.deleted) != 1 || objects.deleted[0] != "abc123.png" {
		t.Fatalf("expected cover object delete, got %v", objects.deleted)
	}
}

func TestDeleteLeavesForeignImageURLsAlone(t *testing.T) {
	ts, objects := newTestServer(t)
	created := createBook(t, ts, domain.Book{
		Title: "T", Author: "A", ImageURL: "https://elsewhere.example/img.png",
	})
	doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/books/%d", ts.URL, created.ID), nil).Body.Close()

	objects.mu.Lock()
	defer objects.mu.Unlock()
	if len(objects.deleted) != 0 {
		t.Fatalf("deleted objects for a foreign URL: %v", objects.deleted)
	}
}

func TestUploadTargetTicket(t *testing.T) {
	ts, objects := newTestServer(t)
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/uploads", map[string]string{
		"fileName": "cover.png",
		"fileType": "image/png",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	target := decode[domain.UploadTarget](t, resp)
	if target.Key == "" || target.Key == "cover.png" {
		t.Fatalf("key must be random, got %q", target.Key)
	}
	if target.Key[len(target.Key)-4:] != ".png" {
		t.Fatalf("key should keep the extension, got %q", target.Key)
	}
	if target.UploadURL != "https://storage.test/signed/"+target.Key {
		t.Fatalf("unexpected upload url %q", target.UploadURL)
	}
	if target.ImageURL != "https://cdn.test/covers/"+target.Key {
		t.Fatalf("unexpected image url %q", target.ImageURL)
	}
	objects.mu.Lock()
	defer objects.mu.Unlock()
	if objects.presigns != 1 {
		t.Fatalf("presign calls = %d, want 1", objects.presigns)
	}
}

func TestUploadTargetRequiresNameAndType(t *testing.T) {
	ts, objects := newTestServer(t)
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/uploads", map[string]string{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	objects.mu.Lock()
	defer objects.mu.Unlock()
	if objects.presigns != 0 {
		t.Fatalf("presign called despite invalid request")
	}
}

func TestCompactIDsIsExplicitAdminOperation(t *testing.T) {
	ts, _ := newTestServer(t)
	createBook(t, ts, domain.Book{Title: "one", Author: "a"})
	createBook(t, ts, domain.Book{Title: "two", Author: "b"})
	createBook(t, ts, domain.Book{Title: "three", Author: "c"})
	doJSON(t, http.MethodDelete, ts.URL+"/api/books/1", nil).Body.Close()

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/admin/books/compact-ids", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("compact expected 200, got %d", resp.StatusCode)
	}
	result := decode[map[string]int64](t, resp)
	if result["renumbered"] != 2 {
		t.Fatalf("renumbered = %d, want 2", result["renumbered"])
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/books", nil)
	books := decode[[]domain.Book](t, resp)
	if len(books) != 2 || books[0].ID != 1 || books[1].ID != 2 {
		t.Fatalf("ids not contiguous after compaction: %+v", books)
	}
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := doJSON(t, http.MethodGet, ts.URL+"/healthz", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Request-Id"); got == "" {
		t.Fatal("expected generated request id header")
	}
}
