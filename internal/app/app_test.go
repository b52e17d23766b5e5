package app

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"bookcatalog/pkg/domain"
	"bookcatalog/pkg/store"
)

type nopObjectStore struct{}

func (nopObjectStore) PresignPut(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://storage.test/signed/" + key, nil
}
func (nopObjectStore) Put(_ context.Context, _ string, _ io.Reader, _ int64, _ string) error {
	return nil
}
func (nopObjectStore) Delete(_ context.Context, _ string) error { return nil }

func newTestApp(t *testing.T) *App {
	t.Helper()
	a, err := New(Config{
		Store:         store.NewMemoryStore(),
		Objects:       nopObjectStore{},
		PublicBaseURL: "https://cdn.test/covers/",
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a
}

func TestValidateBookDateFormat(t *testing.T) {
	if err := validateBook(bookWith("2023-02-30")); err == nil {
		t.Fatal("expected error for impossible calendar date")
	}
	if err := validateBook(bookWith("01-02-2023")); err == nil {
		t.Fatal("expected error for wrong date layout")
	}
	if err := validateBook(bookWith("2023-02-28")); err != nil {
		t.Fatalf("valid date rejected: %v", err)
	}
	if err := validateBook(bookWith("")); err != nil {
		t.Fatalf("empty date must be allowed: %v", err)
	}
}

func TestCreateNegativeQuantityDefaultsToZero(t *testing.T) {
	a := newTestApp(t)
	created, err := a.CreateBook(bookWith(""))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := a.GetBook(created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Quantity != 0 {
		t.Fatalf("quantity = %d, want 0", got.Quantity)
	}
}

func TestRequestUploadTargetKeysAreUnique(t *testing.T) {
	a := newTestApp(t)
	first, err := a.RequestUploadTarget(context.Background(), "cover.png", "image/png")
	if err != nil {
		t.Fatalf("first ticket: %v", err)
	}
	second, err := a.RequestUploadTarget(context.Background(), "cover.png", "image/png")
	if err != nil {
		t.Fatalf("second ticket: %v", err)
	}
	if first.Key == second.Key {
		t.Fatalf("same filename produced the same key %q", first.Key)
	}
}

func TestRequestUploadTargetValidation(t *testing.T) {
	a := newTestApp(t)
	_, err := a.RequestUploadTarget(context.Background(), "", "")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Fields) != 2 {
		t.Fatalf("fields = %v, want fileName and fileType", ve.Fields)
	}
}

func TestNewRequiresPublicBaseURL(t *testing.T) {
	_, err := New(Config{Store: store.NewMemoryStore(), Objects: nopObjectStore{}})
	if err == nil {
		t.Fatal("expected error without public base URL")
	}
}

func bookWith(date string) domain.Book {
	return domain.Book{
		Title:         "T",
		Author:        "A",
		Quantity:      -1,
		PublishedDate: date,
	}
}
