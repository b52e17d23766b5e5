package app

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"bookcatalog/pkg/domain"
	"bookcatalog/pkg/storage"
	"bookcatalog/pkg/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL    string
	Store          store.Store
	Objects        storage.ObjectStore
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	PublicBaseURL  string
	PresignExpiry  time.Duration
}

// App is the core application service wiring the record store and object
// storage together with the catalog's domain rules.
type App struct {
	store         store.Store
	objects       storage.ObjectStore
	publicBaseURL string
	presignExpiry time.Duration
}

// New constructs the application. When cfg.Store or cfg.Objects is nil the
// Postgres store and MinIO client are dialed from the remaining settings.
func New(cfg Config) (*App, error) {
	objects := cfg.Objects
	if objects == nil {
		var err error
		objects, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			return nil, err
		}
	}
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}
	if strings.TrimSpace(cfg.PublicBaseURL) == "" {
		return nil, fmt.Errorf("public base URL required")
	}
	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = 60 * time.Second
	}
	return &App{
		store:         dataStore,
		objects:       objects,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		presignExpiry: expiry,
	}, nil
}

// ListBooks returns every book ordered by ID. Search and pagination are
// caller-side concerns; the API never filters.
func (a *App) ListBooks() ([]domain.Book, error) {
	return a.store.ListBooks()
}

// GetBook retrieves a single book.
func (a *App) GetBook(id int64) (domain.Book, error) {
	book, ok, err := a.store.GetBook(id)
	if err != nil {
		return domain.Book{}, err
	}
	if !ok {
		return domain.Book{}, ErrNotFound
	}
	return book, nil
}

// CreateBook validates and persists a new record, returning it with its
// store-assigned ID.
func (a *App) CreateBook(b domain.Book) (domain.Book, error) {
	if err := validateBook(b); err != nil {
		return domain.Book{}, err
	}
	if b.Quantity < 0 {
		b.Quantity = 0
	}
	id, err := a.store.CreateBook(b)
	if err != nil {
		return domain.Book{}, fmt.Errorf("create book: %w", err)
	}
	b.ID = id
	return b, nil
}

// UpdateBook replaces the mutable fields of an existing record. The ID is
// immutable; updating a missing ID is ErrNotFound, never an insert.
func (a *App) UpdateBook(id int64, b domain.Book) (domain.Book, error) {
	if err := validateBook(b); err != nil {
		return domain.Book{}, err
	}
	if b.Quantity < 0 {
		b.Quantity = 0
	}
	ok, err := a.store.UpdateBook(id, b)
	if err != nil {
		return domain.Book{}, fmt.Errorf("update book: %w", err)
	}
	if !ok {
		return domain.Book{}, ErrNotFound
	}
	b.ID = id
	return b, nil
}

// DeleteBook removes a record. The cover object is deleted best-effort when
// the image URL points into our public base; surviving IDs are left alone.
func (a *App) DeleteBook(id int64) error {
	book, ok, err := a.store.GetBook(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if _, err := a.store.DeleteBook(id); err != nil {
		return err
	}
	if key := a.objectKeyFromURL(book.ImageURL); key != "" {
		if err := a.objects.Delete(context.Background(), key); err != nil {
			slog.Warn("delete cover object failed", "book_id", id, "key", key, "err", err)
		}
	}
	return nil
}

// RequestUploadTarget issues a time-boxed presigned PUT ticket for a cover
// image. The object key is random and independent of the caller's filename;
// only the extension is carried over.
func (a *App) RequestUploadTarget(ctx context.Context, fileName, fileType string) (domain.UploadTarget, error) {
	missing := make([]string, 0, 2)
	if strings.TrimSpace(fileName) == "" {
		missing = append(missing, "fileName")
	}
	if strings.TrimSpace(fileType) == "" {
		missing = append(missing, "fileType")
	}
	if len(missing) > 0 {
		return domain.UploadTarget{}, &ValidationError{Fields: missing}
	}
	key := uuid.NewString()
	if ext := path.Ext(fileName); ext != "" && ext != "." {
		key += ext
	}
	uploadURL, err := a.objects.PresignPut(ctx, key, fileType, a.presignExpiry)
	if err != nil {
		return domain.UploadTarget{}, fmt.Errorf("presign upload: %w", err)
	}
	return domain.UploadTarget{
		UploadURL: uploadURL,
		Key:       key,
		ImageURL:  a.publicBaseURL + "/" + key,
	}, nil
}

// CompactIDs renumbers all books contiguously from 1. Destructive and
// globally visible; exposed only through the admin endpoint.
func (a *App) CompactIDs() (int64, error) {
	return a.store.CompactIDs()
}

func validateBook(b domain.Book) error {
	missing := make([]string, 0, 2)
	if strings.TrimSpace(b.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(b.Author) == "" {
		missing = append(missing, "author")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	if b.PublishedDate != "" {
		if _, err := time.Parse("2006-01-02", b.PublishedDate); err != nil {
			return &ValidationError{Fields: []string{"published_date"}}
		}
	}
	return nil
}

func (a *App) objectKeyFromURL(imageURL string) string {
	prefix := a.publicBaseURL + "/"
	if imageURL == "" || !strings.HasPrefix(imageURL, prefix) {
		return ""
	}
	return strings.TrimPrefix(imageURL, prefix)
}
