package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"bookcatalog/pkg/domain"
)

const (
	migrateLockID int64 = 52105210
	compactLockID int64 = 52105211
)

const dateLayout = "2006-01-02"

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations under an advisory lock
// so concurrent replicas do not race on schema changes.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withAdvisoryLock(db, migrateLockID, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&BookModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withAdvisoryLock(db *gorm.DB, lockID int64, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", lockID); err != nil {
		return fmt.Errorf("acquire advisory lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", lockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// CreateBook inserts a record and returns the assigned ID.
func (s *GormStore) CreateBook(b domain.Book) (int64, error) {
	model, err := bookToModel(b)
	if err != nil {
		return 0, err
	}
	model.ID = 0
	if err := s.db.Create(&model).Error; err != nil {
		return 0, fmt.Errorf("create book: %w", err)
	}
	return model.ID, nil
}

// GetBook retrieves a book by ID.
func (s *GormStore) GetBook(id int64) (domain.Book, bool, error) {
	var model BookModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Book{}, false, nil
		}
		return domain.Book{}, false, err
	}
	return bookFromModel(model), true, nil
}

// ListBooks returns all books ordered by ID.
func (s *GormStore) ListBooks() ([]domain.Book, error) {
	var models []BookModel
	if err := s.db.Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Book, 0, len(models))
	for _, m := range models {
		res = append(res, bookFromModel(m))
	}
	return res, nil
}

// UpdateBook replaces the mutable fields of an existing record.
func (s *GormStore) UpdateBook(id int64, b domain.Book) (bool, error) {
	model, err := bookToModel(b)
	if err != nil {
		return false, err
	}
	// Map-based update so emptied optional fields are written as well.
	tx := s.db.Model(&BookModel{}).Where("id = ?", id).Updates(map[string]any{
		"title":          model.Title,
		"author":         model.Author,
		"publisher":      model.Publisher,
		"published_date": model.PublishedDate,
		"quantity":       model.Quantity,
		"description":    model.Description,
		"image_url":      model.ImageURL,
	})
	if tx.Error != nil {
		return false, fmt.Errorf("update book: %w", tx.Error)
	}
	return tx.RowsAffected > 0, nil
}

// DeleteBook removes a record by ID.
func (s *GormStore) DeleteBook(id int64) (bool, error) {
	tx := s.db.Delete(&BookModel{}, "id = ?", id)
	if tx.Error != nil {
		return false, fmt.Errorf("delete book: %w", tx.Error)
	}
	return tx.RowsAffected > 0, nil
}

// CompactIDs renumbers all books contiguously from 1 and resets the ID
// sequence. Runs under an advisory lock and a transaction; the two-phase
// negative-ID swap avoids transient primary key collisions.
func (s *GormStore) CompactIDs() (int64, error) {
	var renumbered int64
	err := withAdvisoryLock(s.db, compactLockID, func(db *gorm.DB) error {
		return db.Transaction(func(tx *gorm.DB) error {
			res := tx.Exec(`
				UPDATE books SET id = -rn.new_id
				FROM (SELECT id, ROW_NUMBER() OVER (ORDER BY id ASC) AS new_id FROM books) rn
				WHERE books.id = rn.id`)
			if res.Error != nil {
				return fmt.Errorf("renumber books: %w", res.Error)
			}
			renumbered = res.RowsAffected
			if err := tx.Exec(`UPDATE books SET id = -id WHERE id < 0`).Error; err != nil {
				return fmt.Errorf("flip renumbered ids: %w", err)
			}
			if err := tx.Exec(`
				SELECT setval(pg_get_serial_sequence('books', 'id'),
					GREATEST((SELECT COALESCE(MAX(id), 1) FROM books), 1),
					(SELECT COUNT(*) > 0 FROM books))`).Error; err != nil {
				return fmt.Errorf("reset id sequence: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return renumbered, nil
}

func bookToModel(b domain.Book) (BookModel, error) {
	model := BookModel{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Publisher:   b.Publisher,
		Quantity:    b.Quantity,
		Description: b.Description,
		ImageURL:    b.ImageURL,
	}
	if b.PublishedDate != "" {
		t, err := time.Parse(dateLayout, b.PublishedDate)
		if err != nil {
			return BookModel{}, fmt.Errorf("invalid published_date %q: %w", b.PublishedDate, err)
		}
		date := datatypes.Date(t)
		model.PublishedDate = &date
	}
	return model, nil
}

func bookFromModel(m BookModel) domain.Book {
	book := domain.Book{
		ID:          m.ID,
		Title:       m.Title,
		Author:      m.Author,
		Publisher:   m.Publisher,
		Quantity:    m.Quantity,
		Description: m.Description,
		ImageURL:    m.ImageURL,
	}
	if m.PublishedDate != nil {
		book.PublishedDate = time.Time(*m.PublishedDate).Format(dateLayout)
	}
	return book
}
