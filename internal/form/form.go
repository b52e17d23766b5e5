// Package form models the create/edit dialog: a local draft of every
// editable field plus an optional not-yet-uploaded image file, validated as a
// whole and submitted with the upload-then-save protocol.
package form

import (
	"fmt"
	"strings"

	"bookcatalog/internal/client"
	"bookcatalog/pkg/domain"
)

// DescriptionLimit caps the draft description length.
const DescriptionLimit = 500

// PendingFile is an image picked in the dialog but not uploaded yet.
type PendingFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Draft holds the editable fields of one create or edit flow. A non-zero ID
// marks an edit of an existing record. Discarding a draft has no effect
// anywhere; nothing is sent until Submit.
type Draft struct {
	ID            int64
	Title         string
	Author        string
	Publisher     string
	PublishedDate string
	Quantity      int
	Description   string
	ImageURL      string
	Pending       *PendingFile
}

// NewEditDraft seeds a draft from an existing record.
func NewEditDraft(b domain.Book) Draft {
	return Draft{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		Publisher:     b.Publisher,
		PublishedDate: b.PublishedDate,
		Quantity:      b.Quantity,
		Description:   b.Description,
		ImageURL:      b.ImageURL,
	}
}

// MissingFieldsError names every empty required field in one message.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("please fill in: %s", strings.Join(e.Fields, ", "))
}

// Validate requires every field. A pending file satisfies the image
// requirement even though no URL exists yet.
func (d Draft) Validate() error {
	var missing []string
	if strings.TrimSpace(d.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(d.Author) == "" {
		missing = append(missing, "author")
	}
	if strings.TrimSpace(d.Publisher) == "" {
		missing = append(missing, "publisher")
	}
	if strings.TrimSpace(d.PublishedDate) == "" {
		missing = append(missing, "published date")
	}
	if d.Quantity <= 0 {
		missing = append(missing, "quantity")
	}
	if strings.TrimSpace(d.Description) == "" {
		missing = append(missing, "description")
	}
	if d.ImageURL == "" && d.Pending == nil {
		missing = append(missing, "image")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	if len(d.Description) > DescriptionLimit {
		return fmt.Errorf("description exceeds %d characters", DescriptionLimit)
	}
	return nil
}

// Submit validates the draft, uploads a pending image first when present,
// then creates or updates the record with the resulting image URL. A create
// failure after a successful upload leaves the uploaded object in place; the
// draft itself is unchanged and can be resubmitted.
func (d Draft) Submit(c *client.Client) (domain.Book, error) {
	if err := d.Validate(); err != nil {
		return domain.Book{}, err
	}
	imageURL := d.ImageURL
	if d.Pending != nil {
		target, err := c.RequestUploadTarget(d.Pending.Name, d.Pending.ContentType)
		if err != nil {
			return domain.Book{}, fmt.Errorf("request upload target: %w", err)
		}
		if err := c.UploadImage(target, d.Pending.Data, d.Pending.ContentType); err != nil {
			return domain.Book{}, fmt.Errorf("upload image: %w", err)
		}
		imageURL = target.ImageURL
	}
	book := domain.Book{
		Title:         d.Title,
		Author:        d.Author,
		Publisher:     d.Publisher,
		PublishedDate: d.PublishedDate,
		Quantity:      d.Quantity,
		Description:   d.Description,
		ImageURL:      imageURL,
	}
	if d.ID > 0 {
		return c.UpdateBook(d.ID, book)
	}
	return c.CreateBook(book)
}
