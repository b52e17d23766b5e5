// Package client is a typed HTTP client for the catalog API, including the
// two-step direct-to-storage image upload.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bookcatalog/pkg/domain"
)

// Client calls the catalog service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError represents a catalog service error response.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewClient constructs a catalog client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// ListBooks fetches the whole collection. Filtering and pagination are
// client-side; see internal/catalog.
func (c *Client) ListBooks() ([]domain.Book, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/api/books", nil)
	if err != nil {
		return nil, err
	}
	var books []domain.Book
	if err := c.do(req, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// GetBook fetches one book by ID.
func (c *Client) GetBook(id int64) (domain.Book, error) {
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/api/books/%d", c.baseURL, id), nil)
	if err != nil {
		return domain.Book{}, err
	}
	var book domain.Book
	if err := c.do(req, &book); err != nil {
		return domain.Book{}, err
	}
	return book, nil
}

// CreateBook persists a new record and returns it with its assigned ID.
func (c *Client) CreateBook(b domain.Book) (domain.Book, error) {
	req, err := c.jsonRequest(http.MethodPost, c.baseURL+"/api/books", b)
	if err != nil {
		return domain.Book{}, err
	}
	var created domain.Book
	if err := c.do(req, &created); err != nil {
		return domain.Book{}, err
	}
	return created, nil
}

// UpdateBook replaces the record's mutable fields.
func (c *Client) UpdateBook(id int64, b domain.Book) (domain.Book, error) {
	req, err := c.jsonRequest(http.MethodPut, fmt.Sprintf("%s/api/books/%d", c.baseURL, id), b)
	if err != nil {
		return domain.Book{}, err
	}
	var updated domain.Book
	if err := c.do(req, &updated); err != nil {
		return domain.Book{}, err
	}
	return updated, nil
}

// DeleteBook removes a record.
func (c *Client) DeleteBook(id int64) error {
	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/books/%d", c.baseURL, id), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// RequestUploadTarget asks for a presigned upload ticket.
func (c *Client) RequestUploadTarget(fileName, fileType string) (domain.UploadTarget, error) {
	req, err := c.jsonRequest(http.MethodPost, c.baseURL+"/api/uploads", map[string]string{
		"fileName": fileName,
		"fileType": fileType,
	})
	if err != nil {
		return domain.UploadTarget{}, err
	}
	var target domain.UploadTarget
	if err := c.do(req, &target); err != nil {
		return domain.UploadTarget{}, err
	}
	return target, nil
}

// UploadImage performs step two of the upload flow: a raw PUT of the bytes to
// the signed URL with the same content type the ticket was requested for. The
// catalog service is not involved.
func (c *Client) UploadImage(target domain.UploadTarget, data []byte, contentType string) error {
	req, err := http.NewRequest(http.MethodPut, target.UploadURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return &APIError{Status: resp.StatusCode, Message: "upload rejected: " + resp.Status}
	}
	return nil
}

// CompactIDs triggers the administrative ID renumbering and returns how many
// records were renumbered.
func (c *Client) CompactIDs() (int64, error) {
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/admin/books/compact-ids", nil)
	if err != nil {
		return 0, err
	}
	var resp struct {
		Renumbered int64 `json:"renumbered"`
	}
	if err := c.do(req, &resp); err != nil {
		return 0, err
	}
	return resp.Renumbered, nil
}

func (c *Client) jsonRequest(method, url string, payload any) (*http.Request, error) {
	body := &bytes.Buffer{}
	if err := json.NewEncoder(body).Encode(payload); err != nil {
		return nil, err
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		msg := errResp.Error
		if msg == "" {
			msg = resp.Status
		}
		return &APIError{Status: resp.StatusCode, Message: msg, Code: strings.TrimSpace(errResp.Code)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
