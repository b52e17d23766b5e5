package domain

// Book is the catalog entity. The wire shape uses snake_case field names;
// mapping to the storage model happens only in pkg/store.
type Book struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	Publisher     string `json:"publisher,omitempty"`
	PublishedDate string `json:"published_date,omitempty"`
	Quantity      int    `json:"quantity"`
	Description   string `json:"description,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
}

// UploadTarget is a one-shot ticket for a direct-to-storage image upload.
// The caller PUTs the raw bytes to UploadURL using the content type the
// ticket was requested with; ImageURL is where the object will be publicly
// reachable once the upload completes.
type UploadTarget struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
	ImageURL  string `json:"imageUrl"`
}
