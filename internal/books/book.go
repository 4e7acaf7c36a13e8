package books

import "time"

type Book struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Subtitle      string    `json:"subtitle,omitempty"`
	Author        string    `json:"author"`
	Description   string    `json:"description,omitempty"`
	PublishedDate string    `json:"published_date,omitempty"`
	Publisher     string    `json:"publisher,omitempty"`
	ISBN          string    `json:"isbn,omitempty"`
	PageCount     int       `json:"page_count,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	GoogleBooksID string    `json:"google_books_id,omitempty"`
	UserID        string    `json:"user_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UpdateBookParams are the updatable book fields; nil means
// "leave unchanged".
type UpdateBookParams struct {
	Title         *string
	Subtitle      *string
	Author        *string
	Description   *string
	PublishedDate *string
	Publisher     *string
	ISBN          *string
	PageCount     *int
	ImageURL      *string
}
