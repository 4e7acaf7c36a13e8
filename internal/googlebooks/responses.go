package googlebooks

// https://developers.google.com/books/docs/v1/reference/volumes

type volumesResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []volume `json:"items"`
}

type volume struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title               string               `json:"title"`
	Subtitle            string               `json:"subtitle"`
	Authors             []string             `json:"authors"`
	Publisher           string               `json:"publisher"`
	PublishedDate       string               `json:"publishedDate"`
	Description         string               `json:"description"`
	PageCount           int                  `json:"pageCount"`
	IndustryIdentifiers []industryIdentifier `json:"industryIdentifiers"`
	ImageLinks          imageLinks           `json:"imageLinks"`
}

type industryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

type imageLinks struct {
	SmallThumbnail string `json:"smallThumbnail"`
	Thumbnail      string `json:"thumbnail"`
}

// CatalogBook is a book-shaped projection of an external catalog
// volume; it has no local id or owner.
type CatalogBook struct {
	Title         string `json:"title"`
	Subtitle      string `json:"subtitle,omitempty"`
	Author        string `json:"author"`
	Description   string `json:"description,omitempty"`
	PublishedDate string `json:"published_date,omitempty"`
	Publisher     string `json:"publisher,omitempty"`
	ISBN          string `json:"isbn,omitempty"`
	PageCount     int    `json:"page_count,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
	GoogleBooksID string `json:"google_books_id"`
}
