package types

type Author struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	BirthYear int    `json:"birth_year"`
}

type Genre struct {
	Id    uint16 `json:"id"`
	Title string `json:"title"`
}

type Book struct {
	Id      string   `json:"id"`
	Title   string   `json:"title"`
	Price   float64  `json:"price"`
	Authors []string `json:"author_ids"`
	// Genres holds genre titles, not ids; titles are resolved to rows
	// case-insensitively by the storage layer.
	Genres []string `json:"genres"`
}

type Review struct {
	Id          string `json:"id"`
	BookId      string `json:"book_id"`
	Description string `json:"description"`
	Rating      int    `json:"rating"`
}

// ImportRecord is one raw book entry from the external catalog feed,
// before dedup and author/genre resolution. Never persisted as-is.
type ImportRecord struct {
	Title       string   `json:"title"`
	Price       float64  `json:"price"`
	AuthorNames []string `json:"authors"`
	GenreNames  []string `json:"genres"`
}
