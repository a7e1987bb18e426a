package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bookstore/internal/response"
	"bookstore/internal/scheduler"
	"bookstore/internal/search"
	"bookstore/internal/storage/authors"
	"bookstore/internal/storage/books"
	"bookstore/internal/storage/genres"
	"bookstore/internal/storage/reviews"
	"bookstore/internal/storage/runs"
	"bookstore/internal/types"
)

const maxNameLen = 255

func Handler(br books.Repository, ar authors.Repository, gr genres.Repository, vr reviews.Repository,
	nr runs.Repository, eng search.Engine, sched *scheduler.Scheduler, rr *response.Responder) http.Handler {

	r := chi.NewRouter()

	r.Get("/books", func(w http.ResponseWriter, r *http.Request) {
		rows, err := br.GetAll(r.Context())
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		if rows == nil {
			rows = make([]*types.Book, 0)
		}

		rr.SendJson(w, r.Context(), struct {
			Books []*types.Book `json:"books"`
		}{Books: rows})
	})

	r.Get("/books/details", func(w http.ResponseWriter, r *http.Request) {
		rows, err := eng.Search(r.Context(), search.Filters{})
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		rr.SendJson(w, r.Context(), struct {
			Books []search.RankedBook `json:"books"`
		}{Books: rows})
	})

	r.Get("/books/top", func(w http.ResponseWriter, r *http.Request) {
		rows, err := eng.TopN(r.Context(), getIntOrDefault("limit", r.URL.Query(), 10))
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		rr.SendJson(w, r.Context(), struct {
			Books []search.RankedBook `json:"books"`
		}{Books: rows})
	})

	r.Get("/books/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		rows, err := eng.Search(r.Context(), search.Filters{
			SearchTerm: q.Get("search"),
			AuthorName: q.Get("author"),
			GenreName:  q.Get("genre"),
			MinPrice:   getFloat("price_min", q),
			MaxPrice:   getFloat("price_max", q),
			MinRating:  getFloat("rating_min", q),
		})
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		rr.SendJson(w, r.Context(), struct {
			Books []search.RankedBook `json:"books"`
		}{Books: rows})
	})

	r.Get("/books/{id}", func(w http.ResponseWriter, r *http.Request) {
		book, err := br.GetById(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}
		if book == nil {
			rr.SendNotFound(w, r.Context())
			return
		}

		authorsById, err := ar.GetByIds(r.Context(), book.Authors...)
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		bookAuthors := make([]*types.Author, 0, len(book.Authors))
		for _, authorId := range book.Authors {
			if author, ok := authorsById[authorId]; ok {
				bookAuthors = append(bookAuthors, author)
			}
		}

		genreTitles := book.Genres
		if genreTitles == nil {
			genreTitles = make([]string, 0)
		}

		rr.SendJson(w, r.Context(), struct {
			Id      string          `json:"id"`
			Title   string          `json:"title"`
			Price   float64         `json:"price"`
			Authors []*types.Author `json:"authors"`
			Genres  []string        `json:"genres"`
		}{Id: book.Id, Title: book.Title, Price: book.Price, Authors: bookAuthors, Genres: genreTitles})
	})

	r.Post("/books", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Title     string   `json:"title"`
			Price     float64  `json:"price"`
			AuthorIds []string `json:"author_ids"`
			GenreIds  []uint16 `json:"genre_ids"`
		}
		if !decodeBody(w, r, rr, &body) {
			return
		}

		title := strings.TrimSpace(body.Title)
		if msg := validateTitle(title); msg != "" {
			rr.SendClientError(w, r.Context(), http.StatusUnprocessableEntity, msg)
			return
		}
		if body.Price < 0 {
			rr.SendClientError(w, r.Context(), http.StatusUnprocessableEntity, "price must not be negative")
			return
		}

		book := &types.Book{Id: uuid.NewString(), Title: title, Price: body.Price}

		if err := br.Create(r.Context(), book, body.AuthorIds, body.GenreIds); err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		created, err := br.GetById(r.Context(), book.Id)
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		rr.SendJson(w, r.Context(), created)
	})

	r.Put("/books/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Price float64 `json:"price"`
		}
		if !decodeBody(w, r, rr, &body) {
			return
		}

		if body.Price < 0 {
			rr.SendClientError(w, r.Context(), http.StatusUnprocessableEntity, "price must not be negative")
			return
		}

		id := chi.URLParam(r, "id")

		found, err := br.UpdatePrice(r.Context(), id, body.Price)
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}
		if !found {
			rr.SendNotFound(w, r.Context())
			return
		}

		book, err := br.GetById(r.Context(), id)
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		rr.SendJson(w, r.Context(), book)
	})

	r.Delete("/books/{id}", func(w http.ResponseWriter, r *http.Request) {
		found, err := br.Delete(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}
		if !found {
			rr.SendNotFound(w, r.Context())
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})

	r.Put("/books/{id}/authors", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			AuthorIds []string `json:"author_ids"`
		}
		if !decodeBody(w, r, rr, &body) {
			return
		}

		id := chi.URLParam(r, "id")

		book, err := br.GetById(r.Context(), id)
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}
		if book == nil {
			rr.SendNotFound(w, r.Context())
			return
		}

		if err := br.SetAuthors(r.Context(), id, body.AuthorIds...); err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		book, err = br.GetById(r.Context(), id)
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		rr.SendJson(w, r.Context(), book)
	})

	r.Put("/books/{id}/genres", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			GenreIds []uint16 `json:"genre_ids"`
		}
		if !decodeBody(w, r, rr, &body) {
			return
		}

		id := chi.URLParam(r, "id")

		book, err := br.GetById(r.Context(), id)
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}
		if book == nil {
			rr.SendNotFound(w, r.Context())
			return
		}

		if err := br.SetGenres(r.Context(), id, body.GenreIds...); err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		book, err = br.GetById(r.Context(), id)
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		rr.SendJson(w, r.Context(), book)
	})

	r.Get("/authors", func(w http.ResponseWriter, r *http.Request) {
		rows, err := ar.GetAll(r.Context())
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		if rows == nil {
			rows = make([]*types.Author, 0)
		}

		rr.SendJson(w, r.Context(), struct {
			Authors []*types.Author `json:"authors"`
		}{Authors: rows})
	})

	r.Get("/authors/{id}", func(w http.ResponseWriter, r *http.Request) {
		author, err := ar.GetById(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}
		if author == nil {
			rr.SendNotFound(w, r.Context())
			return
		}

		rr.SendJson(w, r.Context(), author)
	})

	r.Post("/authors", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name      string `json:"name"`
			BirthYear int    `json:"birth_year"`
		}
		if !decodeBody(w, r, rr, &body) {
			return
		}

		name := strings.TrimSpace(body.Name)
		if msg := validateName(name); msg != "" {
			rr.SendClientError(w, r.Context(), http.StatusUnprocessableEntity, msg)
			return
		}

		author := &types.Author{Id: uuid.NewString(), Name: name, BirthYear: body.BirthYear}

		if err := ar.Save(r.Context(), author); err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		rr.SendJson(w, r.Context(), author)
	})

	r.Put("/authors/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name      string `json:"name"`
			BirthYear int    `json:"birth_year"`
		}
		if !decodeBody(w, r, rr, &body) {
			return
		}

		name := strings.TrimSpace(body.Name)
		if msg := validateName(name); msg != "" {
			rr.SendClientError(w, r.Context(), http.StatusUnprocessableEntity, msg)
			return
		}

		id := chi.URLParam(r, "id")

		author, err := ar.GetById(r.Context(), id)
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}
		if author == nil {
			rr.SendNotFound(w, r.Context())
			return
		}

		author.Name = name
		author.BirthYear = body.BirthYear

		if err := ar.Save(r.Context(), author); err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		rr.SendJson(w, r.Context(), author)
	})

	r.Delete("/authors/{id}", func(w http.ResponseWriter, r *http.Request) {
		found, err := ar.Delete(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}
		if !found {
			rr.SendNotFound(w, r.Context())
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/genres", func(w http.ResponseWriter, r *http.Request) {
		rows, err := gr.GetAll(r.Context())
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		if rows == nil {
			rows = make([]*types.Genre, 0)
		}

		rr.SendJson(w, r.Context(), struct {
			Genres []*types.Genre `json:"genres"`
		}{Genres: rows})
	})

	r.Get("/genres/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 16)
		if err != nil {
			rr.SendClientError(w, r.Context(), http.StatusUnprocessableEntity, "invalid genre id")
			return
		}

		genre, err := gr.GetById(r.Context(), uint16(id))
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}
		if genre == nil {
			rr.SendNotFound(w, r.Context())
			return
		}

		rr.SendJson(w, r.Context(), genre)
	})

	r.Post("/genres", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Title string `json:"title"`
		}
		if !decodeBody(w, r, rr, &body) {
			return
		}

		title := strings.TrimSpace(body.Title)
		if msg := validateTitle(title); msg != "" {
			rr.SendClientError(w, r.Context(), http.StatusUnprocessableEntity, msg)
			return
		}

		ids, err := gr.Insert(r.Context(), title)
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		rr.SendJson(w, r.Context(), &types.Genre{Id: ids[strings.ToLower(title)], Title: title})
	})

	r.Put("/genres/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Title string `json:"title"`
		}
		if !decodeBody(w, r, rr, &body) {
			return
		}

		title := strings.TrimSpace(body.Title)
		if msg := validateTitle(title); msg != "" {
			rr.SendClientError(w, r.Context(), http.StatusUnprocessableEntity, msg)
			return
		}

		id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 16)
		if err != nil {
			rr.SendClientError(w, r.Context(), http.StatusUnprocessableEntity, "invalid genre id")
			return
		}

		found, err := gr.Update(r.Context(), uint16(id), title)
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}
		if !found {
			rr.SendNotFound(w, r.Context())
			return
		}

		rr.SendJson(w, r.Context(), &types.Genre{Id: uint16(id), Title: title})
	})

	r.Delete("/genres/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 16)
		if err != nil {
			rr.SendClientError(w, r.Context(), http.StatusUnprocessableEntity, "invalid genre id")
			return
		}

		found, err := gr.Delete(r.Context(), uint16(id))
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}
		if !found {
			rr.SendNotFound(w, r.Context())
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/books/{id}/reviews", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		book, err := br.GetById(r.Context(), id)
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}
		if book == nil {
			rr.SendNotFound(w, r.Context())
			return
		}

		rows, err := vr.GetByBookId(r.Context(), id)
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		if rows == nil {
			rows = make([]*types.Review, 0)
		}

		rr.SendJson(w, r.Context(), struct {
			Reviews []*types.Review `json:"reviews"`
		}{Reviews: rows})
	})

	r.Post("/books/{id}/reviews", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Description string `json:"description"`
			Rating      int    `json:"rating"`
		}
		if !decodeBody(w, r, rr, &body) {
			return
		}

		if body.Rating < 1 || body.Rating > 5 {
			rr.SendClientError(w, r.Context(), http.StatusUnprocessableEntity, "rating must be between 1 and 5")
			return
		}

		id := chi.URLParam(r, "id")

		book, err := br.GetById(r.Context(), id)
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}
		if book == nil {
			rr.SendNotFound(w, r.Context())
			return
		}

		review := &types.Review{
			Id:          uuid.NewString(),
			BookId:      id,
			Description: body.Description,
			Rating:      body.Rating,
		}

		if err := vr.Create(r.Context(), review); err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		rr.SendJson(w, r.Context(), review)
	})

	r.Put("/reviews/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Description string `json:"description"`
			Rating      int    `json:"rating"`
		}
		if !decodeBody(w, r, rr, &body) {
			return
		}

		if body.Rating < 1 || body.Rating > 5 {
			rr.SendClientError(w, r.Context(), http.StatusUnprocessableEntity, "rating must be between 1 and 5")
			return
		}

		id := chi.URLParam(r, "id")

		found, err := vr.Update(r.Context(), id, body.Description, body.Rating)
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}
		if !found {
			rr.SendNotFound(w, r.Context())
			return
		}

		review, err := vr.GetById(r.Context(), id)
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		rr.SendJson(w, r.Context(), review)
	})

	r.Delete("/reviews/{id}", func(w http.ResponseWriter, r *http.Request) {
		found, err := vr.Delete(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}
		if !found {
			rr.SendNotFound(w, r.Context())
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/import/trigger", func(w http.ResponseWriter, r *http.Request) {
		added, err := sched.TriggerNow(r.Context())
		if err != nil {
			if errors.Is(err, scheduler.ErrAlreadyRunning) {
				rr.SendClientError(w, r.Context(), http.StatusConflict, err.Error())
				return
			}
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		rr.SendJson(w, r.Context(), struct {
			Added int `json:"added"`
		}{Added: added})
	})

	r.Get("/import/runs", func(w http.ResponseWriter, r *http.Request) {
		limit := getIntOrDefault("limit", r.URL.Query(), 20)
		if limit <= 0 {
			limit = 20
		}

		rows, err := nr.Recent(r.Context(), uint(limit))
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		type runRow struct {
			Id         uint64 `json:"id"`
			StartedAt  string `json:"started_at"`
			FinishedAt string `json:"finished_at"`
			Added      int    `json:"added"`
			Error      string `json:"error,omitempty"`
		}

		out := make([]runRow, 0, len(rows))
		for _, rec := range rows {
			out = append(out, runRow{
				Id:         rec.Id,
				StartedAt:  rec.StartedAt.UTC().Format("2006-01-02T15:04:05Z"),
				FinishedAt: rec.FinishedAt.UTC().Format("2006-01-02T15:04:05Z"),
				Added:      rec.Added,
				Error:      rec.Error,
			})
		}

		rr.SendJson(w, r.Context(), struct {
			Runs []runRow `json:"runs"`
		}{Runs: out})
	})

	return r
}

func decodeBody(w http.ResponseWriter, r *http.Request, rr *response.Responder, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		rr.SendClientError(w, r.Context(), http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}

	return true
}

func validateTitle(title string) string {
	if title == "" {
		return "title must not be empty"
	}
	if len(title) > maxNameLen {
		return "title is too long"
	}

	return ""
}

func validateName(name string) string {
	if name == "" {
		return "name must not be empty"
	}
	if len(name) > maxNameLen {
		return "name is too long"
	}

	return ""
}

func getIntOrDefault(key string, q url.Values, default_ int) int {
	if ls := q.Get(key); ls != "" {
		limit, err := strconv.Atoi(ls)
		if err == nil {
			return limit
		}
	}

	return default_
}

func getFloat(key string, q url.Values) *float64 {
	if fs := q.Get(key); fs != "" {
		val, err := strconv.ParseFloat(fs, 64)
		if err == nil {
			return &val
		}
	}

	return nil
}
