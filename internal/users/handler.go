package users

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dandy1414/user-api/internal/domain"
	"github.com/dandy1414/user-api/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps the size of a create payload.
const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("invalid request body")

// Handler handles HTTP requests for the users module.
type Handler struct {
	service *Service
}

// NewHandler creates a new users handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the user routes under both the singular and the
// plural path.
func (h *Handler) RegisterRoutes(r chi.Router) {
	for _, path := range []string{"/user", "/users"} {
		r.Post(path, h.CreateUser)
		r.Get(path, h.ListUsers)
	}
}

// CreatedUser is the representation of a newly created user.
type CreatedUser struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

// CreateUser handles POST /user and POST /users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(w, r)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, errInvalidBody.Error())
		return
	}

	user, err := h.service.CreateUser(r.Context(), BindCreateUser(raw))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Created(w, "User created", CreatedUser{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	})
}

// PageResponse is the paginated envelope of a user listing.
type PageResponse struct {
	CurrentPage  int            `json:"current_page"`
	Data         []UserListItem `json:"data"`
	FirstPageURL string         `json:"first_page_url"`
	From         *int64         `json:"from"`
	LastPage     int            `json:"last_page"`
	LastPageURL  string         `json:"last_page_url"`
	Links        []PageLink     `json:"links"`
	NextPageURL  *string        `json:"next_page_url"`
	Path         string         `json:"path"`
	PerPage      int            `json:"per_page"`
	PrevPageURL  *string        `json:"prev_page_url"`
	To           *int64         `json:"to"`
	Total        int64          `json:"total"`
}

// PageLink is one entry of a pager: previous, a page number, a gap or next.
type PageLink struct {
	URL    *string `json:"url"`
	Label  string  `json:"label"`
	Active bool    `json:"active"`
}

// Labels of the pager entries that are not page numbers.
const (
	prevLabel = "&laquo; Previous"
	nextLabel = "Next &raquo;"
	gapLabel  = "..."
)

// pagerEachSide is the number of pages shown on each side of the current one.
const pagerEachSide = 3

// ListUsers handles GET /user and GET /users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, err := h.service.ListUsers(r.Context(), ParseListUsersQuery(query))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, newPageResponse(r.URL.Path, query, page))
}

func newPageResponse(path string, query url.Values, page *UserPage) PageResponse {
	pageURL := func(n int) string {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(n))
		return path + "?" + q.Encode()
	}

	lastPage := page.LastPage()
	resp := PageResponse{
		CurrentPage:  page.CurrentPage,
		Data:         page.Items,
		FirstPageURL: pageURL(1),
		From:         page.From(),
		LastPage:     lastPage,
		LastPageURL:  pageURL(lastPage),
		Path:         path,
		PerPage:      page.PerPage,
		To:           page.To(),
		Total:        page.Total,
	}

	if page.CurrentPage < lastPage {
		next := pageURL(page.CurrentPage + 1)
		resp.NextPageURL = &next
	}
	if page.CurrentPage > 1 {
		prev := pageURL(page.CurrentPage - 1)
		resp.PrevPageURL = &prev
	}

	resp.Links = append(resp.Links, PageLink{URL: resp.PrevPageURL, Label: prevLabel})
	for _, n := range pagerWindow(page.CurrentPage, lastPage) {
		if n == 0 {
			resp.Links = append(resp.Links, PageLink{Label: gapLabel})
			continue
		}
		u := pageURL(n)
		resp.Links = append(resp.Links, PageLink{URL: &u, Label: strconv.Itoa(n), Active: n == page.CurrentPage})
	}
	resp.Links = append(resp.Links, PageLink{URL: resp.NextPageURL, Label: nextLabel})

	return resp
}

// pagerWindow lists the page numbers to link, with 0 marking a gap. Short
// page ranges are listed in full. Longer ones keep the first two and last
// two pages around a window of pagerEachSide pages on each side of current.
func pagerWindow(current, last int) []int {
	pages := func(from, to int) []int {
		var out []int
		for n := max(from, 1); n <= to; n++ {
			out = append(out, n)
		}
		return out
	}

	if last < pagerEachSide*2+8 {
		return pages(1, last)
	}

	window := pagerEachSide + 4
	var out []int
	switch {
	case current <= window:
		out = append(pages(1, window+pagerEachSide), 0)
		out = append(out, pages(last-1, last)...)
	case current > last-window:
		out = append(pages(1, 2), 0)
		out = append(out, pages(last-(window+pagerEachSide-1), last)...)
	default:
		out = append(pages(1, 2), 0)
		out = append(out, pages(current-pagerEachSide, current+pagerEachSide)...)
		out = append(out, 0)
		out = append(out, pages(last-1, last)...)
	}
	return out
}

// decodeBody reads a JSON or form-encoded body into a generic map. An empty
// body decodes to an empty map so that validation can report missing fields.
func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType := "application/json"
	if ct := r.Header.Get("Content-Type"); ct != "" {
		parsed, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return nil, err
		}
		mediaType = parsed
	}

	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, err
		}
		raw := make(map[string]any, len(r.PostForm))
		for k := range r.PostForm {
			raw[k] = r.PostForm.Get(k)
		}
		return raw, nil
	default:
		raw := map[string]any{}
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		return raw, nil
	}
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		details := make([]httputil.FieldError, 0, len(validationErr.Fields))
		for _, f := range validationErr.Fields {
			details = append(details, httputil.FieldError{Field: f.Field, Message: f.Rule})
		}
		httputil.ValidationError(w, details)
		return
	}

	httputil.HandleError(r.Context(), w, err, nil)
}
