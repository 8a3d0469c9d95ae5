package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"reviewpasta/internal/adapters/qr"
	"reviewpasta/internal/app"
	"reviewpasta/internal/domain"
)

const (
	maxBodyBytes   = 64 << 10
	defaultQRSize  = 512
	qrCacheMaxAge  = 24 * time.Hour
	businessParam  = "ref" // slug on reads, id on writes
	waitlistIDPath = "id"
)

type Handlers struct {
	Businesses *app.BusinessService
	Waitlist   *app.WaitlistService
	Drafts     *app.DraftService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Field  string `json:"field,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers, auth *Authenticator) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Route("/businesses", func(r chi.Router) {
			r.With(RequireAdmin).Get("/", h.listBusinesses)
			r.With(RequireUser).Post("/", h.createBusiness)

			r.Route("/{"+businessParam+"}", func(r chi.Router) {
				r.Get("/", h.getBusiness)
				r.With(RequireAdmin).Delete("/", h.deleteBusiness)
				r.With(RequireUser).Patch("/description", h.updateDescription)
				r.Post("/drafts", h.draft)
				r.Get("/links", h.links)
				r.Get("/qr", h.qrCode)
			})
		})

		r.Post("/waitlist", h.signUp)

		r.Route("/admin/waitlist", func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Get("/", h.listWaitlist)
			r.Get("/counts", h.waitlistCounts)
			r.Patch("/{"+waitlistIDPath+"}", h.setWaitlistStatus)
		})
	})
}

// ---- DTOs ----

type businessResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	PlaceID     string    `json:"place_id"`
	Location    *string   `json:"location"`
	Description *string   `json:"description"`
	OwnerID     *string   `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func toBusinessResponse(b domain.Business) businessResponse {
	return businessResponse{
		ID: b.ID, Name: b.Name, Slug: b.Slug, PlaceID: b.PlaceID,
		Location: b.Location, Description: b.Description, OwnerID: b.OwnerID, CreatedAt: b.CreatedAt,
	}
}

type createBusinessRequest struct {
	Name        string  `json:"name"`
	PlaceID     string  `json:"place_id"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
}

type descriptionRequest struct {
	Description *string `json:"description"`
}

type draftRequest struct {
	Rating *float64 `json:"rating"`
	Locale string   `json:"locale"`
	Seq    uint64   `json:"seq"`
}

type draftResponse struct {
	Review string `json:"review"`
	Seq    uint64 `json:"seq"`
}

type signUpRequest struct {
	Email               string  `json:"email"`
	PhoneNumber         string  `json:"phone_number"`
	Name                string  `json:"name"`
	BusinessName        string  `json:"business_name"`
	BusinessDescription string  `json:"business_description"`
	BusinessURL         string  `json:"business_url"`
	Message             *string `json:"message"`
}

type waitlistResponse struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	PhoneNumber         string    `json:"phone_number"`
	Name                string    `json:"name"`
	BusinessName        string    `json:"business_name"`
	BusinessDescription string    `json:"business_description"`
	BusinessURL         string    `json:"business_url"`
	Message             *string   `json:"message"`
	Status              string    `json:"status"`
	CreatedAt           time.Time `json:"created_at"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// ---- helpers ----

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeProblemBody(w, problem{Type: "about:blank", Title: title, Status: status, Detail: detail})
}

func writeProblemBody(w http.ResponseWriter, p problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeProblemBody(w, problem{Type: "about:blank", Title: "Invalid input", Status: http.StatusBadRequest, Detail: ve.Error(), Field: ve.Field})
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "resource not found")
	case errors.Is(err, domain.ErrDuplicateSlug):
		writeProblem(w, http.StatusConflict, "Conflict", domain.ErrDuplicateSlug.Error())
	case errors.Is(err, domain.ErrDuplicateEmail):
		writeProblem(w, http.StatusConflict, "Conflict", domain.ErrDuplicateEmail.Error())
	case errors.Is(err, domain.ErrInvalidQRSize), errors.Is(err, domain.ErrInvalidQRFormat):
		writeProblem(w, http.StatusBadRequest, "Invalid QR request", err.Error())
	case errors.Is(err, domain.ErrEncoding):
		writeProblem(w, http.StatusUnprocessableEntity, "Cannot encode", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeProblem(w, http.StatusForbidden, "Forbidden", "not allowed to modify this resource")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Malformed body", err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

func currentUser(r *http.Request) domain.User {
	u, _ := UserFrom(r.Context())
	return u
}

// ---- businesses ----

func (h *Handlers) listBusinesses(w http.ResponseWriter, r *http.Request) {
	list, err := h.Businesses.List(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]businessResponse, 0, len(list))
	for _, b := range list {
		out = append(out, toBusinessResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) createBusiness(w http.ResponseWriter, r *http.Request) {
	var req createBusinessRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	b, err := h.Businesses.Create(r.Context(), currentUser(r), app.CreateBusinessInput{
		Name: req.Name, PlaceID: req.PlaceID, Location: req.Location, Description: req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/businesses/"+b.Slug)
	writeJSON(w, http.StatusCreated, toBusinessResponse(b))
}

func (h *Handlers) getBusiness(w http.ResponseWriter, r *http.Request) {
	b, err := h.Businesses.GetBySlug(r.Context(), chi.URLParam(r, businessParam))
	if err != nil {
		writeError(w, r, err)
		return
	}

	etag, body := calcETagAndBody(toBusinessResponse(b))
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getBusiness body")
	}
}

func (h *Handlers) updateDescription(w http.ResponseWriter, r *http.Request) {
	var req descriptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	b, err := h.Businesses.UpdateDescription(r.Context(), currentUser(r), chi.URLParam(r, businessParam), req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBusinessResponse(b))
}

func (h *Handlers) deleteBusiness(w http.ResponseWriter, r *http.Request) {
	if err := h.Businesses.Delete(r.Context(), currentUser(r), chi.URLParam(r, businessParam)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) links(w http.ResponseWriter, r *http.Request) {
	links, err := h.Businesses.ReviewLinks(r.Context(), chi.URLParam(r, businessParam))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

func (h *Handlers) qrCode(w http.ResponseWriter, r *http.Request) {
	size := defaultQRSize
	if s := r.URL.Query().Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid QR request", "size must be 256, 512 or 1024")
			return
		}
		size = n
	}
	format, err := qr.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	img, err := h.Businesses.QRCode(r.Context(), chi.URLParam(r, businessParam), size, format)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", img.FileName))
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(qrCacheMaxAge.Seconds())))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img.Data); err != nil {
		log.Error().Err(err).Msg("failed to write QR body")
	}
}

// draft echoes seq back so a client firing several requests can keep only
// the response for its newest one.
func (h *Handlers) draft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Rating == nil {
		writeError(w, r, &domain.ValidationError{Field: "rating", Message: "is required"})
		return
	}
	lang := req.Locale
	if lang == "" {
		lang = r.Header.Get("Accept-Language")
	}
	locale := domain.ParseLocale(lang)

	text, err := h.Drafts.Draft(r.Context(), chi.URLParam(r, businessParam), *req.Rating, locale)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Language", string(locale))
	writeJSON(w, http.StatusOK, draftResponse{Review: text, Seq: req.Seq})
}

// ---- waitlist ----

func (h *Handlers) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := h.Waitlist.SignUp(r.Context(), app.SignUpInput{
		Email:               req.Email,
		PhoneNumber:         req.PhoneNumber,
		Name:                req.Name,
		BusinessName:        req.BusinessName,
		BusinessDescription: req.BusinessDescription,
		BusinessURL:         req.BusinessURL,
		Message:             req.Message,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handlers) listWaitlist(w http.ResponseWriter, r *http.Request) {
	var status *domain.WaitlistStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.WaitlistStatus(s)
		status = &st
	}
	entries, err := h.Waitlist.List(r.Context(), currentUser(r), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]waitlistResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, waitlistResponse{
			ID: e.ID, Email: e.Email, PhoneNumber: e.PhoneNumber, Name: e.Name,
			BusinessName: e.BusinessName, BusinessDescription: e.BusinessDescription, BusinessURL: e.BusinessURL,
			Message: e.Message, Status: string(e.Status), CreatedAt: e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) waitlistCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Waitlist.Counts(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make(map[string]int, len(counts))
	for st, n := range counts {
		out[string(st)] = n
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) setWaitlistStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := chi.URLParam(r, waitlistIDPath)
	if err := h.Waitlist.SetStatus(r.Context(), currentUser(r), id, domain.WaitlistStatus(req.Status)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": req.Status})
}
