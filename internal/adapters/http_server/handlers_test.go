package httpserver_test

import (
	"bytes"
	"encoding/json"
	"image/png"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpserver "reviewpasta/internal/adapters/http_server"
	"reviewpasta/internal/adapters/memcache"
	"reviewpasta/internal/adapters/qr"
	"reviewpasta/internal/app"
	"reviewpasta/internal/domain"
	"reviewpasta/internal/review"
	"reviewpasta/internal/storage/filestore"
)

const secret = "test-secret"

type harness struct {
	srv   *httptest.Server
	admin string
	alice string
	bob   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := filestore.Open(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)

	cache := memcache.New(time.Minute, time.Minute)
	businesses := app.NewBusinessService(store, cache, time.Minute, qr.NewEncoder(), "https://rp.example")
	orch := review.NewOrchestrator(domain.TemplateOnly{}, review.NewRenderer(rand.NewSource(1)), nil)

	s := httpserver.New([]string{"https://rp.example"}, 0)
	s.MountHandlers(&httpserver.Handlers{
		Businesses: businesses,
		Waitlist:   app.NewWaitlistService(store),
		Drafts:     app.NewDraftService(businesses, orch),
	}, httpserver.NewAuthenticator(secret))

	ts := httptest.NewServer(s.Mux())
	t.Cleanup(ts.Close)

	token := func(sub, role string) string {
		tok, err := httpserver.IssueToken(secret, sub, role, time.Hour)
		require.NoError(t, err)
		return tok
	}
	return &harness{
		srv:   ts,
		admin: token("root", httpserver.RoleAdmin),
		alice: token("alice", httpserver.RoleUser),
		bob:   token("bob", httpserver.RoleUser),
	}
}

func (h *harness) do(t *testing.T, method, path, token string, body any, hdr ...string) *http.Response {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, h.srv.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (h *harness) createAcme(t *testing.T) map[string]any {
	t.Helper()
	resp := h.do(t, http.MethodPost, "/v1/businesses", h.alice, map[string]any{
		"name": "Acme Coffee", "place_id": "ChIJacme", "location": "Cluj",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[map[string]any](t, resp)
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	resp := h.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBusinessLifecycle(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodPost, "/v1/businesses", "", map[string]any{"name": "x", "place_id": "y"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	created := h.createAcme(t)
	assert.Equal(t, "acme-coffee", created["slug"])
	assert.Equal(t, "alice", created["owner_id"])
	id := created["id"].(string)

	resp = h.do(t, http.MethodPost, "/v1/businesses", h.bob, map[string]any{"name": "ACME coffee", "place_id": "z"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))

	resp = h.do(t, http.MethodGet, "/v1/businesses/acme-coffee", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	resp = h.do(t, http.MethodGet, "/v1/businesses/acme-coffee", "", nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)

	resp = h.do(t, http.MethodPatch, "/v1/businesses/"+id+"/description", h.bob, map[string]any{"description": "nope"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = h.do(t, http.MethodPatch, "/v1/businesses/"+id+"/description", h.alice, map[string]any{"description": "Roastery"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Roastery", decode[map[string]any](t, resp)["description"])

	resp = h.do(t, http.MethodGet, "/v1/businesses/acme-coffee", "", nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "description change produces a new ETag")

	resp = h.do(t, http.MethodGet, "/v1/businesses", h.alice, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = h.do(t, http.MethodGet, "/v1/businesses", h.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]map[string]any](t, resp), 1)

	resp = h.do(t, http.MethodDelete, "/v1/businesses/"+id, h.alice, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = h.do(t, http.MethodDelete, "/v1/businesses/"+id, h.admin, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = h.do(t, http.MethodGet, "/v1/businesses/acme-coffee", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateBusiness_Validation(t *testing.T) {
	h := newHarness(t)
	resp := h.do(t, http.MethodPost, "/v1/businesses", h.alice, map[string]any{"name": "Acme"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "place_id", decode[map[string]any](t, resp)["field"])

	resp = h.do(t, http.MethodPost, "/v1/businesses", h.alice, map[string]any{"name": "Acme", "place_id": "p", "extra": 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuth_RejectsBadTokens(t *testing.T) {
	h := newHarness(t)
	other, err := httpserver.IssueToken("another-secret", "mallory", httpserver.RoleAdmin, time.Hour)
	require.NoError(t, err)
	expired, err := httpserver.IssueToken(secret, "alice", httpserver.RoleUser, -time.Minute)
	require.NoError(t, err)

	for name, hdr := range map[string]string{
		"wrong secret": "Bearer " + other,
		"expired":      "Bearer " + expired,
		"not bearer":   "Basic abc",
		"garbage":      "Bearer abc.def.ghi",
	} {
		t.Run(name, func(t *testing.T) {
			resp := h.do(t, http.MethodGet, "/v1/admin/waitlist", "", nil, "Authorization", hdr)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestDraft(t *testing.T) {
	h := newHarness(t)
	h.createAcme(t)

	resp := h.do(t, http.MethodPost, "/v1/businesses/acme-coffee/drafts", "", map[string]any{"rating": 5, "locale": "en", "seq": 7})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[map[string]any](t, resp)
	assert.Contains(t, out["review"], "Acme Coffee")
	assert.EqualValues(t, 7, out["seq"])

	// locale from Accept-Language when the body has none
	resp = h.do(t, http.MethodPost, "/v1/businesses/acme-coffee/drafts", "", map[string]any{"rating": 1}, "Accept-Language", "ro-RO,ro;q=0.9")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ro", resp.Header.Get("Content-Language"))

	resp = h.do(t, http.MethodPost, "/v1/businesses/acme-coffee/drafts", "", map[string]any{"locale": "en"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.do(t, http.MethodPost, "/v1/businesses/missing/drafts", "", map[string]any{"rating": 3})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLinksAndQR(t *testing.T) {
	h := newHarness(t)
	h.createAcme(t)

	resp := h.do(t, http.MethodGet, "/v1/businesses/acme-coffee/links", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	links := decode[map[string]string](t, resp)
	assert.Equal(t, "https://rp.example/review/acme-coffee", links["review_url"])
	assert.Equal(t, "https://search.google.com/local/writereview?placeid=ChIJacme", links["google_review_url"])

	resp = h.do(t, http.MethodGet, "/v1/businesses/acme-coffee/qr?size=256", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="acme-coffee-qr-code.png"`, resp.Header.Get("Content-Disposition"))
	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())

	resp = h.do(t, http.MethodGet, "/v1/businesses/acme-coffee/qr?format=svg", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))

	for _, q := range []string{"size=300", "size=big", "format=gif"} {
		resp = h.do(t, http.MethodGet, "/v1/businesses/acme-coffee/qr?"+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}

func TestWaitlist(t *testing.T) {
	h := newHarness(t)
	body := map[string]any{
		"email": "Ana@Example.com", "phone_number": "+40 712 345 678", "name": "Ana",
		"business_name": "Nordic Brew", "business_description": "Coffee", "business_url": "https://nb.example",
	}
	resp := h.do(t, http.MethodPost, "/v1/waitlist", "", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decode[map[string]string](t, resp)["id"]

	resp = h.do(t, http.MethodPost, "/v1/waitlist", "", body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	bad := map[string]any{}
	for k, v := range body {
		bad[k] = v
	}
	bad["email"] = "other@example.com"
	bad["phone_number"] = "abc"
	resp = h.do(t, http.MethodPost, "/v1/waitlist", "", bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.do(t, http.MethodGet, "/v1/admin/waitlist", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = h.do(t, http.MethodGet, "/v1/admin/waitlist", h.alice, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = h.do(t, http.MethodPatch, "/v1/admin/waitlist/"+id, h.admin, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = h.do(t, http.MethodGet, "/v1/admin/waitlist?status=approved", h.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := decode[[]map[string]any](t, resp)
	require.Len(t, entries, 1)
	assert.Equal(t, "ana@example.com", entries[0]["email"])

	resp = h.do(t, http.MethodGet, "/v1/admin/waitlist?status=bogus", h.admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.do(t, http.MethodGet, "/v1/admin/waitlist/counts", h.alice, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = h.do(t, http.MethodGet, "/v1/admin/waitlist/counts", h.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]int{"pending": 0, "approved": 1, "rejected": 0}, decode[map[string]int](t, resp))
}

func TestRequestTimeout(t *testing.T) {
	s := httpserver.New(nil, 20*time.Millisecond)
	s.Mux().(chi.Router).Get("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
			w.WriteHeader(http.StatusOK)
		}
	})
	ts := httptest.NewServer(s.Mux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/slow")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t)
	resp := h.do(t, http.MethodOptions, "/v1/businesses/acme/drafts", "", nil,
		"Origin", "https://rp.example",
		"Access-Control-Request-Method", "POST",
	)
	assert.Equal(t, "https://rp.example", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(resp.Header.Get("Access-Control-Allow-Methods"), "POST"))
}
