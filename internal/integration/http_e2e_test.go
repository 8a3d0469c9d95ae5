//go:build integration

package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpserver "reviewpasta/internal/adapters/http_server"
	"reviewpasta/internal/adapters/memcache"
	"reviewpasta/internal/adapters/qr"
	"reviewpasta/internal/app"
	"reviewpasta/internal/domain"
	"reviewpasta/internal/review"
	"reviewpasta/internal/storage/filestore"
	mysqlrepo "reviewpasta/internal/storage/mysql"
)

func migrationsDir() string {
	if d := os.Getenv("MIGRATIONS_DIR"); d != "" {
		return d
	}
	return filepath.Join("..", "..", "migrations", "mysql")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(migrationsDir(), "*.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files, "no .sql files in %s", migrationsDir())
	sort.Strings(files)
	for _, f := range files {
		b, err := os.ReadFile(f)
		require.NoError(t, err)
		_, err = db.Exec(string(b))
		require.NoError(t, err, "exec %s", f)
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	require.NoError(t, err)

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env:        []string{"MYSQL_ROOT_PASSWORD=root", "MYSQL_DATABASE=reviewpasta"},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/reviewpasta?parseTime=true&multiStatements=true&charset=utf8mb4&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	require.NoError(t, pool.Retry(func() error {
		var e error
		if db, e = sql.Open("mysql", dsn); e != nil {
			return e
		}
		return db.Ping()
	}))
	t.Cleanup(func() { _ = db.Close() })
	applyMigrations(t, db)
	return db
}

// Legacy JSON store → MySQL migration, then the HTTP API serving the
// migrated business.
func TestHTTP_EndToEnd_MigratedBusiness(t *testing.T) {
	ctx := context.Background()
	repo := mysqlrepo.New(startMySQL(t))

	dir := t.TempDir()
	legacy, err := filestore.Open(filepath.Join(dir, "legacy.json"))
	require.NoError(t, err)
	loc := "Brasov"
	_, err = legacy.Add(ctx, domain.NewBusiness{Name: "Cafe Central", Slug: "cafe-central", PlaceID: "ChIJcc", Location: &loc})
	require.NoError(t, err)

	report, err := app.NewMigrationService(legacy, repo, filepath.Join(dir, ".migrated"), 2).Run(ctx)
	require.NoError(t, err)
	require.True(t, report.Success, "errors: %v", report.Errors)
	require.Equal(t, 1, report.MigratedCount)

	businesses := app.NewBusinessService(repo, memcache.New(time.Minute, time.Minute), time.Minute, qr.NewEncoder(), "https://rp.example")
	orch := review.NewOrchestrator(domain.TemplateOnly{}, review.NewRenderer(rand.NewSource(3)), nil)
	s := httpserver.New(nil, 0)
	s.MountHandlers(&httpserver.Handlers{
		Businesses: businesses,
		Waitlist:   app.NewWaitlistService(repo),
		Drafts:     app.NewDraftService(businesses, orch),
	}, httpserver.NewAuthenticator("e2e"))
	ts := httptest.NewServer(s.Mux())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/v1/businesses/cafe-central")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var body struct {
		Name     string  `json:"name"`
		Location *string `json:"location"`
		OwnerID  *string `json:"owner_id"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "Cafe Central", body.Name)
	require.NotNil(t, body.Location)
	assert.Equal(t, "Brasov", *body.Location)
	assert.Nil(t, body.OwnerID)

	payload, _ := json.Marshal(map[string]any{"rating": 4, "locale": "ro", "seq": 2})
	res2, err := http.Post(ts.URL+"/v1/businesses/cafe-central/drafts", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer res2.Body.Close()
	require.Equal(t, http.StatusOK, res2.StatusCode)
	var draft struct {
		Review string `json:"review"`
		Seq    uint64 `json:"seq"`
	}
	require.NoError(t, json.NewDecoder(res2.Body).Decode(&draft))
	assert.Contains(t, draft.Review, "Cafe Central")
	assert.EqualValues(t, 2, draft.Seq)
}
