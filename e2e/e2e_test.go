//go:build e2e
// +build e2e

package e2e_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"sync"
	"testing"
	"time"

	"clinic-app-go/internal/app"
	"clinic-app-go/internal/config"
	"clinic-app-go/internal/db"
	clinicdomain "clinic-app-go/internal/domain/clinic"
	"clinic-app-go/internal/ratelimit"
	clinicrepo "clinic-app-go/internal/repository/postgres/clinic"
	"clinic-app-go/internal/session"
	"clinic-app-go/pkg/logger"
	"gorm.io/gorm"
)

type testEnv struct {
	server *httptest.Server
	client *http.Client
	db     *gorm.DB
}

func setupE2E(t *testing.T) *testEnv {
	t.Helper()

	dsn := os.Getenv("E2E_DB_DSN")
	if dsn == "" {
		t.Skip("E2E_DB_DSN not set; skipping e2e tests")
	}

	cfg := config.Config{
		Env: config.EnvDevelopment,
		DB:  config.DBConfig{Driver: config.DriverPostgres, DSN: dsn},
		Session: config.SessionConfig{
			Secret:     "e2e-secret",
			TTL:        time.Hour,
			CookieName: "clinic_session",
		},
		RateLimit:          config.RateLimitConfig{Requests: 1000, Window: time.Minute},
		CORSAllowedOrigins: []string{"*"},
	}

	dbConn, err := db.Open(cfg.DB, logger.Nop())
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	if err := db.Migrate(dbConn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := cleanDB(dbConn); err != nil {
		t.Fatalf("clean db: %v", err)
	}

	router, err := app.NewHandler(cfg, app.Deps{
		DB:       dbConn,
		Sessions: session.NewMemoryStore(),
		Limiter:  ratelimit.NewMemoryLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window),
	}, logger.Nop())
	if err != nil {
		t.Fatalf("build router: %v", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}

	env := &testEnv{
		server: httptest.NewServer(router),
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		db: dbConn,
	}
	t.Cleanup(env.Close)
	return env
}

func (e *testEnv) Close() {
	e.server.Close()
	sqlDB, err := e.db.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
}

func cleanDB(dbConn *gorm.DB) error {
	return dbConn.WithContext(context.Background()).Exec(
		"TRUNCATE TABLE enrollments, clients, programs, users RESTART IDENTITY CASCADE",
	).Error
}

func (e *testEnv) postForm(t *testing.T, path string, values url.Values) *http.Response {
	t.Helper()
	resp, err := e.client.PostForm(e.server.URL+path, values)
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp
}

func (e *testEnv) getJSON(t *testing.T, path string, dst interface{}) *http.Response {
	t.Helper()
	resp, err := e.client.Get(e.server.URL + path)
	if err != nil {
		t.Fatalf("get %s: %v", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if resp.StatusCode == http.StatusOK && dst != nil {
		if err := json.Unmarshal(body, dst); err != nil {
			t.Fatalf("decode %s: %v", body, err)
		}
	}
	return resp
}

func expectRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != location {
		t.Fatalf("expected redirect to %s, got %s", location, got)
	}
}

type clientPayload struct {
	ID       uint     `json:"id"`
	Name     string   `json:"name"`
	Age      int      `json:"age"`
	Gender   string   `json:"gender"`
	Programs []string `json:"programs"`
}

func TestClinicFlow(t *testing.T) {
	env := setupE2E(t)

	expectRedirect(t, env.postForm(t, "/register", url.Values{"username": {"nurse"}, "password": {"secret"}}), "/login")
	expectRedirect(t, env.postForm(t, "/login", url.Values{"username": {"nurse"}, "password": {"secret"}}), "/dashboard")

	expectRedirect(t, env.postForm(t, "/program/create", url.Values{"name": {"Nutrition"}}), "/dashboard")
	expectRedirect(t, env.postForm(t, "/client/register", url.Values{"name": {"Bob"}, "age": {"40"}, "gender": {"M"}}), "/client/1")
	expectRedirect(t, env.postForm(t, "/client/1/enroll", url.Values{"programs": {"1"}}), "/client/1")
	expectRedirect(t, env.postForm(t, "/client/1/enroll", url.Values{"programs": {"1"}}), "/client/1")

	var bob clientPayload
	if resp := env.getJSON(t, "/api/client/1", &bob); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if bob.Name != "Bob" || bob.Age != 40 || bob.Gender != "M" || len(bob.Programs) != 1 || bob.Programs[0] != "Nutrition" {
		t.Fatalf("unexpected client payload %+v", bob)
	}

	var rows int64
	if err := env.db.Model(&clinicdomain.Enrollment{}).Count(&rows).Error; err != nil {
		t.Fatalf("count enrollments: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected one enrollment row, got %d", rows)
	}

	expectRedirect(t, env.postForm(t, "/client/1/unenroll/1", nil), "/client/1")
	expectRedirect(t, env.postForm(t, "/client/1/unenroll/1", nil), "/client/1")

	expectRedirect(t, env.postForm(t, "/client/1/enroll", url.Values{"programs": {"1"}}), "/client/1")
	expectRedirect(t, env.postForm(t, "/program/1/delete", nil), "/dashboard")

	if err := env.db.Model(&clinicdomain.Enrollment{}).Count(&rows).Error; err != nil {
		t.Fatalf("count enrollments: %v", err)
	}
	if rows != 0 {
		t.Fatalf("expected enrollments to cascade, got %d", rows)
	}
}

func TestConcurrentWritesRespectConstraints(t *testing.T) {
	env := setupE2E(t)

	service := clinicdomain.NewService(clinicrepo.NewPostgres(env.db))
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.RegisterClient(ctx, clinicdomain.CreateClientInput{Name: "Alice", Age: 30, Gender: "F"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, clinicdomain.ErrClientExists):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly one client created, got %d", created)
	}

	program, err := service.CreateProgram(ctx, clinicdomain.CreateProgramInput{Name: "Cardio"})
	if err != nil {
		t.Fatalf("create program: %v", err)
	}
	clients, err := service.ListClients(ctx, "")
	if err != nil || len(clients) != 1 {
		t.Fatalf("list clients: %v (%d)", err, len(clients))
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := service.Enroll(ctx, clients[0].ID, []uint{program.ID}); err != nil {
				t.Errorf("enroll: %v", err)
			}
		}()
	}
	wg.Wait()

	var rows int64
	if err := env.db.Model(&clinicdomain.Enrollment{}).Count(&rows).Error; err != nil {
		t.Fatalf("count enrollments: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected one enrollment row, got %d", rows)
	}
}
