//go:build integration

package integration

import (
	"context"
	"log"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/dandy1414/user-api/internal/app"
	"github.com/dandy1414/user-api/internal/config"
	"github.com/dandy1414/user-api/internal/pkg/postgres"
	"github.com/dandy1414/user-api/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	testServer   *httptest.Server
	testContract *testutil.Contract
	testDB       *pgxpool.Pool
)

const (
	openAPISpecPath = "../../api/openapi/openapi.yaml"
	migrationsPath  = "../../migrations"
)

// newTestClient creates a client that checks every exchange against the
// OpenAPI document.
func newTestClient(t *testing.T) *testutil.Client {
	t.Helper()
	client := testutil.NewCheckedClient(testServer.URL, testContract)
	client.SetT(t)
	return client
}

// newTestClientWithoutValidation is for requests the document does not
// describe, such as malformed bodies.
func newTestClientWithoutValidation() *testutil.Client {
	return testutil.NewClient(testServer.URL)
}

func TestMain(m *testing.M) {
	ctx := context.Background()

	pgContainer, err := testutil.NewPostgresContainer(ctx)
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}

	if err := postgres.Migrate(pgContainer.ConnectionString, migrationsPath); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	cfg.Server.MetricsPort = "0"
	cfg.Database.URL = pgContainer.ConnectionString
	cfg.Database.MaxOpenConns = 5
	cfg.Database.ConnectAttempts = 3
	cfg.Log.Level = "error"
	cfg.Log.Format = "text"

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("create app: %v", err)
	}

	testDB, err = pgxpool.New(ctx, pgContainer.ConnectionString)
	if err != nil {
		log.Fatalf("create test db pool: %v", err)
	}

	testServer = httptest.NewServer(application.Router())

	testContract, err = testutil.LoadContract(openAPISpecPath)
	if err != nil {
		log.Fatalf("load OpenAPI contract: %v", err)
	}

	code := m.Run()

	testServer.Close()
	testDB.Close()

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := application.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown app: %v", err)
	}
	cancel()

	if err := pgContainer.Terminate(ctx); err != nil {
		log.Printf("terminate postgres: %v", err)
	}

	os.Exit(code)
}
