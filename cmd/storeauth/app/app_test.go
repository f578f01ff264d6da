package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	storeauth "github.com/goliatone/go-storeauth"
	"github.com/goliatone/go-storeauth/core"
	"github.com/goliatone/go-storeauth/security"
	sqlstore "github.com/goliatone/go-storeauth/store/sql"
)

const testPassphrase = "cli-test-passphrase"

func runCLI(t *testing.T, dsn string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{
		"--driver", "sqlite3",
		"--dsn", dsn,
		"--passphrase", testPassphrase,
		"--log-level", "error",
	}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func seedStore(t *testing.T, dsn string, shop string) {
	t.Helper()
	client, err := sqlstore.Open(sqlstore.Config{Driver: "sqlite3", DSN: dsn})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer client.Close()

	cipher, err := security.NewTextCipher(testPassphrase)
	if err != nil {
		t.Fatalf("new text cipher: %v", err)
	}
	svc, err := storeauth.NewService(storeauth.DefaultConfig(),
		storeauth.WithPersistenceClient(client),
		storeauth.WithRepositoryFactory(sqlstore.NewRepositoryFactory()),
		storeauth.WithCipher(cipher),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := svc.SaveNewStore(context.Background(), core.AuthorizedClient{
		PrincipalName: shop,
		AccessToken:   core.AccessToken{TokenType: core.TokenTypeBearer, Value: "shpat_secret"},
	}, core.Authentication{Name: shop, Authorities: []string{"read_orders", "write_orders"}}); err != nil {
		t.Fatalf("save new store: %v", err)
	}
}

func TestCLI_StoreLifecycle(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "storeauth.db") + "?_foreign_keys=on"

	if out, err := runCLI(t, dsn, "migrate"); err != nil || strings.TrimSpace(out) != "ok" {
		t.Fatalf("migrate: %q %v", out, err)
	}
	if out, err := runCLI(t, dsn, "exists", "acme.myshopify.com"); err != nil || strings.TrimSpace(out) != "false" {
		t.Fatalf("exists before seed: %q %v", out, err)
	}

	if out, err := runCLI(t, dsn, "register", "--client-id", "client", "--client-secret", "secret"); err != nil || strings.TrimSpace(out) != "shopify" {
		t.Fatalf("register: %q %v", out, err)
	}
	seedStore(t, dsn, "acme.myshopify.com")

	out, err := runCLI(t, dsn, "inspect", "acme.myshopify.com")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if strings.Contains(out, "shpat_secret") {
		t.Fatalf("inspect must not print the token: %s", out)
	}
	var report inspectOutput
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode inspect output: %v\n%s", err, out)
	}
	if report.Status != string(core.StoreFound) || !report.TokenPresent {
		t.Fatalf("unexpected inspect report %+v", report)
	}
	if len(report.Scopes) != 2 {
		t.Fatalf("expected stored scopes, got %+v", report.Scopes)
	}

	if out, err := runCLI(t, dsn, "uninstall", "acme.myshopify.com"); err != nil || strings.TrimSpace(out) != "ok" {
		t.Fatalf("uninstall: %q %v", out, err)
	}
	if out, err := runCLI(t, dsn, "exists", "acme.myshopify.com"); err != nil || strings.TrimSpace(out) != "false" {
		t.Fatalf("exists after uninstall: %q %v", out, err)
	}
}

func TestCLI_InspectWithoutRegistrationFails(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "storeauth.db")
	if _, err := runCLI(t, dsn, "migrate"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	seedStore(t, dsn, "acme.myshopify.com")

	_, err := runCLI(t, dsn, "inspect", "acme.myshopify.com")
	var missing *core.MissingRegistrationError
	if !errors.As(err, &missing) {
		t.Fatalf("expected missing registration error, got %v", err)
	}
}

func TestCLI_RequiresDSN(t *testing.T) {
	t.Setenv(envDSN, "")
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"exists", "acme"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), envDSN) {
		t.Fatalf("expected dsn error, got %v", err)
	}
}

func TestCLI_MissingEnvFileFails(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env"), "exists", "acme"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected env file error")
	}
}

func TestCLI_InspectRequiresPassphrase(t *testing.T) {
	t.Setenv(envPassphrase, "")
	dsn := "file:" + filepath.Join(t.TempDir(), "storeauth.db")
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--driver", "sqlite3", "--dsn", dsn, "inspect", "acme"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "passphrase") {
		t.Fatalf("expected passphrase error, got %v", err)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "  ", " postgres ", "sqlite3"); got != "postgres" {
		t.Fatalf("unexpected value %q", got)
	}
	if got := firstNonEmpty(); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
