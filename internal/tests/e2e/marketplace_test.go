//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/roomatch/apiserver/config"
	"github.com/roomatch/apiserver/internal/db"
	"github.com/roomatch/apiserver/internal/server"
)

const serverPort = 18080

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	setTestEnv()

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestMarketplaceLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	suffix := time.Now().UnixNano()

	owner, err := register(t, baseURL, fmt.Sprintf("owner_%d@example.com", suffix), "OWNER")
	if err != nil {
		t.Fatalf("register owner: %v", err)
	}
	tenant, err := register(t, baseURL, fmt.Sprintf("tenant_%d@example.com", suffix), "TENANT")
	if err != nil {
		t.Fatalf("register tenant: %v", err)
	}

	city := fmt.Sprintf("Testville-%d", suffix)
	roomID, err := createRoom(t, baseURL, owner.AccessToken, city)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	foundID, err := searchRoom(t, baseURL, city)
	if err != nil {
		t.Fatalf("search room: %v", err)
	}
	if foundID != roomID {
		t.Fatalf("search returned %q, want %q", foundID, roomID)
	}

	conversationID, err := sendMessage(t, baseURL, tenant.AccessToken, owner.UserID, roomID, "", "Is this still available?")
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if _, err := sendMessage(t, baseURL, owner.AccessToken, tenant.UserID, "", conversationID, "It is, come by tomorrow."); err != nil {
		t.Fatalf("reply: %v", err)
	}

	texts, err := listMessages(t, baseURL, tenant.AccessToken, conversationID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(texts) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(texts))
	}
	if texts[0] != "Is this still available?" || texts[1] != "It is, come by tomorrow." {
		t.Fatalf("messages out of order: %v", texts)
	}

	if err := submitFeedback(t, baseURL, tenant.AccessToken, owner.UserID, roomID); err != nil {
		t.Fatalf("submit feedback: %v", err)
	}
	avg, count, err := roomAggregate(t, baseURL, roomID)
	if err != nil {
		t.Fatalf("room aggregate: %v", err)
	}
	if count != 1 || avg != 5 {
		t.Fatalf("unexpected aggregate avg=%v count=%d", avg, count)
	}
}

type session struct {
	AccessToken  string
	RefreshToken string
	UserID       string
}

func register(t *testing.T, baseURL, email, role string) (session, error) {
	t.Helper()

	payload := map[string]string{
		"name":     "E2E User",
		"email":    email,
		"password": "testpass123!",
		"role":     role,
	}
	var parsed struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		User         struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := postJSON(baseURL+"/auth/register", "", payload, http.StatusCreated, &parsed); err != nil {
		return session{}, err
	}
	if parsed.AccessToken == "" || parsed.User.ID == "" {
		return session{}, fmt.Errorf("incomplete register response")
	}
	return session{
		AccessToken:  parsed.AccessToken,
		RefreshToken: parsed.RefreshToken,
		UserID:       parsed.User.ID,
	}, nil
}

func createRoom(t *testing.T, baseURL, token, city string) (string, error) {
	t.Helper()

	payload := map[string]any{
		"country":      "AE",
		"city":         city,
		"area":         "Marina",
		"roomType":     "PRIVATE",
		"priceMonthly": 1500,
		"amenities":    []string{"wifi", "parking"},
	}
	var parsed struct {
		ID string `json:"id"`
	}
	if err := postJSON(baseURL+"/rooms", token, payload, http.StatusCreated, &parsed); err != nil {
		return "", err
	}
	if parsed.ID == "" {
		return "", fmt.Errorf("missing room id")
	}
	return parsed.ID, nil
}

func searchRoom(t *testing.T, baseURL, city string) (string, error) {
	t.Helper()

	var parsed struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
		Total int `json:"total"`
	}
	url := fmt.Sprintf("%s/rooms?city=%s&maxPrice=2000", baseURL, city)
	if err := getJSON(url, "", &parsed); err != nil {
		return "", err
	}
	if parsed.Total != 1 || len(parsed.Items) != 1 {
		return "", fmt.Errorf("expected exactly one match, got %d", parsed.Total)
	}
	return parsed.Items[0].ID, nil
}

func sendMessage(t *testing.T, baseURL, token, recipientID, roomID, conversationID, text string) (string, error) {
	t.Helper()

	payload := map[string]string{
		"recipientId":    recipientID,
		"roomId":         roomID,
		"conversationId": conversationID,
		"text":           text,
	}
	var parsed struct {
		ConversationID string `json:"conversationId"`
	}
	if err := postJSON(baseURL+"/messages", token, payload, http.StatusCreated, &parsed); err != nil {
		return "", err
	}
	return parsed.ConversationID, nil
}

func listMessages(t *testing.T, baseURL, token, conversationID string) ([]string, error) {
	t.Helper()

	var parsed []struct {
		Text string `json:"text"`
	}
	url := fmt.Sprintf("%s/messages/conversations/%s", baseURL, conversationID)
	if err := getJSON(url, token, &parsed); err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(parsed))
	for _, msg := range parsed {
		texts = append(texts, msg.Text)
	}
	return texts, nil
}

func submitFeedback(t *testing.T, baseURL, token, toUserID, roomID string) error {
	t.Helper()

	payload := map[string]any{
		"toUserId": toUserID,
		"roomId":   roomID,
		"rating":   5,
		"comment":  "Great host and room",
	}
	var parsed struct {
		ID string `json:"id"`
	}
	return postJSON(baseURL+"/feedback", token, payload, http.StatusCreated, &parsed)
}

func roomAggregate(t *testing.T, baseURL, roomID string) (float64, int, error) {
	t.Helper()

	var parsed struct {
		RatingAvg   float64 `json:"ratingAvg"`
		RatingCount int     `json:"ratingCount"`
	}
	if err := getJSON(baseURL+"/rooms/"+roomID, "", &parsed); err != nil {
		return 0, 0, err
	}
	return parsed.RatingAvg, parsed.RatingCount, nil
}

func postJSON(url, token string, payload any, wantStatus int, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s status %d: %s", url, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func getJSON(url, token string, out any) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s status %d: %s", url, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	conn, err := sql.Open("postgres", db.PostgresURL(cfg))
	if err != nil {
		return err
	}
	defer conn.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := conn.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	migrationsURL := "file://" + filepath.Join(root, "internal", "db", "migrations")

	migrator, err := migrate.New(migrationsURL, db.PostgresURL(cfg))
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func setTestEnv() {
	_ = os.Setenv("JWT_ACCESS_SECRET", "e2e-access-secret")
	_ = os.Setenv("JWT_REFRESH_SECRET", "e2e-refresh-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "roomatch")
	_ = os.Setenv("DB_PASSWORD", "roomatch")
	_ = os.Setenv("DB_NAME", "roomatch")
	_ = os.Setenv("DB_USE_SSL", "false")
	_ = os.Setenv("STORE_BACKEND", "postgres")
	_ = os.Setenv("TOKEN_STORE_BACKEND", "postgres")
	_ = os.Setenv("MQ_BACKEND", "none")
	_ = os.Setenv("STORAGE_BACKEND", "none")
}

func startServer() (*server.Server, error) {
	cfg := config.LoadConfig()
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
