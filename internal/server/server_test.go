package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/serhq/estimator/internal/auth"
	"github.com/serhq/estimator/internal/models"
	"github.com/serhq/estimator/internal/service"
	"github.com/serhq/estimator/internal/session"
	"github.com/serhq/estimator/internal/storage"
	"github.com/serhq/estimator/internal/storage/sqlite"
	"github.com/serhq/estimator/internal/webhook"
)

func newTestServer(t *testing.T) (*httptest.Server, *session.Gate) {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	gate, err := session.Load(t.Context(), store, storage.NewMemoryKV())
	if err != nil {
		t.Fatalf("Failed to load gate: %v", err)
	}

	log := slog.Default()
	tokens := auth.NewJWTManager("test-secret", time.Hour, 24*time.Hour)
	srv := New(
		log,
		service.NewProjectService(store, gate, log),
		service.NewEstimateService(store, log),
		gate,
		auth.NewPasswordAuthenticator(store),
		tokens,
		nil, // no AI in tests
		webhook.NewHandler(log, "", "", gate),
		false,
	)

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts, gate
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return v
}

func register(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/auth/register", "", map[string]any{
		"email":       "producer@example.com",
		"displayName": "Producer",
		"password":    "longenough",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Register returned status %d", resp.StatusCode)
	}
	body := decode[struct {
		Token string `json:"token"`
	}](t, resp)
	if body.Token == "" {
		t.Fatal("Register returned an empty token")
	}
	return body.Token
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/projects", "", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 without a token, got %d", resp.StatusCode)
	}
}

func TestRegisterLoginAndSession(t *testing.T) {
	ts, _ := newTestServer(t)
	register(t, ts)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/auth/login", "", map[string]any{
		"email":    "producer@example.com",
		"password": "longenough",
		"remember": true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Login returned status %d", resp.StatusCode)
	}
	body := decode[struct {
		Token string `json:"token"`
		User  struct {
			Email string `json:"email"`
		} `json:"user"`
	}](t, resp)
	if body.User.Email != "producer@example.com" {
		t.Errorf("Expected user email in response, got %q", body.User.Email)
	}

	sess := decode[struct {
		Authenticated bool `json:"authenticated"`
		Pro           bool `json:"pro"`
	}](t, doJSON(t, http.MethodGet, ts.URL+"/api/session", body.Token, nil))
	if !sess.Authenticated {
		t.Error("Expected an authenticated session after login")
	}
	if sess.Pro {
		t.Error("New account should not be Pro")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	ts, _ := newTestServer(t)
	register(t, ts)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/auth/login", "", map[string]any{
		"email":    "producer@example.com",
		"password": "wrong-password",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 for a bad password, got %d", resp.StatusCode)
	}
}

func TestProjectLifecycle(t *testing.T) {
	ts, _ := newTestServer(t)
	token := register(t, ts)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/projects", token, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Create project returned status %d", resp.StatusCode)
	}
	created := decode[models.Estimate](t, resp)
	if created.ID == "" {
		t.Fatal("Created project has no ID")
	}
	if created.MarkupPercent != 10 {
		t.Errorf("Expected default markup 10, got %v", created.MarkupPercent)
	}

	// Fill in items and save.
	created.Items = []models.LineItem{
		{Description: "Director of Photography", Category: models.CategoryProduction, Quantity: 2, Rate: 500, Unit: models.UnitDay, Taxable: true},
		{Description: "Travel", Category: models.CategoryExpenses, Quantity: 1, Rate: 100, Unit: models.UnitFlat, Taxable: false},
	}
	created.TaxPercent = 8
	putResp := doJSON(t, http.MethodPut, ts.URL+"/api/estimates/"+created.ID, token, created)
	if putResp.StatusCode != http.StatusOK {
		t.Fatalf("Save estimate returned status %d", putResp.StatusCode)
	}
	putResp.Body.Close()

	totals := decode[struct {
		Totals struct {
			Subtotal     float64 `json:"subtotal"`
			MarkupAmount float64 `json:"markupAmount"`
			TaxAmount    float64 `json:"taxAmount"`
			Total        float64 `json:"total"`
		} `json:"totals"`
	}](t, doJSON(t, http.MethodGet, ts.URL+"/api/estimates/"+created.ID+"/totals", token, nil))
	if totals.Totals.Subtotal != 1100 {
		t.Errorf("Expected subtotal 1100, got %v", totals.Totals.Subtotal)
	}
	if totals.Totals.Total != 1298 {
		t.Errorf("Expected total 1298, got %v", totals.Totals.Total)
	}

	list := decode[[]models.Estimate](t, doJSON(t, http.MethodGet, ts.URL+"/api/projects", token, nil))
	if len(list) != 1 {
		t.Fatalf("Expected 1 project in list, got %d", len(list))
	}

	delResp := doJSON(t, http.MethodDelete, ts.URL+"/api/estimates/"+created.ID, token, nil)
	if delResp.StatusCode != http.StatusOK {
		t.Errorf("Delete returned status %d", delResp.StatusCode)
	}
	delResp.Body.Close()

	getResp := doJSON(t, http.MethodGet, ts.URL+"/api/estimates/"+created.ID, token, nil)
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", getResp.StatusCode)
	}
}

func TestFreeProjectCeilingOverHTTP(t *testing.T) {
	ts, gate := newTestServer(t)
	token := register(t, ts)

	for i := 0; i < session.FreeProjectCeiling; i++ {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/projects", token, nil)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("Project %d returned status %d", i+1, resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/projects", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPaymentRequired {
		t.Errorf("Expected 402 past the free ceiling, got %d", resp.StatusCode)
	}

	// A completed payment through the webhook lifts the ceiling.
	if err := gate.Upgrade(t.Context()); err != nil {
		t.Fatalf("Upgrade failed: %v", err)
	}
	after := doJSON(t, http.MethodPost, ts.URL+"/api/projects", token, nil)
	defer after.Body.Close()
	if after.StatusCode != http.StatusCreated {
		t.Errorf("Expected Pro account to create projects, got %d", after.StatusCode)
	}
}

func TestParallelProjectCreationHoldsCeiling(t *testing.T) {
	ts, _ := newTestServer(t)
	token := register(t, ts)

	// Parallel creations race through the full handler chain; the gate's
	// lock means exactly the free ceiling succeed and the rest get 402.
	const attempts = 8
	var wg sync.WaitGroup
	statuses := make(chan int, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := doJSON(t, http.MethodPost, ts.URL+"/api/projects", token, nil)
			resp.Body.Close()
			statuses <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(statuses)

	var created, refused int
	for status := range statuses {
		switch status {
		case http.StatusCreated:
			created++
		case http.StatusPaymentRequired:
			refused++
		default:
			t.Fatalf("Unexpected status %d", status)
		}
	}
	if created != session.FreeProjectCeiling {
		t.Errorf("created = %d, want exactly %d", created, session.FreeProjectCeiling)
	}
	if refused != attempts-session.FreeProjectCeiling {
		t.Errorf("refused = %d, want %d", refused, attempts-session.FreeProjectCeiling)
	}

	list := decode[[]models.Estimate](t, doJSON(t, http.MethodGet, ts.URL+"/api/projects", token, nil))
	if len(list) != session.FreeProjectCeiling {
		t.Errorf("Expected %d stored projects, got %d", session.FreeProjectCeiling, len(list))
	}
}

func TestApplyEstimatePayload(t *testing.T) {
	ts, _ := newTestServer(t)
	token := register(t, ts)

	created := decode[models.Estimate](t, doJSON(t, http.MethodPost, ts.URL+"/api/projects", token, nil))

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/estimates/"+created.ID+"/apply", token, map[string]any{
		"items": []map[string]any{
			{"description": "Editor", "category": "Post-Production", "quantity": 3, "rate": 400, "unit": "day", "taxable": true},
		},
		"reasoning": "Three edit days for a short piece.",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Apply returned status %d", resp.StatusCode)
	}
	updated := decode[models.Estimate](t, resp)
	if len(updated.Items) != 1 {
		t.Fatalf("Expected 1 item after apply, got %d", len(updated.Items))
	}
	if updated.Items[0].Description != "Editor" {
		t.Errorf("Unexpected item description %q", updated.Items[0].Description)
	}
}

func TestProfileRoundTripOverHTTP(t *testing.T) {
	ts, _ := newTestServer(t)
	token := register(t, ts)

	profile := models.UserProfile{
		BusinessName:  "Night Shift Films",
		BusinessEmail: "billing@nightshift.example",
	}
	putResp := doJSON(t, http.MethodPut, ts.URL+"/api/profile", token, profile)
	if putResp.StatusCode != http.StatusOK {
		t.Fatalf("Save profile returned status %d", putResp.StatusCode)
	}
	putResp.Body.Close()

	got := decode[models.UserProfile](t, doJSON(t, http.MethodGet, ts.URL+"/api/profile", token, nil))
	if got.BusinessName != profile.BusinessName || got.BusinessEmail != profile.BusinessEmail {
		t.Errorf("Profile round-trip mismatch: %+v", got)
	}
}

func TestChatUnavailableWithoutAI(t *testing.T) {
	ts, _ := newTestServer(t)
	token := register(t, ts)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/chat", token, map[string]any{
		"message": "Budget a two day shoot",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 without an AI client, got %d", resp.StatusCode)
	}
}

func TestWebhookRouteReachable(t *testing.T) {
	ts, gate := newTestServer(t)

	event := `{"type":"payment.updated","data":{"object":{"payment":{"id":"p1","status":"COMPLETED","amount_money":{"amount":2999,"currency":"USD"}}}}}`
	resp, err := http.Post(ts.URL+"/api/square/webhook", "application/json", bytes.NewReader([]byte(event)))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Webhook returned status %d", resp.StatusCode)
	}
	if !gate.Pro() {
		t.Error("Expected a completed payment to upgrade the account")
	}
}
