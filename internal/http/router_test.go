package httpapi

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-retrobot/internal/config"
	"github.com/tbourn/go-retrobot/internal/domain"
	"github.com/tbourn/go-retrobot/internal/gateway"
	"github.com/tbourn/go-retrobot/internal/http/handlers"
	"github.com/tbourn/go-retrobot/internal/services"
)

type fixedEntries []domain.FeedbackEntry

func (f fixedEntries) All() []domain.FeedbackEntry { return append([]domain.FeedbackEntry(nil), f...) }

type nopSink struct{}

func (nopSink) Enqueue(string, gateway.Event) (bool, error) { return true, nil }

func testConfig() config.Config {
	return config.Config{
		APIBasePath: "/api/v1",
		RateRPS:     100,
		RateBurst:   10,
		OTEL:        config.OTELConfig{ServiceName: "test-svc"},
	}
}

func newTestRouter(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()

	entries := fixedEntries{{
		Category:   domain.CategoryKudo,
		Author:     "ada",
		Channel:    "C1",
		Command:    "kudo the on-call crew",
		RecordedAt: time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
		Ref:        domain.MessageRef{Channel: "C1", Timestamp: "1704186000.000100"},
	}}
	h := handlers.New(entries, services.NewSummaryEngine(time.UTC), nopSink{}, "secret")
	RegisterRoutes(r, h, cfg)
	return r
}

func do(r http.Handler, method, path string, hdr map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_Health_Metrics_Fallbacks(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w := do(r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected X-Request-ID header")
	}

	w = do(r, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}
	if !strings.Contains(w.Body.String(), "retrobot_http_requests_total") {
		t.Fatalf("metrics output missing http counter")
	}

	w = do(r, http.MethodGet, "/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}

	w = do(r, http.MethodPost, "/health", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_SwaggerDoc(t *testing.T) {
	cfg := testConfig()
	cfg.APIBasePath = "/api/v2"
	r := newTestRouter(t, cfg)

	w := do(r, http.MethodGet, "/swagger/doc.json", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /swagger/doc.json = %d", w.Code)
	}
	var doc struct {
		BasePath string                    `json:"basePath"`
		Paths    map[string]map[string]any `json:"paths"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode doc: %v", err)
	}
	if doc.BasePath != "/api/v2" {
		t.Fatalf("basePath = %q", doc.BasePath)
	}
	for _, p := range []string{"/channels/{channel}/entries", "/channels/{channel}/summary"} {
		if _, ok := doc.Paths[p]["get"]; !ok {
			t.Fatalf("doc missing GET %s", p)
		}
	}
}

func TestRegisterRoutes_SlackEventsRequiresSignature(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/slack/events", bytes.NewBufferString(`{"type":"url_verification","challenge":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unsigned event expected 401, got %d", w.Code)
	}
	// Slack endpoint is outside the API group.
	if w.Header().Get("Cache-Control") == "no-store" {
		t.Fatalf("security headers leaked onto /slack/events")
	}
}

func TestRegisterRoutes_ReportAPI(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w := do(r, http.MethodGet, "/api/v1/channels/C1/entries", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("entries = %d body=%s", w.Code, w.Body.String())
	}
	var list handlers.ListEntriesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Pagination.Total != 1 || len(list.Entries) != 1 {
		t.Fatalf("unexpected page: %+v", list)
	}
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("Cache-Control = %q, want no-store", got)
	}

	w = do(r, http.MethodGet, "/api/v1/channels/C1/summary?from=2024-01-01&to=2024-01-31", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("summary = %d body=%s", w.Code, w.Body.String())
	}
	var sum handlers.SummaryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(sum.Report, "2024-01-02 ada --> kudo the on-call crew -- Reactions: 0") {
		t.Fatalf("report missing entry:\n%s", sum.Report)
	}
}

func TestRegisterRoutes_Gzip(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w := do(r, http.MethodGet, "/api/v1/channels/C1/entries", map[string]string{"Accept-Encoding": "gzip"})
	if w.Code != http.StatusOK {
		t.Fatalf("entries = %d", w.Code)
	}
	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip encoding, headers=%v", w.Header())
	}
	zr, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	body, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Contains(body, []byte(`"channel":"C1"`)) {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestRegisterRoutes_RateLimitsAPIOnly(t *testing.T) {
	cfg := testConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	r := newTestRouter(t, cfg)

	if w := do(r, http.MethodGet, "/api/v1/channels/C1/entries", nil); w.Code != http.StatusOK {
		t.Fatalf("first request = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/v1/channels/C1/entries", nil); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request expected 429, got %d", w.Code)
	}
	for i := 0; i < 3; i++ {
		if w := do(r, http.MethodGet, "/health", nil); w.Code != http.StatusOK {
			t.Fatalf("/health should not be rate limited, got %d", w.Code)
		}
	}
}

func TestRegisterRoutes_CORSAllowAll(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w := do(r, http.MethodGet, "/api/v1/channels/C1/entries", nil)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}
}

func TestRegisterRoutes_CORSWithOrigins(t *testing.T) {
	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	r := newTestRouter(t, cfg)

	w := do(r, http.MethodGet, "/api/v1/channels/C1/entries", map[string]string{"Origin": "http://example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("entries = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}

	w = do(r, http.MethodOptions, "/api/v1/channels/C1/entries", map[string]string{
		"Origin":                        "http://example.com",
		"Access-Control-Request-Method": "GET",
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight expected 204, got %d", w.Code)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB"))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	groupWithPrefix(r, "/").GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	groupWithPrefix(r, "").GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	groupWithPrefix(r, "/api").GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		w := do(r, http.MethodGet, path, nil)
		if w.Code != http.StatusOK || w.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, w.Code, w.Body.String())
		}
	}
}
