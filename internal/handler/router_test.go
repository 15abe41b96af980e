package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/accounts/internal/auth"
	"github.com/hitoshi/accounts/internal/credential"
	"github.com/hitoshi/accounts/internal/model"
)

type stubVerifier struct{}

func (stubVerifier) VerifyToken(token string) (credential.Claims, error) {
	if token == "valid" {
		return credential.Claims{UserID: "u1", Email: "k@x.com"}, nil
	}
	return credential.Claims{}, credential.ErrInvalidToken
}

type stubFinder struct{}

func (stubFinder) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return &model.User{ID: "u1", Email: email}, nil
}

func createTestRouter() http.Handler {
	return NewRouter(&RouterDeps{
		TokenVerifier:     stubVerifier{},
		UserFinder:        stubFinder{},
		CORSAllowedOrigin: "*",
		HealthChecker:     &mockHealthChecker{},
		AuthService:       &mockAuthService{},
		UserService: &mockUserService{
			getUserFn: func(_ context.Context, id string) (*model.PublicUser, error) {
				return &model.PublicUser{ID: id}, nil
			},
		},
	})
}

// TestNewRouter_Routes は各エンドポイントが正しく登録されていることを検証する。
func TestNewRouter_Routes(t *testing.T) {
	router := createTestRouter()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		token  string
		want   int
	}{
		{"登録", http.MethodPost, "/auth/register", `{"firstName":"K","lastName":"H","email":"k@x.com","password":"la@cremey"}`, "", http.StatusOK},
		{"ログイン", http.MethodPost, "/auth/login", `{"email":"k@x.com","password":"la@cremey"}`, "", http.StatusOK},
		{"一覧は認証必須", http.MethodGet, "/users", "", "", http.StatusUnauthorized},
		{"一覧", http.MethodGet, "/users", "", "valid", http.StatusOK},
		{"取得は認証必須", http.MethodGet, "/users/u1", "", "", http.StatusUnauthorized},
		{"取得", http.MethodGet, "/users/u1", "", "valid", http.StatusOK},
		{"更新", http.MethodPut, "/users/u1", `{"firstName":"X"}`, "valid", http.StatusOK},
		{"削除", http.MethodDelete, "/users/u1", "", "valid", http.StatusOK},
		{"ヘルスチェック", http.MethodGet, "/health", "", "", http.StatusOK},
		{"未定義のパス", http.MethodGet, "/nope", "", "", http.StatusNotFound},
		{"未定義のメソッド", http.MethodPatch, "/auth/login", "", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := jsonRequest(tt.method, tt.path, tt.body)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("%s %s status = %d, want %d; body=%s", tt.method, tt.path, w.Code, tt.want, w.Body.String())
			}
		})
	}
}

// TestNewRouter_PreflightBypassesGuard はCORSプリフライトが認証なしで204になることを検証する。
func TestNewRouter_PreflightBypassesGuard(t *testing.T) {
	router := createTestRouter()

	req := httptest.NewRequest(http.MethodOptions, "/users/u1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); got != "Authorization, Content-Type" {
		t.Errorf("Access-Control-Allow-Headers = %q", got)
	}
}

// TestNewRouter_SecurityHeaders はセキュリティヘッダーが全レスポンスに付与されることを検証する。
func TestNewRouter_SecurityHeaders(t *testing.T) {
	router := createTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}

type recordedRequest struct {
	method string
	status int
}

type recordingCollector struct {
	requests []recordedRequest
}

func (c *recordingCollector) RecordHTTPRequest(method string, statusCode int, _ time.Duration) {
	c.requests = append(c.requests, recordedRequest{method: method, status: statusCode})
}
func (c *recordingCollector) RecordAuthAttempt(string, string) {}
func (c *recordingCollector) RecordGuardRejection(string)      {}

// TestNewRouter_PanicIsCountedAndLogged はハンドラーのパニックから復帰した500が
// メトリクスとリクエストログの両方に記録されることを検証する。
func TestNewRouter_PanicIsCountedAndLogged(t *testing.T) {
	collector := &recordingCollector{}
	var buf bytes.Buffer

	router := NewRouter(&RouterDeps{
		TokenVerifier: stubVerifier{},
		UserFinder:    stubFinder{},
		Logger:        slog.New(slog.NewJSONHandler(&buf, nil)),
		Metrics:       collector,
		AuthService: &mockAuthService{
			registerFn: func(context.Context, auth.RegisterInput) (string, error) {
				panic("boom")
			},
		},
		UserService: &mockUserService{},
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(http.MethodPost, "/auth/register",
		`{"firstName":"K","lastName":"H","email":"k@x.com","password":"la@cremey"}`))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	env := decodeTestEnvelope(t, w)
	if env.Error == nil || env.Error.Message != "internal server error" {
		t.Errorf("unexpected envelope: %+v", env)
	}

	if len(collector.requests) != 1 || collector.requests[0] != (recordedRequest{http.MethodPost, http.StatusInternalServerError}) {
		t.Errorf("recorded requests = %+v, want one POST 500", collector.requests)
	}

	var logged bool
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var entry map[string]any
		if err := dec.Decode(&entry); err != nil {
			t.Fatalf("failed to parse log: %v", err)
		}
		if entry["msg"] == "http_request" && entry["status"] == float64(http.StatusInternalServerError) {
			logged = true
		}
	}
	if !logged {
		t.Errorf("expected http_request log with status 500, got %s", buf.String())
	}
}
