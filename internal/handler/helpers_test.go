package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/accounts/internal/auth"
	"github.com/hitoshi/accounts/internal/middleware"
	"github.com/hitoshi/accounts/internal/model"
)

// --- モック定義 ---

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	registerFn func(ctx context.Context, in auth.RegisterInput) (string, error)
	loginFn    func(ctx context.Context, email, password string) (string, error)
}

func (m *mockAuthService) Register(ctx context.Context, in auth.RegisterInput) (string, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return "token", nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (string, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return "token", nil
}

// mockUserService はUserServiceInterfaceのモック実装。
type mockUserService struct {
	listUsersFn  func(ctx context.Context) ([]model.PublicUser, error)
	getUserFn    func(ctx context.Context, id string) (*model.PublicUser, error)
	updateUserFn func(ctx context.Context, actingID, targetID string, patch model.UserPatch) (*model.PublicUser, error)
	deleteUserFn func(ctx context.Context, actingID, targetID string) error
}

func (m *mockUserService) ListUsers(ctx context.Context) ([]model.PublicUser, error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(ctx)
	}
	return []model.PublicUser{}, nil
}

func (m *mockUserService) GetUser(ctx context.Context, id string) (*model.PublicUser, error) {
	if m.getUserFn != nil {
		return m.getUserFn(ctx, id)
	}
	return nil, model.NewNotFoundError("")
}

func (m *mockUserService) UpdateUser(ctx context.Context, actingID, targetID string, patch model.UserPatch) (*model.PublicUser, error) {
	if m.updateUserFn != nil {
		return m.updateUserFn(ctx, actingID, targetID, patch)
	}
	return nil, nil
}

func (m *mockUserService) DeleteUser(ctx context.Context, actingID, targetID string) error {
	if m.deleteUserFn != nil {
		return m.deleteUserFn(ctx, actingID, targetID)
	}
	return nil
}

// --- compile-time interface checks ---
var _ AuthServiceInterface = (*auth.Service)(nil)
var _ AuthServiceInterface = (*mockAuthService)(nil)
var _ UserServiceInterface = (*mockUserService)(nil)

// --- ヘルパー ---

// testEnvelope はテストでレスポンスエンベロープをデコードするための型。
type testEnvelope struct {
	StatusCode int `json:"statusCode"`
	Error      *struct {
		Message string `json:"message"`
	} `json:"error"`
	Data json.RawMessage `json:"data"`
}

func decodeTestEnvelope(t *testing.T, w *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode envelope: %v\nraw: %s", err, w.Body.String())
	}
	if env.StatusCode != w.Code {
		t.Errorf("envelope statusCode = %d, HTTP status = %d", env.StatusCode, w.Code)
	}
	return env
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// withPrincipal はリクエストに認証主体とchiのURLパラメータを注入する。
func withPrincipal(req *http.Request, userID string) *http.Request {
	ctx := middleware.ContextWithPrincipal(req.Context(), model.Principal{UserID: userID, Email: userID + "@x.com"})
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
