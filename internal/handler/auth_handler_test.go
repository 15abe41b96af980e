package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/accounts/internal/auth"
	"github.com/hitoshi/accounts/internal/model"
)

// --- POST /auth/register テスト ---

func TestAuthHandler_Register_Success(t *testing.T) {
	var got auth.RegisterInput
	svc := &mockAuthService{
		registerFn: func(_ context.Context, in auth.RegisterInput) (string, error) {
			got = in
			return "signed-token", nil
		},
	}
	h := NewAuthHandler(svc)

	req := jsonRequest(http.MethodPost, "/auth/register",
		`{"firstName":"Kunle","lastName":"Hamilton","email":"k@x.com","password":"la@cremey","attributes":{"plan":"free"},"unknown":true}`)
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body=%s", w.Code, http.StatusOK, w.Body.String())
	}
	env := decodeTestEnvelope(t, w)
	if env.Error != nil {
		t.Errorf("error = %+v, want null", env.Error)
	}
	var token string
	if err := json.Unmarshal(env.Data, &token); err != nil || token != "signed-token" {
		t.Errorf("data = %s, want \"signed-token\"", env.Data)
	}
	if got.FirstName != "Kunle" || got.Email != "k@x.com" || got.Password != "la@cremey" {
		t.Errorf("input = %+v", got)
	}
	if got.Attributes["plan"] != "free" {
		t.Errorf("attributes = %v, want plan=free", got.Attributes)
	}
}

func TestAuthHandler_Register_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{
			name:      "パスワードが8文字未満",
			body:      `{"firstName":"Kunle","lastName":"Hamilton","email":"k@x.com","password":"short"}`,
			wantField: "password",
		},
		{
			name:      "メールアドレスの形式が不正",
			body:      `{"firstName":"Kunle","lastName":"Hamilton","email":"not-an-email","password":"la@cremey"}`,
			wantField: "email",
		},
		{
			name:      "firstNameが欠落",
			body:      `{"lastName":"Hamilton","email":"k@x.com","password":"la@cremey"}`,
			wantField: "firstName",
		},
		{
			name:      "lastNameが欠落",
			body:      `{"firstName":"Kunle","email":"k@x.com","password":"la@cremey"}`,
			wantField: "lastName",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &mockAuthService{
				registerFn: func(_ context.Context, _ auth.RegisterInput) (string, error) {
					called = true
					return "", nil
				},
			}
			h := NewAuthHandler(svc)

			w := httptest.NewRecorder()
			h.Register(w, jsonRequest(http.MethodPost, "/auth/register", tt.body))

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if called {
				t.Error("service must not be called on validation failure")
			}
			env := decodeTestEnvelope(t, w)
			if env.Error == nil || !strings.Contains(env.Error.Message, tt.wantField) {
				t.Errorf("error = %+v, want message mentioning %q", env.Error, tt.wantField)
			}
		})
	}
}

func TestAuthHandler_Register_MalformedJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := httptest.NewRecorder()
	h.Register(w, jsonRequest(http.MethodPost, "/auth/register", `{"firstName":`))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAuthHandler_Register_EmailTaken(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(_ context.Context, _ auth.RegisterInput) (string, error) {
			return "", model.NewEmailTakenError()
		},
	}
	h := NewAuthHandler(svc)

	w := httptest.NewRecorder()
	h.Register(w, jsonRequest(http.MethodPost, "/auth/register",
		`{"firstName":"Kunle","lastName":"Hamilton","email":"k@x.com","password":"la@cremey"}`))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	env := decodeTestEnvelope(t, w)
	if env.Error == nil || env.Error.Message != "Email taken" {
		t.Errorf("error = %+v, want 'Email taken'", env.Error)
	}
	if string(env.Data) != "null" {
		t.Errorf("data = %s, want null", env.Data)
	}
}

// --- POST /auth/login テスト ---

func TestAuthHandler_Login_Success(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(_ context.Context, email, password string) (string, error) {
			if email != "k@x.com" || password != "la@cremey" {
				t.Errorf("unexpected credentials %q/%q", email, password)
			}
			return "signed-token", nil
		},
	}
	h := NewAuthHandler(svc)

	w := httptest.NewRecorder()
	h.Login(w, jsonRequest(http.MethodPost, "/auth/login", `{"email":"k@x.com","password":"la@cremey"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	env := decodeTestEnvelope(t, w)
	if string(env.Data) != `"signed-token"` {
		t.Errorf("data = %s", env.Data)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(_ context.Context, _, _ string) (string, error) {
			return "", model.NewInvalidCredentialsError()
		},
	}
	h := NewAuthHandler(svc)

	w := httptest.NewRecorder()
	h.Login(w, jsonRequest(http.MethodPost, "/auth/login", `{"email":"k@x.com","password":"wrong-password"}`))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	env := decodeTestEnvelope(t, w)
	if env.Error == nil || env.Error.Message != "invalid credentials" {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestAuthHandler_Login_MissingPassword(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := httptest.NewRecorder()
	h.Login(w, jsonRequest(http.MethodPost, "/auth/login", `{"email":"k@x.com"}`))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAuthHandler_Login_InternalErrorIsHidden(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(_ context.Context, _, _ string) (string, error) {
			return "", errors.New("pq: connection refused to 10.0.0.5")
		},
	}
	h := NewAuthHandler(svc)

	w := httptest.NewRecorder()
	h.Login(w, jsonRequest(http.MethodPost, "/auth/login", `{"email":"k@x.com","password":"la@cremey"}`))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	env := decodeTestEnvelope(t, w)
	if env.Error == nil || env.Error.Message != "internal server error" {
		t.Errorf("error = %+v, want fixed message", env.Error)
	}
	if strings.Contains(w.Body.String(), "10.0.0.5") {
		t.Error("internal details must not leak")
	}
}
