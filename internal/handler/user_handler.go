package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/accounts/internal/middleware"
	"github.com/hitoshi/accounts/internal/model"
)

// deleteConfirmation はユーザー削除成功時のレスポンスデータ。
const deleteConfirmation = "User was deleted successfully"

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	ListUsers(ctx context.Context) ([]model.PublicUser, error)
	GetUser(ctx context.Context, id string) (*model.PublicUser, error)
	UpdateUser(ctx context.Context, actingID, targetID string, patch model.UserPatch) (*model.PublicUser, error)
	DeleteUser(ctx context.Context, actingID, targetID string) error
}

// userListResponse はユーザー一覧のレスポンスデータ。
type userListResponse struct {
	Users []model.PublicUser `json:"users"`
}

// userResponse は単一ユーザーのレスポンスデータ。
type userResponse struct {
	User *model.PublicUser `json:"user"`
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// ListUsers は全ユーザーの公開情報を返す。
// GET /users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, userListResponse{Users: users})
}

// GetUser は指定IDのユーザーの公開情報を返す。
// GET /users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, userResponse{User: user})
}

// UpdateUser は自分自身のプロフィールを部分更新する。
// PUT /users/{id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError(""))
		return
	}

	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}
	if err := validateRequest(req); err != nil {
		handleServiceError(w, err)
		return
	}

	user, err := h.service.UpdateUser(r.Context(), principal.UserID, chi.URLParam(r, "id"), req.toPatch())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, userResponse{User: user})
}

// DeleteUser は自分自身のアカウントを削除する。
// DELETE /users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError(""))
		return
	}

	if err := h.service.DeleteUser(r.Context(), principal.UserID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, deleteConfirmation)
}
