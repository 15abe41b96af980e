// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/accounts/internal/credential"
	"github.com/hitoshi/accounts/internal/metrics"
	"github.com/hitoshi/accounts/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// principalContextKey はリクエストコンテキストに認証主体を格納するためのキー。
	principalContextKey = contextKey("principal")
	// principalHolderContextKey はロギングミドルウェアと認証主体を共有するためのキー。
	principalHolderContextKey = contextKey("principal_holder")
)

// 拒否理由のメトリクスラベル
const (
	rejectMissingHeader   = "missing_header"
	rejectMalformedHeader = "malformed_header"
	rejectInvalidToken    = "invalid_token"
	rejectUnknownAccount  = "unknown_account"
	rejectSubjectMismatch = "subject_mismatch"
	rejectLookupError     = "lookup_error"
)

// TokenVerifier はトークンの検証インターフェース。credential.Codecが実装する。
type TokenVerifier interface {
	VerifyToken(token string) (credential.Claims, error)
}

// UserFinder はメールアドレスによるユーザー検索インターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証し、
// 認証主体をリクエストコンテキストに注入するミドルウェアを返す。
// トークンが欠落・不正・期限切れの場合は401、トークンのユーザーが既に存在しない場合は403を返す。
// 同じメールアドレスで別のアカウントが作り直されている場合も、旧アカウントのトークンは403とする。
// 結果はキャッシュせず、リクエストごとに検証とユーザー解決を行う。
func NewAuthMiddleware(verifier TokenVerifier, users UserFinder, collector metrics.MetricsCollector) func(next http.Handler) http.Handler {
	if collector == nil {
		collector = metrics.Nop()
	}
	reject := func(w http.ResponseWriter, r *http.Request, reason string, status int, apiErr *model.APIError) {
		collector.RecordGuardRejection(reason)
		slog.Warn("request rejected by auth guard",
			slog.String("reason", reason),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
		WriteErrorResponse(w, status, apiErr)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Authorizationヘッダーの存在確認
			header := r.Header.Get("Authorization")
			if header == "" {
				reject(w, r, rejectMissingHeader, http.StatusUnauthorized,
					model.NewUnauthenticatedError("missing authorization header"))
				return
			}

			// 2. "Bearer <token>" の形式確認
			parts := strings.Split(header, " ")
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				reject(w, r, rejectMalformedHeader, http.StatusUnauthorized,
					model.NewUnauthenticatedError("malformed authorization header"))
				return
			}

			// 3. 署名と有効期限の検証
			claims, err := verifier.VerifyToken(parts[1])
			if err != nil {
				slog.Debug("token verification failed", slog.String("error", err.Error()))
				reject(w, r, rejectInvalidToken, http.StatusUnauthorized,
					model.NewUnauthenticatedError("invalid or expired token"))
				return
			}

			// 4. トークンのユーザーが現在も存在するか確認
			user, err := users.FindByEmail(r.Context(), claims.Email)
			if err != nil {
				slog.Error("failed to resolve token subject",
					slog.String("error", err.Error()),
				)
				collector.RecordGuardRejection(rejectLookupError)
				WriteInternalServerError(w)
				return
			}
			if user == nil {
				reject(w, r, rejectUnknownAccount, http.StatusForbidden,
					model.NewForbiddenError("account no longer exists"))
				return
			}

			if user.ID != claims.UserID {
				reject(w, r, rejectSubjectMismatch, http.StatusForbidden,
					model.NewForbiddenError("account no longer exists"))
				return
			}

			// 5. トークンのクレームを認証主体としてコンテキストに注入
			principal := model.Principal{UserID: claims.UserID, Email: claims.Email}
			if holder := principalHolderFrom(r.Context()); holder != nil {
				holder.principal = &principal
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

// PrincipalFromContext はリクエストコンテキストから認証主体を取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func PrincipalFromContext(ctx context.Context) (model.Principal, error) {
	principal, ok := ctx.Value(principalContextKey).(model.Principal)
	if !ok || principal.UserID == "" {
		return model.Principal{}, fmt.Errorf("principal not found in context")
	}
	return principal, nil
}

// UserIDFromContext はリクエストコンテキストから認証済みユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	principal, err := PrincipalFromContext(ctx)
	if err != nil {
		return "", err
	}
	return principal.UserID, nil
}

// ContextWithPrincipal はコンテキストに認証主体を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithPrincipal(ctx context.Context, principal model.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// principalHolder は外側のミドルウェアが内側で解決された認証主体を参照するための入れ物。
type principalHolder struct {
	principal *model.Principal
}

func withPrincipalHolder(ctx context.Context) (context.Context, *principalHolder) {
	holder := &principalHolder{}
	return context.WithValue(ctx, principalHolderContextKey, holder), holder
}

func principalHolderFrom(ctx context.Context) *principalHolder {
	holder, _ := ctx.Value(principalHolderContextKey).(*principalHolder)
	return holder
}
