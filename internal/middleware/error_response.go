package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/accounts/internal/model"
)

// Envelope はすべてのJSONレスポンスの統一フォーマット。
// 成功時はErrorがnull、失敗時はDataがnullになる。
type Envelope struct {
	StatusCode int        `json:"statusCode"`
	Error      *ErrorBody `json:"error"`
	Data       any        `json:"data"`
}

// ErrorBody はエンベロープ内のエラー情報。
type ErrorBody struct {
	Message string `json:"message"`
}

// WriteJSON は成功レスポンスをエンベロープ形式で書き込む。
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	writeEnvelope(w, Envelope{StatusCode: statusCode, Data: data})
}

// WriteErrorResponse はエラーレスポンスをエンベロープ形式で書き込む。
// すべてのAPIエンドポイントで一貫したエラーレスポンスを提供する。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeEnvelope(w, Envelope{
		StatusCode: statusCode,
		Error:      &ErrorBody{Message: apiErr.Message},
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには固定のメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}

func writeEnvelope(w http.ResponseWriter, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.StatusCode)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}
