// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError はクライアントに返すエラーを表す。
// Code でエラー種別を識別し、HTTPステータスへの変換はハンドラー層で行う。
type APIError struct {
	Code    string // エラーコード
	Message string // クライアント向けメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUnauthenticated    = "UNAUTHENTICATED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnprocessable      = "UNPROCESSABLE"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewEmailTakenError はメールアドレス使用済みエラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{Code: ErrCodeEmailTaken, Message: "Email taken"}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
// メールアドレス未登録とパスワード不一致のどちらでも同じエラーを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{Code: ErrCodeInvalidCredentials, Message: "invalid credentials"}
}

// NewUnauthenticatedError は未認証エラーを生成する。
func NewUnauthenticatedError(message string) *APIError {
	if message == "" {
		message = "Unauthenticated"
	}
	return &APIError{Code: ErrCodeUnauthenticated, Message: message}
}

// NewForbiddenError は権限エラーを生成する。
func NewForbiddenError(message string) *APIError {
	if message == "" {
		message = "Forbidden"
	}
	return &APIError{Code: ErrCodeForbidden, Message: message}
}

// NewNotFoundError はリソース未検出エラーを生成する。
func NewNotFoundError(message string) *APIError {
	if message == "" {
		message = "Not Found"
	}
	return &APIError{Code: ErrCodeNotFound, Message: message}
}

// NewBadRequestError は不正リクエストエラーを生成する。
func NewBadRequestError(message string) *APIError {
	if message == "" {
		message = "Bad Request"
	}
	return &APIError{Code: ErrCodeBadRequest, Message: message}
}

// NewUnprocessableError は処理不能エラーを生成する。
func NewUnprocessableError(message string) *APIError {
	if message == "" {
		message = "unprocessable entity"
	}
	return &APIError{Code: ErrCodeUnprocessable, Message: message}
}

// NewInternalError は内部エラーを生成する。詳細はログにのみ記録する。
func NewInternalError() *APIError {
	return &APIError{Code: ErrCodeInternal, Message: "internal server error"}
}
