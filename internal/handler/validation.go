package handler

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/hitoshi/accounts/internal/model"
)

const (
	minPasswordLength = 8
	// bcryptは72バイトを超える入力を扱えない
	maxPasswordLength = 72
	maxNameLength     = 255
	maxEmailLength    = 320
)

// registerRequest は POST /auth/register のリクエストボディ。
type registerRequest struct {
	FirstName  string         `json:"firstName"`
	LastName   string         `json:"lastName"`
	Email      string         `json:"email"`
	Password   string         `json:"password"`
	Attributes map[string]any `json:"attributes"`
	Meta       map[string]any `json:"meta"`
}

// Validate はリクエストボディを検証する。
func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, maxNameLength)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, maxNameLength)),
		validation.Field(&r.Email, validation.Required, validation.Length(1, maxEmailLength), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(minPasswordLength, maxPasswordLength)),
	)
}

// loginRequest は POST /auth/login のリクエストボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate はリクエストボディを検証する。
func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// updateUserRequest は PUT /users/{id} のリクエストボディ。
// 省略されたフィールドは変更しない。
type updateUserRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Password  *string `json:"password"`
}

// Validate はリクエストボディを検証する。空文字列は未指定として扱う。
func (r updateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Length(0, maxNameLength)),
		validation.Field(&r.LastName, validation.Length(0, maxNameLength)),
		validation.Field(&r.Password, validation.Length(minPasswordLength, maxPasswordLength)),
	)
}

func (r updateUserRequest) toPatch() model.UserPatch {
	return model.UserPatch{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Password:  r.Password,
	}
}

// validateRequest は検証エラーをBadRequestに変換する。
func validateRequest(v validation.Validatable) error {
	if err := v.Validate(); err != nil {
		return model.NewBadRequestError(err.Error())
	}
	return nil
}
