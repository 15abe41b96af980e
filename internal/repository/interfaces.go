// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/accounts/internal/model"
)

var (
	// ErrDuplicateEmail はemailのユニーク制約違反を表す。
	ErrDuplicateEmail = errors.New("email already exists")
	// ErrInvalidID はIDの形式が不正な場合のエラー。
	ErrInvalidID = errors.New("invalid user id")
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindAll は全ユーザーを作成日時の降順で取得する。
	FindAll(ctx context.Context) ([]*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Insert はユーザーを作成し、採番済みのレコードを返す。
	// emailが重複している場合はErrDuplicateEmailを返す。
	Insert(ctx context.Context, user *model.NewUser) (*model.User, error)

	// UpdateByID は指定されたフィールドのみを更新し、更新後のレコードを返す。
	// 見つからない場合はnilを返す。
	UpdateByID(ctx context.Context, id string, patch model.UserPatch) (*model.User, error)

	// DeleteByID は指定IDのユーザーを削除する。削除されなかった場合はfalseを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)
}
