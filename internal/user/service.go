// Package user はユーザープロフィールの参照・更新・削除のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/accounts/internal/model"
	"github.com/hitoshi/accounts/internal/repository"
	"github.com/hitoshi/accounts/internal/security"
)

// PasswordHasher はパスワードのハッシュ化インターフェース。
type PasswordHasher interface {
	HashPassword(plain string) (string, error)
}

// Service はユーザー管理のサービス層。
// 更新と削除は、操作者と対象ユーザーが一致する場合にのみ許可する。
type Service struct {
	userRepo  repository.UserRepository
	hasher    PasswordHasher
	sanitizer security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	sanitizer security.TextSanitizer,
) *Service {
	return &Service{
		userRepo:  userRepo,
		hasher:    hasher,
		sanitizer: sanitizer,
	}
}

// ListUsers は全ユーザーの公開情報を作成日時の降順で返す。
// ユーザーが存在しない場合は空のスライスを返す。
func (s *Service) ListUsers(ctx context.Context) ([]model.PublicUser, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}

	result := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		result = append(result, u.ToPublic())
	}
	return result, nil
}

// GetUser は指定IDのユーザーの公開情報を返す。
func (s *Service) GetUser(ctx context.Context, id string) (*model.PublicUser, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrInvalidID) {
		return nil, model.NewUnprocessableError("invalid user id")
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewNotFoundError("user not found")
	}

	public := user.ToPublic()
	return &public, nil
}

// UpdateUser は操作者自身のプロフィールを部分更新する。
// 所有者チェックを最初に行い、他人のプロフィールに対しては内容に関わらずForbiddenを返す。
// 空文字列のフィールドは未指定として扱う。
func (s *Service) UpdateUser(ctx context.Context, actingID, targetID string, patch model.UserPatch) (*model.PublicUser, error) {
	if actingID != targetID {
		return nil, model.NewForbiddenError("you can only update your own profile")
	}
	if patch.IsEmpty() {
		return nil, model.NewBadRequestError("empty payload")
	}

	var update model.UserPatch
	var ok bool
	if update.FirstName, ok = s.sanitizeName(patch.FirstName); !ok {
		return nil, model.NewBadRequestError("firstName must not be empty")
	}
	if update.LastName, ok = s.sanitizeName(patch.LastName); !ok {
		return nil, model.NewBadRequestError("lastName must not be empty")
	}
	if !blank(patch.Password) {
		hash, err := s.hasher.HashPassword(*patch.Password)
		if err != nil {
			return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
		}
		update.Password = &hash
	}

	user, err := s.userRepo.UpdateByID(ctx, targetID, update)
	if errors.Is(err, repository.ErrInvalidID) {
		return nil, model.NewUnprocessableError("invalid user id")
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの更新に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewNotFoundError("user not found")
	}

	slog.Info("user updated", slog.String("user_id", user.ID))
	public := user.ToPublic()
	return &public, nil
}

// DeleteUser は操作者自身のアカウントを削除する。
// 削除対象が存在しなかった場合はBadRequest("deletion failed")を返す。
func (s *Service) DeleteUser(ctx context.Context, actingID, targetID string) error {
	if actingID != targetID {
		return model.NewForbiddenError("you can only delete your own account")
	}

	deleted, err := s.userRepo.DeleteByID(ctx, targetID)
	if errors.Is(err, repository.ErrInvalidID) {
		return model.NewUnprocessableError("invalid user id")
	}
	if err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewBadRequestError("deletion failed")
	}

	slog.Info("user deleted", slog.String("user_id", targetID))
	return nil
}

// sanitizeName は氏名をサニタイズする。未指定の場合はnil（変更なし）を返す。
// サニタイズ後に空になる場合はokがfalseになる。
func (s *Service) sanitizeName(name *string) (*string, bool) {
	if blank(name) {
		return nil, true
	}
	cleaned := s.sanitizer.Sanitize(*name)
	if cleaned == "" {
		return nil, false
	}
	return &cleaned, true
}

func blank(s *string) bool {
	return s == nil || *s == ""
}
