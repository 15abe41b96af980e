// Package model はドメインモデルを定義する。
package model

import "time"

// User はアカウントのユーザーレコードを表す。
// PasswordHash はCredential Codecが生成したハッシュのみを保持し、平文は保持しない。
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Attributes   map[string]any
	Meta         map[string]any
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser はユーザー作成時の入力を表す。IDはディレクトリ側で採番する。
type NewUser struct {
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Attributes   map[string]any
	Meta         map[string]any
}

// UserPatch はユーザーの部分更新を表す。nilのフィールドは変更しない。
// サービス層を通過した後の Password はハッシュ済みの値を保持する。
type UserPatch struct {
	FirstName *string
	LastName  *string
	Password  *string
}

// IsEmpty はすべてのフィールドが未指定または空文字列の場合にtrueを返す。
func (p UserPatch) IsEmpty() bool {
	return blank(p.FirstName) && blank(p.LastName) && blank(p.Password)
}

func blank(s *string) bool {
	return s == nil || *s == ""
}

// PublicUser はクライアントに返してよいユーザー情報の部分集合。
type PublicUser struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// ToPublic はUserを公開用の表現に変換する。
func (u *User) ToPublic() PublicUser {
	return PublicUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// Principal は検証済みトークンから解決された、1リクエスト分の認証主体。
type Principal struct {
	UserID string
	Email  string
}
