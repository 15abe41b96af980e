// Package credential はパスワードのハッシュ化・検証と、署名付きトークンの発行・検証を提供する。
package credential

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrMissingSecret は署名シークレットが未設定の場合のエラー。起動時にのみ発生する。
	ErrMissingSecret = errors.New("signing secret is not configured")
	// ErrInvalidToken は署名不正・形式不正・期限切れのトークンを表す。
	ErrInvalidToken = errors.New("invalid token")
	// ErrDecode はトークンの構造が壊れていてクレームを取り出せない場合のエラー。
	ErrDecode = errors.New("unable to decode token")
)

// Claims はトークンに格納するユーザー情報。
type Claims struct {
	UserID string
	Email  string
}

// tokenClaims はJWTのペイロード。id、emailに加えて標準クレームを持つ。
type tokenClaims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Codec はパスワードとトークンの符号化を担う。
// 生成後はイミュータブルで、複数のgoroutineから同時に使用できる。
type Codec struct {
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

// NewCodec はCodecを生成する。
// secretが空の場合は設定不備としてErrMissingSecretを返す。
// costはbcryptの許容範囲に丸める。
func NewCodec(secret []byte, ttl time.Duration, cost int) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Codec{
		secret: secret,
		ttl:    ttl,
		cost:   cost,
		now:    time.Now,
	}, nil
}

// HashPassword は平文パスワードをソルト付きでハッシュ化する。
// 呼び出しごとに新しいソルトを使うため、同じ入力でも結果は毎回異なる。
func (c *Codec) HashPassword(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), c.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(h), nil
}

// VerifyPassword は平文がハッシュと一致するかを返す。
// ハッシュの形式が壊れている場合もfalseを返す。
func (c *Codec) VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// IssueToken はクレームからHS256署名のトークンを発行する。
func (c *Codec) IssueToken(claims Claims) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		UserID: claims.UserID,
		Email:  claims.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   claims.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken は署名と有効期限を検証し、クレームを返す。
// 発行時と同じHS256以外のアルゴリズムで署名されたトークンは受け付けない。
// 検証に失敗した場合はErrInvalidTokenをラップしたエラーを返す。
func (c *Codec) VerifyToken(tokenString string) (Claims, error) {
	tc := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, tc, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	if tc.UserID == "" || tc.Email == "" {
		return Claims{}, fmt.Errorf("%w: missing subject claims", ErrInvalidToken)
	}

	return Claims{UserID: tc.UserID, Email: tc.Email}, nil
}

// DecodeToken は署名を検証せずにクレームを取り出す。
// 検証済みのトークン、またはオフラインでの調査用途に限って使用する。
func (c *Codec) DecodeToken(tokenString string) (Claims, error) {
	return Decode(tokenString)
}

// Decode は署名を検証せずにトークンのクレームを取り出す。
// シークレットを持たない呼び出し元（inspect-tokenサブコマンド等）向け。
func Decode(tokenString string) (Claims, error) {
	tc := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, tc); err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return Claims{UserID: tc.UserID, Email: tc.Email}, nil
}
