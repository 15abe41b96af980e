package security

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

// ErrInvalidEmail はメールアドレスとして正規化できない入力を表す。
var ErrInvalidEmail = errors.New("invalid email address")

// NormalizeEmail はメールアドレスを検索・保存用の正規形に変換する。
// ローカル部はそのまま保持し、ドメイン部は小文字化したうえでIDNAのASCII形式（punycode）に変換する。
func NormalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)

	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", ErrInvalidEmail
	}
	local, domain := email[:at], email[at+1:]

	ascii, err := idna.Lookup.ToASCII(domain)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidEmail, err)
	}

	return local + "@" + ascii, nil
}
