// Package security はアプリケーションのセキュリティ機能を提供する。
//
// NameSanitizer は氏名などの自由入力テキストからHTMLマークアップを除去する。
// bluemondayのStrictPolicyで全タグを落とし、プレーンテキストとして保存する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキスト入力のサニタイズ機能のインターフェースを定義する。
type TextSanitizer interface {
	// Sanitize はHTMLタグを除去し、前後の空白を取り除いたテキストを返す。
	// script, styleなどの要素は中身ごと除去される。
	Sanitize(raw string) string
}

// nameSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフなので、単一インスタンスを共有する。
type nameSanitizer struct {
	policy *bluemonday.Policy
}

// NewNameSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewNameSanitizer() TextSanitizer {
	return &nameSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はHTMLタグを除去したプレーンテキストを返す。
// bluemondayはテキストをHTMLエスケープして返すため、保存前にアンエスケープする。
func (s *nameSanitizer) Sanitize(raw string) string {
	cleaned := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}
