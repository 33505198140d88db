package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// LabelSanitizerService はリマインダーのラベルなど、
// ユーザー入力のプレーンテキストからHTMLを除去するインターフェースを定義する。
type LabelSanitizerService interface {
	// Sanitize は全てのHTMLタグを除去し、前後の空白を取り除いた文字列を返す。
	// テキスト中の & や < はHTMLエンティティとしてエスケープされる。
	Sanitize(raw string) string
}

// labelSanitizer はLabelSanitizerServiceの実装。
// bluemondayのポリシーはスレッドセーフなので共有して使う。
type labelSanitizer struct {
	policy *bluemonday.Policy
}

// NewLabelSanitizer はタグを一切許可しないStrictPolicyでサニタイザを生成する。
func NewLabelSanitizer() *labelSanitizer {
	return &labelSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はラベルをサニタイズする。
func (s *labelSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}
