// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"strings"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, reminder, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeInvalidFormat      = "INVALID_FORMAT"
	ErrCodeInvalidDate        = "INVALID_DATE"
	ErrCodeInvalidWeekOrdinal = "INVALID_WEEK_ORDINAL"
	ErrCodeInvalidWeekday     = "INVALID_WEEKDAY"
	ErrCodeInvalidLabel       = "INVALID_LABEL"
	ErrCodeInvalidWebhookURL  = "INVALID_WEBHOOK_URL"
	ErrCodeWebhookBlocked     = "WEBHOOK_BLOCKED"
	ErrCodeReminderNotFound   = "REMINDER_NOT_FOUND"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewInvalidFormatError はサポート外の書式指定子エラーを生成する。
func NewInvalidFormatError(selector string, supported []string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFormat,
		Message:  fmt.Sprintf("サポートされていない書式です: %s", selector),
		Category: "validation",
		Action:   fmt.Sprintf("書式には %s のいずれかを指定してください。", strings.Join(supported, "、")),
	}
}

// NewInvalidDateError は日付のパース失敗エラーを生成する。
func NewInvalidDateError(date string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDate,
		Message:  fmt.Sprintf("無効な日付です: %s", date),
		Category: "validation",
		Action:   "日付は YYYY-MM-DD 形式で指定してください。",
	}
}

// NewInvalidWeekOrdinalError は暦週が範囲外の場合のエラーを生成する。
func NewInvalidWeekOrdinalError(week int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidWeekOrdinal,
		Message:  fmt.Sprintf("無効な暦週です: %d", week),
		Category: "validation",
		Action:   "暦週は1から5の範囲で指定してください。",
	}
}

// NewInvalidWeekdayError は曜日が範囲外の場合のエラーを生成する。
func NewInvalidWeekdayError(weekday int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidWeekday,
		Message:  fmt.Sprintf("無効な曜日です: %d", weekday),
		Category: "validation",
		Action:   "曜日は0（日曜日）から6（土曜日）の範囲で指定してください。",
	}
}

// NewInvalidLabelError はラベルが不正な場合のエラーを生成する。
func NewInvalidLabelError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidLabel,
		Message:  fmt.Sprintf("無効なラベルです: %s", reason),
		Category: "validation",
		Action:   "1文字以上100文字以内のラベルを入力してください。",
	}
}

// NewInvalidWebhookURLError はWebhook URLが不正な場合のエラーを生成する。
func NewInvalidWebhookURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidWebhookURL,
		Message:  fmt.Sprintf("無効なWebhook URLです: %s", reason),
		Category: "validation",
		Action:   "正しいURL形式（http:// または https:// で始まるURL）を入力してください。",
	}
}

// NewWebhookBlockedError はSSRF防止によりWebhook URLが拒否された場合のエラーを生成する。
func NewWebhookBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeWebhookBlocked,
		Message:  "セキュリティポリシーにより、指定されたWebhook URLは使用できません。",
		Category: "validation",
		Action:   "公開されているURLを指定してください。ローカルネットワークやプライベートIPは許可されていません。",
	}
}

// NewReminderNotFoundError はリマインダー未検出エラーを生成する。
func NewReminderNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeReminderNotFound,
		Message:  fmt.Sprintf("指定されたリマインダーが見つかりません: %s", id),
		Category: "reminder",
		Action:   "リマインダーIDを確認してください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログにのみ記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
