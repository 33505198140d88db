// Package model はドメインモデルを定義する。
package model

import (
	"time"

	"github.com/hitoshi/nthweekday/internal/ordinal"
)

// Reminder は「第N何曜日」に毎月繰り返すリマインダーを表す。
// 例: 第2火曜日「燃えるゴミ」。
type Reminder struct {
	ID             string
	Label          string                 // サニタイズ済み
	Ordinal        ordinal.WeekdayOrdinal // 暦週と曜日
	WebhookURL     string                 // 空の場合は通知せずログのみ
	Enabled        bool
	LastNotifiedOn *time.Time // 最後に通知した日付（日単位）
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NotifiedOn は指定日にすでに通知済みかを返す。日付はdayのロケーションで比較する。
func (r *Reminder) NotifiedOn(day time.Time) bool {
	if r.LastNotifiedOn == nil {
		return false
	}
	y1, m1, d1 := r.LastNotifiedOn.In(day.Location()).Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
