// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/nthweekday/internal/model"
	"github.com/hitoshi/nthweekday/internal/ordinal"
)

// ReminderRepository はリマインダーの永続化インターフェース。
type ReminderRepository interface {
	// Create はリマインダーを作成する。
	Create(ctx context.Context, reminder *model.Reminder) error

	// FindByID は指定IDのリマインダーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Reminder, error)

	// List は全リマインダーを返す。
	List(ctx context.Context) ([]*model.Reminder, error)

	// ListByOrdinal は指定した「第N何曜日」のリマインダーを返す。
	// enabledOnlyがtrueの場合は無効化されたものを除外する。
	ListByOrdinal(ctx context.Context, o ordinal.WeekdayOrdinal, enabledOnly bool) ([]*model.Reminder, error)

	// MarkNotified は最終通知日を記録する。同日の二重通知を防ぐために使う。
	MarkNotified(ctx context.Context, id string, on time.Time) error

	// Delete は指定IDのリマインダーを削除する。存在しなかった場合はfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)
}
