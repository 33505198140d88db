package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/nthweekday/internal/model"
	"github.com/hitoshi/nthweekday/internal/ordinal"
)

// PostgresReminderRepo はPostgreSQLを使用したリマインダーリポジトリ。
type PostgresReminderRepo struct {
	db *sql.DB
}

// NewPostgresReminderRepo はPostgresReminderRepoを生成する。
func NewPostgresReminderRepo(db *sql.DB) *PostgresReminderRepo {
	return &PostgresReminderRepo{db: db}
}

const reminderColumns = `id, label, week_ordinal, weekday, webhook_url, enabled,
	        last_notified_on, created_at, updated_at`

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminder(s rowScanner) (*model.Reminder, error) {
	r := &model.Reminder{}
	var f ordinal.Fields
	var lastNotifiedOn sql.NullTime

	if err := s.Scan(
		&r.ID, &r.Label, &f.WeekOrdinal, &f.Weekday, &r.WebhookURL, &r.Enabled,
		&lastNotifiedOn, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}

	r.Ordinal = ordinal.FromFields(f)
	if lastNotifiedOn.Valid {
		t := lastNotifiedOn.Time
		r.LastNotifiedOn = &t
	}
	return r, nil
}

// Create はリマインダーを作成する。
func (r *PostgresReminderRepo) Create(ctx context.Context, reminder *model.Reminder) error {
	f := reminder.Ordinal.Fields()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reminders (id, label, week_ordinal, weekday, webhook_url, enabled,
		                        last_notified_on, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		reminder.ID, reminder.Label, f.WeekOrdinal, f.Weekday, reminder.WebhookURL,
		reminder.Enabled, nullTime(reminder.LastNotifiedOn),
		reminder.CreatedAt, reminder.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("リマインダーの作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDのリマインダーを取得する。見つからない場合はnilを返す。
func (r *PostgresReminderRepo) FindByID(ctx context.Context, id string) (*model.Reminder, error) {
	reminder, err := scanReminder(r.db.QueryRowContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("リマインダーの取得に失敗しました: %w", err)
	}
	return reminder, nil
}

// List は全リマインダーを暦週・曜日・ラベル順で返す。
func (r *PostgresReminderRepo) List(ctx context.Context) ([]*model.Reminder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 ORDER BY week_ordinal, weekday, label`,
	)
	if err != nil {
		return nil, fmt.Errorf("リマインダー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectReminders(rows)
}

// ListByOrdinal は指定した「第N何曜日」のリマインダーを返す。
// enabledOnlyがtrueの場合は有効なものだけを返す。
func (r *PostgresReminderRepo) ListByOrdinal(ctx context.Context, o ordinal.WeekdayOrdinal, enabledOnly bool) ([]*model.Reminder, error) {
	f := o.Fields()
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE week_ordinal = $1 AND weekday = $2 AND ($3 = FALSE OR enabled = TRUE)
		 ORDER BY label`,
		f.WeekOrdinal, f.Weekday, enabledOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("暦週によるリマインダーの検索に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectReminders(rows)
}

// MarkNotified はリマインダーの最終通知日を更新する。
func (r *PostgresReminderRepo) MarkNotified(ctx context.Context, id string, on time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE reminders SET last_notified_on = $2, updated_at = now() WHERE id = $1`,
		id, on,
	)
	if err != nil {
		return fmt.Errorf("最終通知日の更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDのリマインダーを削除する。削除対象が存在したかを返す。
func (r *PostgresReminderRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("リマインダーの削除に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return n > 0, nil
}

func collectReminders(rows *sql.Rows) ([]*model.Reminder, error) {
	var reminders []*model.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("リマインダーのスキャンに失敗しました: %w", err)
		}
		reminders = append(reminders, reminder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("リマインダーの読み込みに失敗しました: %w", err)
	}
	return reminders, nil
}

// nullTime はnilポインタをsql.NullTimeに変換する。
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
