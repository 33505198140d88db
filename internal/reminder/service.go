// Package reminder は「第N何曜日」リマインダーのドメインロジックを提供する。
package reminder

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/nthweekday/internal/model"
	"github.com/hitoshi/nthweekday/internal/ordinal"
	"github.com/hitoshi/nthweekday/internal/repository"
)

// MaxLabelLength はラベルの最大文字数（ルーン数）。
const MaxLabelLength = 100

// URLValidator はWebhook URLの安全性を検証する。
type URLValidator interface {
	ValidateURL(rawURL string) error
}

// Sanitizer はラベルからHTMLを除去する。
type Sanitizer interface {
	Sanitize(raw string) string
}

// CreateInput はリマインダー作成の入力値。
type CreateInput struct {
	Label       string
	WeekOrdinal int
	Weekday     int
	WebhookURL  string
}

// Service はリマインダー管理のサービス層。
type Service struct {
	repo      repository.ReminderRepository
	guard     URLValidator
	sanitizer Sanitizer
	nowFunc   func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.ReminderRepository, guard URLValidator, sanitizer Sanitizer) *Service {
	return &Service{
		repo:      repo,
		guard:     guard,
		sanitizer: sanitizer,
		nowFunc:   time.Now,
	}
}

// Create は入力を検証してリマインダーを登録する。
// 暦週は1〜5、曜日は0（日曜日）〜6（土曜日）のみ受け付ける。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Reminder, error) {
	if in.WeekOrdinal < 1 || in.WeekOrdinal > 5 {
		return nil, model.NewInvalidWeekOrdinalError(in.WeekOrdinal)
	}
	if in.Weekday < int(time.Sunday) || in.Weekday > int(time.Saturday) {
		return nil, model.NewInvalidWeekdayError(in.Weekday)
	}

	label := s.sanitizer.Sanitize(in.Label)
	if label == "" {
		return nil, model.NewInvalidLabelError("ラベルが空です")
	}
	if utf8.RuneCountInString(label) > MaxLabelLength {
		return nil, model.NewInvalidLabelError(fmt.Sprintf("%d文字を超えています", MaxLabelLength))
	}

	webhookURL := strings.TrimSpace(in.WebhookURL)
	if webhookURL != "" {
		if err := validateWebhookSyntax(webhookURL); err != nil {
			return nil, model.NewInvalidWebhookURLError(err.Error())
		}
		if err := s.guard.ValidateURL(webhookURL); err != nil {
			return nil, model.NewWebhookBlockedError()
		}
	}

	now := s.nowFunc()
	r := &model.Reminder{
		ID:         uuid.New().String(),
		Label:      label,
		Ordinal:    ordinal.New(in.WeekOrdinal, time.Weekday(in.Weekday)),
		WebhookURL: webhookURL,
		Enabled:    true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("リマインダーの登録に失敗しました: %w", err)
	}
	return r, nil
}

// Get は指定IDのリマインダーを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Reminder, error) {
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("リマインダーの取得に失敗しました: %w", err)
	}
	if r == nil {
		return nil, model.NewReminderNotFoundError(id)
	}
	return r, nil
}

// List は全リマインダーを月内の出現順（暦週、曜日）、同順位はラベル順で返す。
func (s *Service) List(ctx context.Context) ([]*model.Reminder, error) {
	reminders, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("リマインダー一覧の取得に失敗しました: %w", err)
	}
	sortReminders(reminders)
	return reminders, nil
}

// Delete は指定IDのリマインダーを削除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("リマインダーの削除に失敗しました: %w", err)
	}
	if !found {
		return model.NewReminderNotFoundError(id)
	}
	return nil
}

// Matching はdateの「第N何曜日」に該当する有効なリマインダーを返す。
// 暦週はdateのロケーションにおける日付から求める。
func (s *Service) Matching(ctx context.Context, date time.Time) ([]*model.Reminder, error) {
	target := ordinal.FromDate(date)

	reminders, err := s.repo.ListByOrdinal(ctx, target, true)
	if err != nil {
		return nil, fmt.Errorf("該当リマインダーの検索に失敗しました: %w", err)
	}

	// リポジトリの実装によらず、ここで該当性と有効性を保証する
	matched := make([]*model.Reminder, 0, len(reminders))
	for _, r := range reminders {
		if r.Enabled && r.Ordinal.Equal(target) {
			matched = append(matched, r)
		}
	}
	sortReminders(matched)
	return matched, nil
}

// MarkNotified はリマインダーをon付けで通知済みにする。
func (s *Service) MarkNotified(ctx context.Context, id string, on time.Time) error {
	if err := s.repo.MarkNotified(ctx, id, on); err != nil {
		return fmt.Errorf("通知済みの記録に失敗しました: %w", err)
	}
	return nil
}

func sortReminders(rs []*model.Reminder) {
	sort.SliceStable(rs, func(i, j int) bool {
		if c := rs[i].Ordinal.Compare(rs[j].Ordinal); c != 0 {
			return c < 0
		}
		return rs[i].Label < rs[j].Label
	})
}

// validateWebhookSyntax はURLとしての形式のみを検証する。
func validateWebhookSyntax(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("URLの形式が不正です")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("スキームはhttpまたはhttpsのみ使用できます")
	}
	if u.Host == "" {
		return fmt.Errorf("ホストがありません")
	}
	return nil
}
