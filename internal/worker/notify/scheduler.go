// Package notify は「第N何曜日」に該当するリマインダーのバックグラウンド通知処理を提供する。
// スケジューラ、Webhook通知、リトライ/バックオフ戦略を含む。
package notify

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hitoshi/nthweekday/internal/model"
	"github.com/hitoshi/nthweekday/internal/ordinal"
)

// ReminderSource は通知対象の取得と通知済みの記録を行う。reminder.Serviceが満たす。
type ReminderSource interface {
	Matching(ctx context.Context, date time.Time) ([]*model.Reminder, error)
	MarkNotified(ctx context.Context, id string, on time.Time) error
}

// Notifier は1件のリマインダーを通知する。
type Notifier interface {
	Notify(ctx context.Context, r *model.Reminder, date time.Time) error
}

// RunSummary は1サイクル分の通知結果。
type RunSummary struct {
	Matched int
	Skipped int
	Sent    int
	Failed  int
}

// Scheduler はリマインダー通知のスケジューリングと並列制御を行う。
// ティッカーごとに設定タイムゾーンでの今日の「第N何曜日」に該当するリマインダーを取得し、
// semaphoreパターンで最大並列数を制御しながら通知する。
type Scheduler struct {
	source         ReminderSource
	notifier       Notifier
	logger         *slog.Logger
	location       *time.Location
	maxConcurrency int
	nowFunc        func() time.Time
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルト値5を使用する。
func NewScheduler(
	source ReminderSource,
	notifier Notifier,
	logger *slog.Logger,
	location *time.Location,
	maxConcurrency int,
) *Scheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = 5
	}
	if location == nil {
		location = time.UTC
	}
	return &Scheduler{
		source:         source,
		notifier:       notifier,
		logger:         logger,
		location:       location,
		maxConcurrency: maxConcurrency,
		nowFunc:        time.Now,
	}
}

// Start はinterval間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("通知スケジューラを開始しました",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", s.maxConcurrency),
		slog.String("timezone", s.location.String()),
	)

	// 起動直後に1回実行
	s.runAndLog(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("通知スケジューラを停止しました")
			return
		case <-ticker.C:
			s.runAndLog(ctx)
		}
	}
}

func (s *Scheduler) runAndLog(ctx context.Context) {
	if _, err := s.RunOnce(ctx, s.nowFunc()); err != nil {
		s.logger.Error("通知サイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}

// RunOnce はnowを設定タイムゾーンで解釈した日付に該当するリマインダーを通知する。
// 同じ日にすでに通知済みのリマインダーはスキップし、通知に成功したものだけを通知済みにする。
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) (RunSummary, error) {
	start := time.Now()
	today := now.In(s.location)

	reminders, err := s.source.Matching(ctx, today)
	if err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{Matched: len(reminders)}
	pending := make([]*model.Reminder, 0, len(reminders))
	for _, r := range reminders {
		if r.NotifiedOn(today) {
			summary.Skipped++
			continue
		}
		pending = append(pending, r)
	}

	if len(pending) == 0 {
		s.logger.Info("通知対象のリマインダーはありません",
			slog.String("date", today.Format("2006-01-02")),
			slog.String("ordinal", ordinal.FromDate(today).String()),
			slog.Int("skipped", summary.Skipped),
		)
		return summary, nil
	}

	s.logger.Info("通知サイクルを開始します",
		slog.String("date", today.Format("2006-01-02")),
		slog.String("ordinal", ordinal.FromDate(today).String()),
		slog.Int("reminder_count", len(pending)),
	)

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup
	var sent, failed atomic.Int64

	for _, r := range pending {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(r *model.Reminder) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			if err := s.notifier.Notify(ctx, r, today); err != nil {
				failed.Add(1)
				s.logger.Error("リマインダー通知に失敗しました",
					slog.String("reminder_id", r.ID),
					slog.String("error", err.Error()),
				)
				return
			}
			if err := s.source.MarkNotified(ctx, r.ID, today); err != nil {
				s.logger.Error("通知済みの記録に失敗しました",
					slog.String("reminder_id", r.ID),
					slog.String("error", err.Error()),
				)
			}
			sent.Add(1)
		}(r)
	}

	wg.Wait()

	summary.Sent = int(sent.Load())
	summary.Failed = int(failed.Load())

	s.logger.Info("通知サイクルが完了しました",
		slog.Int("sent", summary.Sent),
		slog.Int("failed", summary.Failed),
		slog.Int("skipped", summary.Skipped),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return summary, nil
}
