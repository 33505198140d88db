package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/nthweekday/internal/model"
	"github.com/hitoshi/nthweekday/internal/ordinal"
)

// Recorder は通知結果をメトリクスに記録する。
type Recorder interface {
	RecordHTTPStatus(statusCode int)
	RecordNotificationSent()
	RecordNotificationFailure(reason string)
	RecordNotifyLatency(duration time.Duration)
}

// DeliveryError はWebhook送信の失敗を表す。
// StatusCodeが0の場合はHTTPレスポンスを受け取れなかったことを示す。
type DeliveryError struct {
	StatusCode int
	Attempts   int
	Permanent  bool
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("webhook delivery failed after %d attempt(s): %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("webhook delivery failed after %d attempt(s): HTTP %d", e.Attempts, e.StatusCode)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// payload はWebhookに送信するJSONボディ。
type payload struct {
	ReminderID string `json:"reminder_id"`
	Label      string `json:"label"`
	Date       string `json:"date"`
	Text       string `json:"text"`
	TextEn     string `json:"text_en"`
}

// WebhookNotifier はリマインダーをWebhookにPOSTで通知する。
// 429/5xxと通信エラーは指数バックオフでリトライし、それ以外の失敗は即座に諦める。
type WebhookNotifier struct {
	client         *http.Client
	logger         *slog.Logger
	recorder       Recorder
	maxAttempts    int
	initialBackoff time.Duration
	sleep          func(ctx context.Context, d time.Duration) error
}

// NewWebhookNotifier はWebhookNotifierを生成する。
// clientにはSSRFGuardService.NewSafeClientで作ったクライアントを渡す。recorderはnilでもよい。
func NewWebhookNotifier(client *http.Client, logger *slog.Logger, recorder Recorder) *WebhookNotifier {
	return &WebhookNotifier{
		client:         client,
		logger:         logger,
		recorder:       recorder,
		maxAttempts:    defaultMaxAttempts,
		initialBackoff: defaultInitialBackoff,
		sleep:          sleepContext,
	}
}

// Notify はリマインダーrをdate付けで通知する。
// WebhookURLが空のリマインダーはログ出力のみ行い成功とする。
func (n *WebhookNotifier) Notify(ctx context.Context, r *model.Reminder, date time.Time) error {
	body, err := buildPayload(r, date)
	if err != nil {
		return err
	}

	if r.WebhookURL == "" {
		n.logger.Info("リマインダー（Webhook未設定）",
			slog.String("reminder_id", r.ID),
			slog.String("label", r.Label),
			slog.String("date", date.Format("2006-01-02")),
		)
		n.recordSent()
		return nil
	}

	var lastErr *DeliveryError
	for attempt := 0; attempt < n.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := CalculateBackoff(n.initialBackoff, attempt-1)
			if err := n.sleep(ctx, delay); err != nil {
				lastErr.Err = err
				break
			}
		}

		status, err := n.post(ctx, r.WebhookURL, body)
		lastErr = &DeliveryError{StatusCode: status, Attempts: attempt + 1, Err: err}

		if err == nil {
			switch ClassifyHTTPStatus(status) {
			case DeliveryResultOK:
				n.logger.Info("Webhook通知を送信しました",
					slog.String("reminder_id", r.ID),
					slog.Int("http_status", status),
					slog.Int("attempts", attempt+1),
				)
				n.recordSent()
				return nil
			case DeliveryResultPermanent:
				lastErr.Permanent = true
			}
		}

		if lastErr.Permanent {
			break
		}
		n.logger.Warn("Webhook通知をリトライします",
			slog.String("reminder_id", r.ID),
			slog.Int("http_status", status),
			slog.Int("attempt", attempt+1),
		)
	}

	n.logger.Error("Webhook通知に失敗しました",
		slog.String("reminder_id", r.ID),
		slog.String("error", lastErr.Error()),
	)
	if n.recorder != nil {
		n.recorder.RecordNotificationFailure(failureReason(lastErr.StatusCode))
	}
	return lastErr
}

// post は1回分のPOSTを行い、HTTPステータスコードを返す。
func (n *WebhookNotifier) post(ctx context.Context, url string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("リクエスト作成に失敗: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "nthweekday/1.0")

	start := time.Now()
	resp, err := n.client.Do(req)
	if n.recorder != nil {
		n.recorder.RecordNotifyLatency(time.Since(start))
	}
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	// コネクション再利用のためにボディを読み捨てる
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	if n.recorder != nil {
		n.recorder.RecordHTTPStatus(resp.StatusCode)
	}
	return resp.StatusCode, nil
}

func (n *WebhookNotifier) recordSent() {
	if n.recorder != nil {
		n.recorder.RecordNotificationSent()
	}
}

func buildPayload(r *model.Reminder, date time.Time) ([]byte, error) {
	text, err := r.Ordinal.Format(ordinal.FormatJapanese)
	if err != nil {
		return nil, err
	}
	return json.Marshal(payload{
		ReminderID: r.ID,
		Label:      r.Label,
		Date:       date.Format("2006-01-02"),
		Text:       text,
		TextEn:     r.Ordinal.String(),
	})
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsPermanent はerrがリトライ不能な送信失敗かを返す。
func IsPermanent(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de) && de.Permanent
}
