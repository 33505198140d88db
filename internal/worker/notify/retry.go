package notify

import "time"

// DeliveryResult はHTTPステータスコードに基づくWebhook送信結果の分類。
type DeliveryResult int

const (
	// DeliveryResultOK は送信成功（2xx）。
	DeliveryResultOK DeliveryResult = iota
	// DeliveryResultPermanent はリトライしても成功しない失敗（429以外の4xx、3xx）。
	DeliveryResultPermanent
	// DeliveryResultRetry はリトライすべき失敗（429/5xx）。
	DeliveryResultRetry
)

const (
	// defaultInitialBackoff は指数バックオフの初回遅延（1秒）。
	defaultInitialBackoff = 1 * time.Second
	// defaultMaxAttempts は1通知あたりの最大試行回数。
	defaultMaxAttempts = 3
)

// ClassifyHTTPStatus はHTTPステータスコードを送信結果に分類する。
func ClassifyHTTPStatus(statusCode int) DeliveryResult {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return DeliveryResultOK
	case statusCode == 429:
		return DeliveryResultRetry
	case statusCode >= 500:
		return DeliveryResultRetry
	default:
		return DeliveryResultPermanent
	}
}

// CalculateBackoff はattempt回目（0始まり）の失敗後に待つ遅延を計算する。
// 初回initial、以降2倍ずつ増加する。
func CalculateBackoff(initial time.Duration, attempt int) time.Duration {
	delay := initial
	for i := 0; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

// failureReason はメトリクスのreasonラベルに使う失敗理由を返す。
func failureReason(statusCode int) string {
	switch {
	case statusCode == 0:
		return "network_error"
	case statusCode == 429:
		return "rate_limited"
	case statusCode >= 500:
		return "server_error"
	default:
		return "client_error"
	}
}
