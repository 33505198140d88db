// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーと通知ワーカーから利用する。
type MetricsCollector interface {
	RecordFormat(selector string)
	RecordFormatError()
	RecordHTTPStatus(statusCode int)
	RecordNotificationSent()
	RecordNotificationFailure(reason string)
	RecordNotifyLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	formatTotal   *prometheus.CounterVec
	formatErrors  prometheus.Counter
	httpStatus    *prometheus.CounterVec
	notifySent    prometheus.Counter
	notifyFailed  *prometheus.CounterVec
	notifyLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		formatTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nthweekday_format_total",
			Help: "書式指定子別の整形回数",
		}, []string{"selector"}),
		formatErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nthweekday_format_errors_total",
			Help: "サポート外の書式指定子による整形失敗の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nthweekday_http_status_total",
			Help: "Webhook送信のHTTPステータスコード別レスポンス数",
		}, []string{"status_code"}),
		notifySent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nthweekday_notifications_sent_total",
			Help: "リマインダー通知成功の合計数",
		}),
		notifyFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nthweekday_notifications_failed_total",
			Help: "リマインダー通知失敗の合計数",
		}, []string{"reason"}),
		notifyLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nthweekday_notify_latency_seconds",
			Help:    "Webhook送信のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.formatTotal,
		c.formatErrors,
		c.httpStatus,
		c.notifySent,
		c.notifyFailed,
		c.notifyLatency,
	)

	return c
}

// RecordFormat は書式指定子ごとの整形回数を記録する。空のセレクタは"G"として数える。
func (c *Collector) RecordFormat(selector string) {
	if selector == "" {
		selector = "G"
	}
	c.formatTotal.WithLabelValues(selector).Inc()
}

// RecordFormatError は整形失敗を記録する。
func (c *Collector) RecordFormatError() {
	c.formatErrors.Inc()
}

// RecordHTTPStatus はWebhook送信のHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordNotificationSent は通知成功を記録する。
func (c *Collector) RecordNotificationSent() {
	c.notifySent.Inc()
}

// RecordNotificationFailure は通知失敗を理由別に記録する。
func (c *Collector) RecordNotificationFailure(reason string) {
	c.notifyFailed.WithLabelValues(reason).Inc()
}

// RecordNotifyLatency はWebhook送信のレイテンシを記録する。
func (c *Collector) RecordNotifyLatency(duration time.Duration) {
	c.notifyLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// workerプロセスでAPIサーバーとは別に公開する場合に使う。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
