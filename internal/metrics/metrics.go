// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 認証試行の結果ラベル
const (
	OutcomeSuccess            = "success"
	OutcomeEmailTaken         = "email_taken"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeError              = "error"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method string, statusCode int, duration time.Duration)
	RecordAuthAttempt(operation, outcome string)
	RecordGuardRejection(reason string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
	authAttempts    *prometheus.CounterVec
	guardRejections *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accounts_http_requests_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"method", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "accounts_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accounts_auth_attempts_total",
			Help: "登録・ログイン試行の結果別の合計数",
		}, []string{"operation", "outcome"}),
		guardRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accounts_guard_rejections_total",
			Help: "認証ガードで拒否されたリクエストの理由別の合計数",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.authAttempts,
		c.guardRejections,
	)

	return c
}

// RecordHTTPRequest はHTTPレスポンスのステータスと処理時間を記録する。
func (c *Collector) RecordHTTPRequest(method string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordAuthAttempt は登録・ログインの試行結果を記録する。
func (c *Collector) RecordAuthAttempt(operation, outcome string) {
	c.authAttempts.WithLabelValues(operation, outcome).Inc()
}

// RecordGuardRejection は認証ガードでの拒否を記録する。
func (c *Collector) RecordGuardRejection(reason string) {
	c.guardRejections.WithLabelValues(reason).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// nopCollector は何も記録しないMetricsCollector。
type nopCollector struct{}

func (nopCollector) RecordHTTPRequest(string, int, time.Duration) {}
func (nopCollector) RecordAuthAttempt(string, string)             {}
func (nopCollector) RecordGuardRejection(string)                  {}

// Nop は何も記録しないMetricsCollectorを返す。テストやメトリクス無効時に使用する。
func Nop() MetricsCollector {
	return nopCollector{}
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
