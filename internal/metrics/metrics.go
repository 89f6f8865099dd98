// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder はHTTPリクエストメトリクス収集のインターフェース。
// APIクライアントおよびスタブサーバーのミドルウェアから利用する。
type Recorder interface {
	RecordRequest(endpoint, method string, status int, duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	requests *prometheus.CounterVec
	latency  prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bentocli_http_requests_total",
			Help: "エンドポイント・メソッド・ステータスコード別のHTTPリクエスト数",
		}, []string{"endpoint", "method", "status"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bentocli_http_request_duration_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.requests,
		c.latency,
	)

	return c
}

// RecordRequest はHTTPリクエスト1件の結果を記録する。
// statusにはHTTPステータスコード、トランスポート失敗の場合は0を渡す。
func (c *Collector) RecordRequest(endpoint, method string, status int, duration time.Duration) {
	c.requests.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
	c.latency.Observe(duration.Seconds())
}

// Noop は何も記録しないRecorder実装。メトリクス無効時に使用する。
type Noop struct{}

// RecordRequest は何もしない。
func (Noop) RecordRequest(string, string, int, time.Duration) {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface checks
var _ Recorder = (*Collector)(nil)
var _ Recorder = Noop{}
