// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// メール取得と豆知識取得の成否、HTTPステータス分布を記録する。
type Collector struct {
	mailFetchSuccess prometheus.Counter
	mailFetchFail    *prometheus.CounterVec
	mailFetched      prometheus.Counter
	sampleFallback   prometheus.Counter
	mailFetchLatency prometheus.Histogram
	triviaSuccess    prometheus.Counter
	triviaFail       prometheus.Counter
	httpStatus       *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		mailFetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gmailviewer_mail_fetch_success_total",
			Help: "メール一覧取得成功の合計数",
		}),
		mailFetchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gmailviewer_mail_fetch_fail_total",
			Help: "メール一覧取得失敗の合計数",
		}, []string{"reason"}),
		mailFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gmailviewer_mail_fetched_total",
			Help: "取得したメールサマリーの合計数",
		}),
		sampleFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gmailviewer_sample_fallback_total",
			Help: "サンプルデータへのフォールバック回数",
		}),
		mailFetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gmailviewer_mail_fetch_latency_seconds",
			Help:    "メール一覧取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		triviaSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gmailviewer_trivia_success_total",
			Help: "豆知識取得成功の合計数",
		}),
		triviaFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gmailviewer_trivia_fail_total",
			Help: "豆知識取得失敗の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gmailviewer_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.mailFetchSuccess,
		c.mailFetchFail,
		c.mailFetched,
		c.sampleFallback,
		c.mailFetchLatency,
		c.triviaSuccess,
		c.triviaFail,
		c.httpStatus,
	)

	return c
}

// RecordMailFetchSuccess はメール一覧取得成功と取得件数を記録する。
func (c *Collector) RecordMailFetchSuccess(count int) {
	c.mailFetchSuccess.Inc()
	c.mailFetched.Add(float64(count))
}

// RecordMailFetchFailure はメール一覧取得失敗を記録する。
func (c *Collector) RecordMailFetchFailure(reason string) {
	c.mailFetchFail.WithLabelValues(reason).Inc()
}

// RecordSampleFallback はサンプルデータへのフォールバックを記録する。
func (c *Collector) RecordSampleFallback() {
	c.sampleFallback.Inc()
}

// RecordMailFetchLatency はメール一覧取得のレイテンシを記録する。
func (c *Collector) RecordMailFetchLatency(duration time.Duration) {
	c.mailFetchLatency.Observe(duration.Seconds())
}

// RecordTriviaSuccess は豆知識取得成功を記録する。
func (c *Collector) RecordTriviaSuccess() {
	c.triviaSuccess.Inc()
}

// RecordTriviaFailure は豆知識取得失敗を記録する。
func (c *Collector) RecordTriviaFailure() {
	c.triviaFail.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
