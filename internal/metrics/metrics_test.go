package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %q not found", name)
	return 0
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordMailFetchSuccess_IncrementsCounters はメール取得成功で
// 成功カウンタと取得件数カウンタが増加することを検証する。
func TestRecordMailFetchSuccess_IncrementsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordMailFetchSuccess(10)
	c.RecordMailFetchSuccess(5)

	if val := counterValue(t, reg, "gmailviewer_mail_fetch_success_total"); val != 2 {
		t.Errorf("mail_fetch_success_total = %v, want 2", val)
	}
	if val := counterValue(t, reg, "gmailviewer_mail_fetched_total"); val != 15 {
		t.Errorf("mail_fetched_total = %v, want 15", val)
	}
}

// TestRecordMailFetchFailure_IncrementsCounter はメール取得失敗カウンタが
// reasonラベル付きで増加することを検証する。
func TestRecordMailFetchFailure_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordMailFetchFailure("list")

	if val := counterValue(t, reg, "gmailviewer_mail_fetch_fail_total"); val != 1 {
		t.Errorf("mail_fetch_fail_total = %v, want 1", val)
	}
}

// TestRecordSampleFallback_IncrementsCounter はサンプルフォールバックカウンタが増加することを検証する。
func TestRecordSampleFallback_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSampleFallback()
	c.RecordSampleFallback()
	c.RecordSampleFallback()

	if val := counterValue(t, reg, "gmailviewer_sample_fallback_total"); val != 3 {
		t.Errorf("sample_fallback_total = %v, want 3", val)
	}
}

// TestRecordTrivia_IncrementsCounters は豆知識取得の成否カウンタが増加することを検証する。
func TestRecordTrivia_IncrementsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTriviaSuccess()
	c.RecordTriviaSuccess()
	c.RecordTriviaFailure()

	if val := counterValue(t, reg, "gmailviewer_trivia_success_total"); val != 2 {
		t.Errorf("trivia_success_total = %v, want 2", val)
	}
	if val := counterValue(t, reg, "gmailviewer_trivia_fail_total"); val != 1 {
		t.Errorf("trivia_fail_total = %v, want 1", val)
	}
}

// TestRecordHTTPStatus_IncrementsCounterWithLabel はHTTPステータスカウンタが
// ラベル付きで増加することを検証する。
func TestRecordHTTPStatus_IncrementsCounterWithLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "gmailviewer_http_status_total" {
			found = true
			if len(mf.GetMetric()) != 2 {
				t.Fatalf("expected 2 label combinations, got %d", len(mf.GetMetric()))
			}
			for _, m := range mf.GetMetric() {
				label := m.GetLabel()[0].GetValue()
				val := m.GetCounter().GetValue()
				switch label {
				case "200":
					if val != 2 {
						t.Errorf("http_status_total{status_code=200} = %v, want 2", val)
					}
				case "404":
					if val != 1 {
						t.Errorf("http_status_total{status_code=404} = %v, want 1", val)
					}
				default:
					t.Errorf("unexpected label value: %s", label)
				}
			}
		}
	}
	if !found {
		t.Error("gmailviewer_http_status_total metric not found")
	}
}

// TestRecordMailFetchLatency_ObservesHistogram はメール取得レイテンシの
// ヒストグラムに値が記録されることを検証する。
func TestRecordMailFetchLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordMailFetchLatency(100 * time.Millisecond)
	c.RecordMailFetchLatency(2 * time.Second)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "gmailviewer_mail_fetch_latency_seconds" {
			found = true
			h := mf.GetMetric()[0].GetHistogram()
			if h.GetSampleCount() != 2 {
				t.Errorf("sample_count = %d, want 2", h.GetSampleCount())
			}
			// 合計は0.1 + 2.0 = 2.1秒
			if h.GetSampleSum() < 2.0 || h.GetSampleSum() > 2.2 {
				t.Errorf("sample_sum = %v, want ~2.1", h.GetSampleSum())
			}
		}
	}
	if !found {
		t.Error("gmailviewer_mail_fetch_latency_seconds metric not found")
	}
}

// TestMetricsHandler_ReturnsPrometheusFormat は/metricsエンドポイントが
// Prometheus形式で返すことを検証する。
func TestMetricsHandler_ReturnsPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordMailFetchSuccess(3)
	c.RecordSampleFallback()
	c.RecordTriviaSuccess()
	c.RecordHTTPStatus(200)
	c.RecordMailFetchLatency(500 * time.Millisecond)

	handler := Handler(reg)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	expectedMetrics := []string{
		"gmailviewer_mail_fetch_success_total",
		"gmailviewer_mail_fetched_total",
		"gmailviewer_sample_fallback_total",
		"gmailviewer_trivia_success_total",
		"gmailviewer_http_status_total",
		"gmailviewer_mail_fetch_latency_seconds",
	}

	for _, metric := range expectedMetrics {
		if !strings.Contains(bodyStr, metric) {
			t.Errorf("response body does not contain %q", metric)
		}
	}
}

// TestMultipleCollectors_IndependentRegistries は異なるレジストリで独立に動作することを検証する。
func TestMultipleCollectors_IndependentRegistries(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()
	c1 := NewCollector(reg1)
	c2 := NewCollector(reg2)

	c1.RecordSampleFallback()
	c2.RecordSampleFallback()
	c2.RecordSampleFallback()

	if val := counterValue(t, reg1, "gmailviewer_sample_fallback_total"); val != 1 {
		t.Errorf("reg1 sample_fallback = %v, want 1", val)
	}
	if val := counterValue(t, reg2, "gmailviewer_sample_fallback_total"); val != 2 {
		t.Errorf("reg2 sample_fallback = %v, want 2", val)
	}
}
