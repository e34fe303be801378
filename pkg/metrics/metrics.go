package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 评分与 HTTP 层的 Prometheus 指标
// 所有方法对 nil 接收者安全，单元测试可直接传 nil
type Metrics struct {
	// 成功写入的单条评分数
	ScoresRecorded prometheus.Counter

	// 评分批次结果：ok / rejected / failed
	ScoreBatches *prometheus.CounterVec

	// 能力进度重算次数（按是否回写缓存）
	CompetenceRecomputes *prometheus.CounterVec

	// HTTP 请求耗时
	RequestDuration *prometheus.HistogramVec
}

// NewWithRegisterer 在指定 Registerer 上注册全部指标
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ScoresRecorded: f.NewCounter(prometheus.CounterOpts{
			Name: "compass_scores_recorded_total",
			Help: "Total indicator scores persisted by teachers",
		}),

		ScoreBatches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "compass_score_batches_total",
			Help: "Score submission batches by result",
		}, []string{"result"}), // result: "ok", "rejected", "failed"

		CompetenceRecomputes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "compass_competence_recomputes_total",
			Help: "Competence progress recomputations by cache write-back mode",
		}, []string{"mode"}), // mode: "cached", "readonly"

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "compass_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route and status code",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),
	}
}

// 批次结果标签
const (
	BatchOK       = "ok"
	BatchRejected = "rejected"
	BatchFailed   = "failed"
)

// AddScoresRecorded 累加成功写入的评分条数
func (m *Metrics) AddScoresRecorded(n int) {
	if m != nil {
		m.ScoresRecorded.Add(float64(n))
	}
}

// IncrementBatch 记录一次评分批次结果
func (m *Metrics) IncrementBatch(result string) {
	if m != nil {
		m.ScoreBatches.WithLabelValues(result).Inc()
	}
}

// IncrementRecompute 记录一次能力进度重算
func (m *Metrics) IncrementRecompute(writeBack bool) {
	if m != nil {
		mode := "readonly"
		if writeBack {
			mode = "cached"
		}
		m.CompetenceRecomputes.WithLabelValues(mode).Inc()
	}
}

// ObserveRequest 记录一次 HTTP 请求耗时
func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m != nil {
		m.RequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
	}
}
