package metrics

import (
	"time"

	"github.com/GoArmGo/IdentityApp/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Исходы операций, не являющиеся видами ошибок сервиса
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid_request"
	OutcomeInternal = "internal"
)

// Metrics счетчики операций над пользователями
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// New создает метрики и регистрирует их в reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "identityapp",
			Name:      "user_operations_total",
			Help:      "Number of user operations by outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "identityapp",
			Name:      "user_operation_duration_seconds",
			Help:      "Duration of user operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	reg.MustRegister(m.operations, m.duration)
	return m
}

// Observe учитывает завершенную операцию. Исход определяется по виду ошибки.
func (m *Metrics) Observe(operation string, started time.Time, err error) {
	m.ObserveOutcome(operation, started, Outcome(err))
}

// ObserveOutcome учитывает операцию с явно заданным исходом
func (m *Metrics) ObserveOutcome(operation string, started time.Time, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.duration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// Outcome возвращает метку исхода для ошибки
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if kind, ok := domain.KindOf(err); ok {
		return string(kind)
	}
	return OutcomeInternal
}
