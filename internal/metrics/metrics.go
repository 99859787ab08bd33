package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SalonMetrics 记录预约结果、空闲时间查询与 HTTP 请求耗时
type SalonMetrics struct {
	bookingsTotal      *prometheus.CounterVec
	availabilityTotal  *prometheus.CounterVec
	availableSlots     prometheus.Histogram
	httpRequestLatency *prometheus.HistogramVec
}

func NewSalonMetrics(reg prometheus.Registerer) *SalonMetrics {
	m := &SalonMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nailsalon",
			Subsystem: "booking",
			Name:      "attempts_total",
			Help:      "Booking attempts by outcome",
		}, []string{"operation", "outcome"}),
		availabilityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nailsalon",
			Subsystem: "availability",
			Name:      "lookups_total",
			Help:      "Employee availability lookups by result",
		}, []string{"result"}),
		availableSlots: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nailsalon",
			Subsystem: "availability",
			Name:      "slots",
			Help:      "Number of free slots returned per employee",
			Buckets:   prometheus.LinearBuckets(0, 4, 8),
		}),
		httpRequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nailsalon",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.availabilityTotal, m.availableSlots, m.httpRequestLatency)
	return m
}

// ObserveBooking 中 operation 为 create 或 update，outcome 为 accepted 或具体的拒绝原因
func (m *SalonMetrics) ObserveBooking(operation, outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *SalonMetrics) ObserveAvailability(result string, slots int) {
	if m == nil {
		return
	}
	m.availabilityTotal.WithLabelValues(result).Inc()
	m.availableSlots.Observe(float64(slots))
}

func (m *SalonMetrics) ObserveHTTPRequest(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestLatency.WithLabelValues(method, statusClass(status)).Observe(elapsed.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
