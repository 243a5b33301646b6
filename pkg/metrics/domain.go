package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// DomainMetrics counts business events that matter operationally.
type DomainMetrics struct {
	otp    *prometheus.CounterVec
	orders *prometheus.CounterVec
}

// NewDomainMetrics registers the domain counters on the provided registerer.
func NewDomainMetrics(reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		return &DomainMetrics{}
	}
	otp := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bazaar_otp_events_total",
		Help: "One-time code issue and validation events.",
	}, []string{"event", "purpose", "outcome"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bazaar_orders_total",
		Help: "Order placement attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(otp, orders)
	return &DomainMetrics{otp: otp, orders: orders}
}

// OTPIssued counts an issued code or reset token.
func (d *DomainMetrics) OTPIssued(purpose string) {
	if d == nil || d.otp == nil {
		return
	}
	d.otp.WithLabelValues("issue", normalizeLabel(purpose), OutcomeSuccess).Inc()
}

// OTPValidated counts a validation attempt.
func (d *DomainMetrics) OTPValidated(purpose string, ok bool) {
	if d == nil || d.otp == nil {
		return
	}
	d.otp.WithLabelValues("validate", normalizeLabel(purpose), outcome(ok)).Inc()
}

// OrderPlaced counts a createOrder attempt.
func (d *DomainMetrics) OrderPlaced(outcomeLabel string) {
	if d == nil || d.orders == nil {
		return
	}
	d.orders.WithLabelValues(normalizeLabel(outcomeLabel)).Inc()
}

func outcome(ok bool) string {
	if ok {
		return OutcomeSuccess
	}
	return OutcomeFailure
}
