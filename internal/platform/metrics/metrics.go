package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "credit_ledger_"

	ResultSuccess = "success"
	ResultError   = "error"
	ResultReplay  = "replay"
	ResultSkipped = "skipped"
)

var (
	registerOnce sync.Once

	chargesTotal     *prometheus.CounterVec
	refundsTotal     *prometheus.CounterVec
	creditsMoved     *prometheus.CounterVec
	lockWaitSeconds  *prometheus.HistogramVec
	refreshAccounts  *prometheus.CounterVec
	refreshRunTime   prometheus.Histogram
	httpRequestsTime *prometheus.HistogramVec
)

// Init registers the ledger metrics with reg. It is safe to call more than
// once; only the first registry wins.
func Init(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		chargesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "charges_total",
				Help: "Charge attempts by action type and result",
			},
			[]string{"action_type", "result"},
		)
		refundsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "refunds_total",
				Help: "Refund attempts by result",
			},
			[]string{"result"},
		)
		creditsMoved = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "credits_moved_total",
				Help: "Absolute credits moved by transaction kind and direction",
			},
			[]string{"kind", "direction"},
		)
		lockWaitSeconds = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "account_lock_wait_seconds",
				Help:    "Time spent acquiring the account row lock",
				Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"result"},
		)
		refreshAccounts = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "refresh_accounts_total",
				Help: "Accounts processed by the monthly refresh by result",
			},
			[]string{"result"},
		)
		refreshRunTime = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "refresh_run_seconds",
				Help:    "Duration of one refresh pass",
				Buckets: prometheus.DefBuckets,
			},
		)
		httpRequestsTime = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency by route and status",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		)

		reg.MustRegister(
			chargesTotal,
			refundsTotal,
			creditsMoved,
			lockWaitSeconds,
			refreshAccounts,
			refreshRunTime,
			httpRequestsTime,
		)
	})
}

// IncCharge records a charge attempt.
func IncCharge(actionType, result string) {
	if chargesTotal == nil {
		return
	}
	chargesTotal.WithLabelValues(actionType, result).Inc()
}

// IncRefund records a refund attempt.
func IncRefund(result string) {
	if refundsTotal == nil {
		return
	}
	refundsTotal.WithLabelValues(result).Inc()
}

// AddCreditsMoved records the balance effect of a committed transaction.
func AddCreditsMoved(kind string, amount int64) {
	if creditsMoved == nil || amount == 0 {
		return
	}
	direction := "credit"
	if amount < 0 {
		direction = "debit"
		amount = -amount
	}
	creditsMoved.WithLabelValues(kind, direction).Add(float64(amount))
}

// ObserveLockWait records how long an account lock took to acquire.
func ObserveLockWait(result string, d time.Duration) {
	if lockWaitSeconds == nil {
		return
	}
	lockWaitSeconds.WithLabelValues(result).Observe(d.Seconds())
}

// IncRefreshAccount records one account handled by a refresh pass.
func IncRefreshAccount(result string) {
	if refreshAccounts == nil {
		return
	}
	refreshAccounts.WithLabelValues(result).Inc()
}

// ObserveRefreshRun records the duration of a refresh pass.
func ObserveRefreshRun(d time.Duration) {
	if refreshRunTime == nil {
		return
	}
	refreshRunTime.Observe(d.Seconds())
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, route, status string, d time.Duration) {
	if httpRequestsTime == nil {
		return
	}
	httpRequestsTime.WithLabelValues(method, route, status).Observe(d.Seconds())
}
