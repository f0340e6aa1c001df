package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	Init(reg)

	IncCharge("API_CALL", ResultSuccess)
	IncCharge("API_CALL", ResultSuccess)
	IncCharge("API_CALL", ResultError)
	AddCreditsMoved("CHARGE", -15)
	AddCreditsMoved("REFUND", 5)
	AddCreditsMoved("PLAN_CHANGE", 0)
	ObserveLockWait(ResultSuccess, 3*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(chargesTotal.WithLabelValues("API_CALL", ResultSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(chargesTotal.WithLabelValues("API_CALL", ResultError)))
	assert.Equal(t, float64(15), testutil.ToFloat64(creditsMoved.WithLabelValues("CHARGE", "debit")))
	assert.Equal(t, float64(5), testutil.ToFloat64(creditsMoved.WithLabelValues("REFUND", "credit")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "credit_ledger_charges_total")
	assert.Contains(t, names, "credit_ledger_account_lock_wait_seconds")
}
