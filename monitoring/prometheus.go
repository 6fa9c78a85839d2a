package monitoring

import (
	"net/http"
	"time"

	"github.com/kanteakoisi/GreenPledge/logx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ledgerPromMetrics struct {
	nodeUpUnixSeconds prometheus.Gauge
	totalSupply       prometheus.Gauge
	mintCount         prometheus.Gauge
	holderCount       prometheus.Gauge
	acceptedOpCount   *prometheus.CounterVec
	rejectedOpCount   *prometheus.CounterVec
	opDuration        prometheus.Histogram
	pausedFlag        prometheus.Gauge
	panicCount        prometheus.Counter
}

func newLedgerPromMetrics() *ledgerPromMetrics {
	return &ledgerPromMetrics{
		nodeUpUnixSeconds: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "greenpledge_node_up_timestamp_unix_seconds",
				Help: "Unix timestamp of the node",
			},
		),
		totalSupply: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "greenpledge_ledger_total_supply",
				Help: "Current total credit supply",
			},
		),
		mintCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "greenpledge_ledger_mint_count",
				Help: "Number of mint records in the journal",
			},
		),
		holderCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "greenpledge_ledger_holder_count",
				Help: "Number of identities holding a nonzero balance",
			},
		),
		acceptedOpCount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "greenpledge_ledger_accepted_op_count",
				Help: "The total number of accepted ledger operations",
			},
			[]string{"op"},
		),
		rejectedOpCount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "greenpledge_ledger_rejected_op_count",
				Help: "The total number of rejected ledger operations",
			},
			[]string{"op", "code"},
		),
		opDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name: "greenpledge_ledger_op_duration_seconds",
				Help: "Duration in second of a ledger operation including the store commit",
			},
		),
		pausedFlag: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "greenpledge_ledger_paused",
				Help: "1 while the emergency pause is active, 0 otherwise",
			},
		),
		panicCount: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "greenpledge_node_panic_count",
				Help: "The total number of recovered panics",
			},
		),
	}
}

var ledgerMetrics *ledgerPromMetrics

// InitMetrics initialize metrics for node but not expose to api yet
func InitMetrics() {
	ledgerMetrics = newLedgerPromMetrics()
	ledgerMetrics.nodeUpUnixSeconds.SetToCurrentTime()
}

func RegisterMetrics(mux *http.ServeMux) {
	logx.Info("MONITORING", "Registering prometheus metrics")
	mux.Handle("/metrics", promhttp.Handler())
}

func initialized() bool {
	return ledgerMetrics != nil
}

func SetTotalSupply(supply float64) {
	if !initialized() {
		return
	}
	ledgerMetrics.totalSupply.Set(supply)
}

func SetMintCount(count uint64) {
	if !initialized() {
		return
	}
	ledgerMetrics.mintCount.Set(float64(count))
}

func SetHolderCount(count int) {
	if !initialized() {
		return
	}
	ledgerMetrics.holderCount.Set(float64(count))
}

func RecordAcceptedOp(op string) {
	if !initialized() {
		return
	}
	ledgerMetrics.acceptedOpCount.With(prometheus.Labels{"op": op}).Inc()
}

func RecordRejectedOp(op string, code string) {
	if !initialized() {
		return
	}
	ledgerMetrics.rejectedOpCount.With(prometheus.Labels{
		"op":   op,
		"code": code,
	}).Inc()
}

func RecordOpDuration(duration time.Duration) {
	if !initialized() {
		return
	}
	ledgerMetrics.opDuration.Observe(duration.Seconds())
}

func SetPaused(paused bool) {
	if !initialized() {
		return
	}
	if paused {
		ledgerMetrics.pausedFlag.Set(1)
	} else {
		ledgerMetrics.pausedFlag.Set(0)
	}
}

func IncreasePanicCount() {
	if !initialized() {
		return
	}
	ledgerMetrics.panicCount.Inc()
}
