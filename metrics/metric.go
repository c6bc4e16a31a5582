package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

func fqn(name string) string {
	return prometheus.BuildFQName("teenet", "ordinals", name)
}

var (
	// kind is "ordinal" or "collection"; result is ok or an error code.
	Inscriptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fqn("inscriptions_total"),
			Help: "Inscription requests by kind, network and result",
		},
		[]string{"kind", "network", "result"},
	)

	Broadcasts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fqn("broadcasts_total"),
			Help: "Transactions handed to the node",
		},
		[]string{"network", "result"},
	)

	InscriptionFees = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    fqn("inscription_fees_sat"),
			Help:    "Commit plus reveal fee paid per inscription, in satoshi",
			Buckets: prometheus.ExponentialBuckets(500, 2, 10),
		},
		[]string{"network"},
	)

	FeeEstimate = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: fqn("fee_estimate_sat_per_vbyte"),
			Help: "Last fee estimate fetched from the node",
		},
		[]string{"network", "tier"},
	)

	TrackedTxs = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: fqn("tracked_txs"),
			Help: "Inscriptions waiting for finality, by status",
		},
		[]string{"status"},
	)

	HttpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    fqn("http_duration"),
			Help:    "HTTP request duration",
			Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1, 5, 15},
		},
		[]string{"method", "path", "status"},
	)
)

func ObserveInscription(kind, network, result string, fees int64) {
	Inscriptions.WithLabelValues(kind, network, result).Inc()
	if result == ResultOK {
		InscriptionFees.WithLabelValues(network).Observe(float64(fees))
	}
}

func ObserveBroadcast(network string, err error) {
	result := ResultOK
	if err != nil {
		result = ResultFailed
	}
	Broadcasts.WithLabelValues(network, result).Inc()
}

// HTTP is a gin middleware. Paths are the route templates, eg. /api/v1/ordinals/:id.
func HTTP(c *gin.Context) {
	started := time.Now()

	c.Next()

	path := c.FullPath()
	if path == "" {
		path = "unmatched"
	}
	HttpDuration.WithLabelValues(
		c.Request.Method,
		path,
		strconv.Itoa(c.Writer.Status()),
	).Observe(time.Since(started).Seconds())
}

func init() {
	prometheus.MustRegister(
		Inscriptions,
		Broadcasts,
		InscriptionFees,
		FeeEstimate,
		TrackedTxs,
		HttpDuration,
	)
}
