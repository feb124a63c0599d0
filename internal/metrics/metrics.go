package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/blues/note-c-zero/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus counters
var (
	I2CTxChunks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "i2c_tx_chunks_total",
		Help: "Total chunks written to the I2C device.",
	})
	I2CRxChunks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "i2c_rx_chunks_total",
		Help: "Total chunks read from the I2C device.",
	})
	SerialTxFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "serial_tx_frames_total",
		Help: "Total request frames written to the serial link.",
	})
	SerialRxFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "serial_rx_frames_total",
		Help: "Total response frames read from the serial link.",
	})
	Transactions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "device_transactions_total",
		Help: "Total request/response transactions performed with the device.",
	})
	TCPRxRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tcp_rx_requests_total",
		Help: "Total request frames received from TCP clients.",
	})
	TCPTxResponses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tcp_tx_responses_total",
		Help: "Total response frames sent to TCP clients.",
	})
	RejectedClients = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rejected_clients_total",
		Help: "Total client connection attempts rejected (e.g., max-clients).",
	})
	ActiveClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "active_clients",
		Help: "Current number of connected TCP clients.",
	})
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Build metadata (value is always 1).",
	}, []string{"version", "commit", "date"})
	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "errors_total",
		Help: "Error counters by subsystem.",
	}, []string{"where"})
	MalformedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "malformed_frames_total",
		Help: "Total rejected malformed frames (bad signature, oversize).",
	})
	readinessMu sync.RWMutex
	readinessFn func() bool
)

// Error label constants (stable label values to bound cardinality)
const (
	ErrTCPRead     = "tcp_read"
	ErrTCPWrite    = "tcp_write"
	ErrI2CTx       = "i2c_tx"
	ErrI2CRx       = "i2c_rx"
	ErrSerialWrite = "serial_write"
	ErrSerialRead  = "serial_read"
	ErrDeviceTx    = "device_tx"
	ErrTimeout     = "device_timeout"
)

// StartHTTP serves Prometheus metrics at /metrics plus a /ready probe.
func StartHTTP(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}

// Local mirrored counters for easy logging (avoid Prometheus scraping in-process)
var (
	localI2CTx     uint64
	localI2CRx     uint64
	localSerialTx  uint64
	localSerialRx  uint64
	localTxn       uint64
	localTCPRx     uint64
	localTCPTx     uint64
	localReject    uint64
	localErrors    uint64
	localClients   uint64
	localMalformed uint64
)

// Snapshot is a cheap copy of local counters.
type Snapshot struct {
	I2CTxChunks  uint64
	I2CRxChunks  uint64
	SerialTx     uint64
	SerialRx     uint64
	Transactions uint64
	TCPRx        uint64
	TCPTx        uint64
	Rejects      uint64
	Errors       uint64 // sum across error labels
	Clients      uint64
	Malformed    uint64
}

func Snap() Snapshot {
	return Snapshot{
		I2CTxChunks:  atomic.LoadUint64(&localI2CTx),
		I2CRxChunks:  atomic.LoadUint64(&localI2CRx),
		SerialTx:     atomic.LoadUint64(&localSerialTx),
		SerialRx:     atomic.LoadUint64(&localSerialRx),
		Transactions: atomic.LoadUint64(&localTxn),
		TCPRx:        atomic.LoadUint64(&localTCPRx),
		TCPTx:        atomic.LoadUint64(&localTCPTx),
		Rejects:      atomic.LoadUint64(&localReject),
		Errors:       atomic.LoadUint64(&localErrors),
		Clients:      atomic.LoadUint64(&localClients),
		Malformed:    atomic.LoadUint64(&localMalformed),
	}
}

// Wrapper helpers to keep call sites simple.
func IncI2CTxChunk() {
	I2CTxChunks.Inc()
	atomic.AddUint64(&localI2CTx, 1)
}

func IncI2CRxChunk() {
	I2CRxChunks.Inc()
	atomic.AddUint64(&localI2CRx, 1)
}

func IncSerialTx() {
	SerialTxFrames.Inc()
	atomic.AddUint64(&localSerialTx, 1)
}

func IncSerialRx() {
	SerialRxFrames.Inc()
	atomic.AddUint64(&localSerialRx, 1)
}

func IncTransaction() {
	Transactions.Inc()
	atomic.AddUint64(&localTxn, 1)
}

func IncTCPRx() {
	TCPRxRequests.Inc()
	atomic.AddUint64(&localTCPRx, 1)
}

func IncTCPTx() {
	TCPTxResponses.Inc()
	atomic.AddUint64(&localTCPTx, 1)
}

func IncReject() {
	RejectedClients.Inc()
	atomic.AddUint64(&localReject, 1)
}

func SetClients(n int) {
	ActiveClients.Set(float64(n))
	atomic.StoreUint64(&localClients, uint64(n))
}

func IncError(label string) {
	Errors.WithLabelValues(label).Inc()
	atomic.AddUint64(&localErrors, 1)
}

func IncMalformed() {
	MalformedFrames.Inc()
	atomic.AddUint64(&localMalformed, 1)
}

// InitBuildInfo sets the build info gauge (should be called once at startup).
func InitBuildInfo(version, commit, date string) {
	BuildInfo.WithLabelValues(version, commit, date).Set(1)
	// Pre-register common error label series so first error does not log a registration latency.
	for _, lbl := range []string{
		ErrTCPRead, ErrTCPWrite,
		ErrI2CTx, ErrI2CRx,
		ErrSerialWrite, ErrSerialRead,
		ErrDeviceTx, ErrTimeout,
	} {
		Errors.WithLabelValues(lbl).Add(0)
	}
}

// SetReadinessFunc registers a function used by /ready and IsReady.
func SetReadinessFunc(fn func() bool) { readinessMu.Lock(); readinessFn = fn; readinessMu.Unlock() }

// IsReady invokes the registered readiness function if present.
func IsReady() bool {
	readinessMu.RLock()
	fn := readinessFn
	readinessMu.RUnlock()
	if fn == nil { // if not set yet, treat as ready so metrics endpoint doesn't flap
		return true
	}
	return fn()
}
