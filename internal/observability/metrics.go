package observability

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the relay and client daemon.
type Metrics struct {
	// Room/peer metrics
	RoomsActive         prometheus.Gauge
	RoomsCreatedTotal    prometheus.Counter
	RoomsClosedTotal     prometheus.Counter
	PeersActive          prometheus.Gauge
	PeersJoinedTotal     *prometheus.CounterVec
	HostTransfersTotal   prometheus.Counter
	QuarantinedMatesTotal prometheus.Counter

	// Relay traffic metrics
	RelayedPacketsTotal *prometheus.CounterVec
	RelayedBytesTotal   *prometheus.CounterVec
	RelayErrorsTotal    *prometheus.CounterVec

	// Connection metrics
	QUICConnectionsTotal   *prometheus.CounterVec
	QUICConnectionsActive  prometheus.Gauge
	QUICConnectionDuration prometheus.Histogram

	// Canvas/chunk metrics
	ChunksCached          prometheus.Gauge
	ChunksEncodedTotal     *prometheus.CounterVec
	ChunkEncodeDuration    prometheus.Histogram
	ChunkCacheEvictionsTotal prometheus.Counter

	activeRooms int64
	activePeers int64
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		RoomsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "netcanv_rooms_active",
				Help: "Currently active rooms",
			},
		),

		RoomsCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "netcanv_rooms_created_total",
				Help: "Total rooms created",
			},
		),

		RoomsClosedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "netcanv_rooms_closed_total",
				Help: "Total rooms closed (host left and no mates remained)",
			},
		),

		PeersActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "netcanv_peers_active",
				Help: "Currently connected peers across all rooms",
			},
		),

		PeersJoinedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netcanv_peers_joined_total",
				Help: "Peer join attempts",
			},
			[]string{"result"},
		),

		HostTransfersTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "netcanv_host_transfers_total",
				Help: "Host successions performed after a host disconnect",
			},
		),

		QuarantinedMatesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "netcanv_quarantined_mates_total",
				Help: "Mates quarantined for an incompatible protocol version",
			},
		),

		RelayedPacketsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netcanv_relayed_packets_total",
				Help: "Packets relayed between peers",
			},
			[]string{"kind"},
		),

		RelayedBytesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netcanv_relayed_bytes_total",
				Help: "Bytes relayed between peers",
			},
			[]string{"direction"},
		),

		RelayErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netcanv_relay_errors_total",
				Help: "Relay-level errors returned to peers",
			},
			[]string{"kind"},
		),

		QUICConnectionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netcanv_quic_connections_total",
				Help: "QUIC connection attempts",
			},
			[]string{"result"},
		),

		QUICConnectionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "netcanv_quic_connections_active",
				Help: "Active QUIC connections",
			},
		),

		QUICConnectionDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "netcanv_quic_connection_duration_seconds",
				Help:    "QUIC connection lifetime",
				Buckets: []float64{1, 5, 10, 30, 60, 300, 900, 3600},
			},
		),

		ChunksCached: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "netcanv_chunks_cached",
				Help: "Chunks currently holding a live encoded-bytes cache entry",
			},
		),

		ChunksEncodedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netcanv_chunks_encoded_total",
				Help: "Chunk encode operations",
			},
			[]string{"format"},
		),

		ChunkEncodeDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "netcanv_chunk_encode_duration_seconds",
				Help:    "Chunk encode latency",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
		),

		ChunkCacheEvictionsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "netcanv_chunk_cache_evictions_total",
				Help: "Encoded chunk cache entries evicted after their idle TTL",
			},
		),
	}

	return m
}

// RecordRoomCreated updates room gauges/counters for a new room.
func (m *Metrics) RecordRoomCreated() {
	atomic.AddInt64(&m.activeRooms, 1)
	m.RoomsActive.Set(float64(atomic.LoadInt64(&m.activeRooms)))
	m.RoomsCreatedTotal.Inc()
}

// RecordRoomClosed updates room gauges/counters for a closed room.
func (m *Metrics) RecordRoomClosed() {
	atomic.AddInt64(&m.activeRooms, -1)
	m.RoomsActive.Set(float64(atomic.LoadInt64(&m.activeRooms)))
	m.RoomsClosedTotal.Inc()
}

// RecordPeerJoin updates peer gauges/counters for a join attempt.
func (m *Metrics) RecordPeerJoin(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.PeersJoinedTotal.WithLabelValues(result).Inc()
	if success {
		atomic.AddInt64(&m.activePeers, 1)
		m.PeersActive.Set(float64(atomic.LoadInt64(&m.activePeers)))
	}
}

// RecordPeerLeave decrements the active peer gauge.
func (m *Metrics) RecordPeerLeave() {
	atomic.AddInt64(&m.activePeers, -1)
	m.PeersActive.Set(float64(atomic.LoadInt64(&m.activePeers)))
}

// RecordHostTransfer increments the host transfer counter.
func (m *Metrics) RecordHostTransfer() {
	m.HostTransfersTotal.Inc()
}

// RecordQuarantinedMate increments the quarantined mate counter.
func (m *Metrics) RecordQuarantinedMate() {
	m.QuarantinedMatesTotal.Inc()
}

// RecordRelayed records a relayed packet of the given kind and size.
func (m *Metrics) RecordRelayed(kind string, bytes int) {
	m.RelayedPacketsTotal.WithLabelValues(kind).Inc()
	m.RelayedBytesTotal.WithLabelValues("relayed").Add(float64(bytes))
}

// RecordRelayError increments the relay error counter for a kind.
func (m *Metrics) RecordRelayError(kind string) {
	m.RelayErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordQUICConnection logs QUIC connection attempts.
func (m *Metrics) RecordQUICConnection(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.QUICConnectionsTotal.WithLabelValues(result).Inc()

	if success {
		m.QUICConnectionsActive.Inc()
	}
}

// RecordQUICConnectionClose updates metrics for closed QUIC connections.
func (m *Metrics) RecordQUICConnectionClose(durationSeconds float64) {
	m.QUICConnectionsActive.Dec()
	m.QUICConnectionDuration.Observe(durationSeconds)
}

// RecordChunkEncode records a chunk encode operation.
func (m *Metrics) RecordChunkEncode(format string, durationSeconds float64) {
	m.ChunksEncodedTotal.WithLabelValues(format).Inc()
	m.ChunkEncodeDuration.Observe(durationSeconds)
}

// SetChunksCached sets the live encoded-cache entry gauge.
func (m *Metrics) SetChunksCached(n int) {
	m.ChunksCached.Set(float64(n))
}

// RecordChunkCacheEviction increments the cache eviction counter.
func (m *Metrics) RecordChunkCacheEviction() {
	m.ChunkCacheEvictionsTotal.Inc()
}

// Handler exposes the Prometheus metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}
