package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RelayRequests counts relay responses by HTTP status code.
var RelayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tvrelay_relay_requests_total",
	Help: "Relay requests by response status",
}, []string{"status"})

// ManifestRewrites counts manifest lines substituted with relay links.
var ManifestRewrites = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tvrelay_manifest_rewrites_total",
	Help: "Manifest lines rewritten to relay links",
})

// UpstreamFetchSeconds observes upstream fetch latency. The "outcome" label is
// "ok" or the fetch error kind (network, timeout, redirect, read, ...).
var UpstreamFetchSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "tvrelay_upstream_fetch_seconds",
	Help:    "Upstream fetch latency",
	Buckets: prometheus.DefBuckets,
}, []string{"outcome"})

// ProxyHandles tracks the number of live entries in the proxy handle table.
var ProxyHandles = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "tvrelay_proxy_handles",
	Help: "Live proxy handles",
})

// SourceRefreshErrors counts failed source refreshes.
var SourceRefreshErrors = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tvrelay_source_refresh_errors_total",
	Help: "Source refreshes that failed to fetch or parse",
})
