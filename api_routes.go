package main

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tvrelay/work/bridge"
	"tvrelay/work/client"
	"tvrelay/work/config"
	"tvrelay/work/filter"
	"tvrelay/work/handlers"
	"tvrelay/work/mapping"
	"tvrelay/work/middleware"
	"tvrelay/work/sources"
)

// apiDeps is everything the JSON API reaches into.
type apiDeps struct {
	Config   *config.Config
	Registry *sources.Registry
	Mappings *mapping.Table
	Fetcher  *client.Fetcher
	Bridge   *bridge.Bridge
	Filters  *filter.Manager
	Started  time.Time
}

// api wraps an API handler with the API CORS policy and response compression.
func api(h http.HandlerFunc) http.HandlerFunc {
	return middleware.CORSMiddleware(middleware.APICORS, middleware.GzipMiddleware(h))
}

// setupAPIRoutes registers the /api routes and /metrics on router.
func setupAPIRoutes(router *mux.Router, deps *apiDeps) {
	router.HandleFunc("/api/sources", api(handlers.HandleListSources(deps.Registry))).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/sources", api(handlers.HandleAddSource(deps.Registry))).Methods("POST")
	router.HandleFunc("/api/sources/refresh", api(handlers.HandleRefreshSources(deps.Registry))).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/sources/{id}/channels", api(handlers.HandleSourceChannels(deps.Registry, deps.Filters))).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/sources/{id}", api(handlers.HandleGetSource(deps.Registry))).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/sources/{id}", api(handlers.HandleUpdateSource(deps.Registry))).Methods("PUT")
	router.HandleFunc("/api/sources/{id}", api(handlers.HandleDeleteSource(deps.Registry))).Methods("DELETE")

	router.HandleFunc("/api/parse", api(handlers.HandleParse())).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/handles", api(handlers.HandleRegisterHandle(deps.Config, deps.Mappings))).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/handles/{id}", api(handlers.HandleResolveHandle(deps.Config, deps.Mappings))).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/inspect", api(handlers.HandleInspect(deps.Config, deps.Fetcher))).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/stats", api(handlers.HandleStats(deps.Config, deps.Registry, deps.Mappings, deps.Started))).Methods("GET", "OPTIONS")

	// media bytes are not worth compressing
	router.HandleFunc("/api/bridge", middleware.CORSMiddleware(middleware.RelayCORS, handlers.HandleBridge(deps.Bridge))).Methods("GET", "OPTIONS")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}
