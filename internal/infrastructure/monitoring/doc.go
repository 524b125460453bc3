/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the Lumos
backend, tracking HTTP requests, relay traffic, proxy fetches, and system
metrics.

# Features

- HTTP request metrics (latency, throughput, size)
- WebSocket connection and session gauges
- Per-event relay counters (routed, dropped)
- Proxy fetch metrics (status, duration)
- System metrics (uptime)

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record relay traffic
	metrics.RecordEventRelayed("apply-style", "studio")
	metrics.IncWSConnections()

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
