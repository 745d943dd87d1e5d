/*
Package monitoring provides Prometheus metrics for the shell.

# Overview

Metrics track the session lifecycle (phase, restores, saves), action dispatch
and the quit handshake, menu registration, deployments and the HTTP API.

# Usage

	registry := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(registry)

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

A nil *Metrics is valid and records nothing, so components can run without
metrics in tests.
*/
package monitoring
