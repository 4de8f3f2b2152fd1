// Package testdata provides utilities for generating sample metrics data
// to test Grafana dashboards without using real production data.
//
// The erpd.mcp.* and erpd.http.* families are emitted here in the
// underscore form a Prometheus fed through the OTel collector sees;
// erpd_frappe_* matches the client's native Prometheus metrics.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics for testing dashboards
var (
	// Backend client metrics
	frappeRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erpd_frappe_requests_total",
			Help: "Total number of backend HTTP requests",
		},
		[]string{"method", "status"},
	)
	frappeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "erpd_frappe_request_duration_seconds",
			Help:    "Duration of backend HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// MCP tool metrics
	toolInvocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erpd_mcp_tool_invocations_total",
			Help: "Total number of MCP tool invocations",
		},
		[]string{"tool"},
	)
	toolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "erpd_mcp_tool_duration_seconds",
			Help:    "Duration of MCP tool invocations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"tool"},
	)
	toolErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erpd_mcp_tool_errors_total",
			Help: "Total number of failed MCP tool invocations by error code",
		},
		[]string{"tool", "code"},
	)
	toolActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "erpd_mcp_tool_active_requests",
			Help: "Number of currently active MCP tool requests",
		},
		[]string{"tool"},
	)

	// HTTP sidecar metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erpd_http_requests_total",
			Help: "Total HTTP requests handled by the sidecar",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "erpd_http_request_duration_seconds",
			Help:    "Sidecar HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

var (
	tools = []string{
		"auth_connect", "auth_status", "doc_replace_table", "link_autocomplete",
		"file_upload", "comment_add", "lead_create", "quotation_create",
		"sales_order_create", "lead_convert", "sales_pipeline",
	}
	errorCodes    = []string{"AUTH_FAILED", "INVALID_DOCTYPE", "FIELD_ERROR", "NOT_FOUND", "PERMISSION_DENIED"}
	httpMethods   = []string{"GET", "POST", "PUT", "DELETE"}
	statusClasses = []string{"2xx", "2xx", "2xx", "4xx", "5xx", "error"}
)

func init() {
	prometheus.MustRegister(
		frappeRequests,
		frappeDuration,
		toolInvocations,
		toolDuration,
		toolErrors,
		toolActive,
		httpRequestsTotal,
		httpRequestDuration,
	)
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "9091"
	}

	// Generate initial sample data
	generateSampleData()

	// Start background goroutine to continuously generate data
	ctx, cancel := context.WithCancel(context.Background())
	go generateContinuousData(ctx)

	// Serve metrics
	http.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    ":" + port,
		Handler: nil,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		cancel()
		server.Shutdown(context.Background())
	}()

	fmt.Printf("Sample metrics server running on http://localhost:%s/metrics\n", port)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println("\nTo use with Prometheus, add this to prometheus.yml:")
	fmt.Printf("  - job_name: 'erpd-test'\n    static_configs:\n      - targets: ['localhost:%s']\n", port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

func generateSampleData() {
	// Backend traffic: mostly reads, a few failures
	for i := 0; i < 200; i++ {
		method := randomChoice(httpMethods)
		frappeRequests.WithLabelValues(method, randomChoice(statusClasses)).Inc()
		frappeDuration.WithLabelValues(method).Observe(rand.Float64() * 0.8)
	}

	// Tool traffic weighted toward reads and comments
	for i := 0; i < 150; i++ {
		tool := randomChoice(tools)
		toolInvocations.WithLabelValues(tool).Inc()
		toolDuration.WithLabelValues(tool).Observe(rand.Float64() * 1.5)
	}
	for i := 0; i < 20; i++ {
		toolErrors.WithLabelValues(randomChoice(tools), randomChoice(errorCodes)).Inc()
	}
	for _, tool := range tools {
		toolActive.WithLabelValues(tool).Set(float64(rand.Intn(3)))
	}

	// Sidecar probes
	endpoints := []string{"/health", "/ready", "/metrics"}
	for i := 0; i < 300; i++ {
		endpoint := randomChoice(endpoints)
		status := "200"
		if endpoint == "/ready" && rand.Float64() > 0.8 {
			status = "503"
		}
		httpRequestsTotal.WithLabelValues("GET", endpoint, status).Inc()
		httpRequestDuration.WithLabelValues("GET", endpoint).Observe(rand.Float64() * 0.01)
	}
}

func generateContinuousData(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if rand.Float64() > 0.3 {
				method := randomChoice(httpMethods)
				frappeRequests.WithLabelValues(method, randomChoice(statusClasses)).Inc()
				frappeDuration.WithLabelValues(method).Observe(rand.Float64() * 0.8)
			}
			if rand.Float64() > 0.4 {
				tool := randomChoice(tools)
				toolInvocations.WithLabelValues(tool).Inc()
				toolDuration.WithLabelValues(tool).Observe(rand.Float64() * 1.5)
				if rand.Float64() > 0.85 {
					toolErrors.WithLabelValues(tool, randomChoice(errorCodes)).Inc()
				}
			}

			// Liveness probes arrive on a steady cadence
			httpRequestsTotal.WithLabelValues("GET", "/health", "200").Inc()
			httpRequestDuration.WithLabelValues("GET", "/health").Observe(rand.Float64() * 0.01)

			for _, tool := range tools {
				toolActive.WithLabelValues(tool).Set(float64(rand.Intn(3)))
			}
		}
	}
}

func randomChoice(choices []string) string {
	return choices[rand.Intn(len(choices))]
}
