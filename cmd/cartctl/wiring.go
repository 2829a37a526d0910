package main

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront/internal/cartstore"
	"github.com/angelmondragon/storefront/internal/notify"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const (
	toastsTerminal = "terminal"
	toastsLog      = "log"
)

// newNotifier picks where store notifications go. "log" suits scripted runs
// where stdout is piped and toasts belong next to the structured log lines.
func newNotifier(mode string, out io.Writer, logg *logger.Logger) (cartstore.Notifier, error) {
	switch mode {
	case "", toastsTerminal:
		return notify.NewWriter(out), nil
	case toastsLog:
		return notify.NewLogger(logg), nil
	default:
		return nil, fmt.Errorf("unknown toast sink %q (want %s or %s)", mode, toastsTerminal, toastsLog)
	}
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func newMetricsServer(addr string, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
