// Command cartctl is an interactive terminal storefront backed by the cart API.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/storefront/internal/authstate"
	"github.com/angelmondragon/storefront/internal/cartstore"
	"github.com/angelmondragon/storefront/pkg/cartapi"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/events"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

func main() {
	_ = godotenv.Load()

	baseURL := flag.String("api", "", "cart api base url (overrides STOREFRONT_CART_API_BASE_URL)")
	metricsAddr := flag.String("metrics-addr", "", "serve cart store metrics on this address, e.g. :9102")
	toasts := flag.String("toasts", toastsTerminal, "where notifications go: terminal or log")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// logs go to stderr so they do not interleave with the prompt
	logg := logger.New(logger.Options{
		ServiceName: "cartctl",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Output:      os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := cfg.CartAPI.BaseURL
	if *baseURL != "" {
		root = *baseURL
	}
	client, err := cartapi.NewClient(root, cartapi.WithTimeout(cfg.CartAPI.Timeout))
	if err != nil {
		logg.Error(ctx, "failed to build cart api client", err)
		os.Exit(1)
	}

	notifier, err := newNotifier(*toasts, os.Stdout, logg)
	if err != nil {
		logg.Error(ctx, "invalid -toasts flag", err)
		os.Exit(1)
	}

	registry := newRegistry()
	if *metricsAddr != "" {
		srv := newMetricsServer(*metricsAddr, registry)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logg.Error(logg.WithField(ctx, "addr", *metricsAddr), "metrics server stopped", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	bus := events.NewBus()
	opts := []cartstore.Option{cartstore.WithMetrics(metrics.NewCartMetrics(registry))}
	if cfg.CartAPI.DiscardStale {
		opts = append(opts, cartstore.WithStaleResponseGuard())
	}
	store, err := cartstore.New(client, bus, notifier, logg, opts...)
	if err != nil {
		logg.Error(ctx, "failed to build cart store", err)
		os.Exit(1)
	}

	tracker, err := authstate.NewTracker(client, bus, logg)
	if err != nil {
		logg.Error(ctx, "failed to build auth tracker", err)
		os.Exit(1)
	}
	if err := tracker.Start(ctx); err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "cart api unreachable; auth changes will be picked up on the next signal")
	}
	defer tracker.Stop()

	unsubscribe := store.Subscribe(func(snap cartstore.Snapshot) {
		if !snap.Loading {
			fmt.Println(badge(snap))
		}
	})
	defer unsubscribe()

	if err := store.Start(ctx); err != nil {
		logg.Error(ctx, "failed to start cart store", err)
		os.Exit(1)
	}
	defer store.Close(context.Background())

	sh := &shell{api: client, store: store, bus: bus, out: os.Stdout}
	fmt.Printf("connected to %s (type help for commands)\n", client.BaseURL())

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Print("> ")
		select {
		case <-ctx.Done():
			fmt.Println()
			return
		case line, ok := <-lines:
			if !ok || sh.execute(ctx, line) {
				return
			}
		}
	}
}
