package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shpitdev/cast-image-enricher/pkg/mocktmdb"
)

func main() {
	addr := defaultString("MOCK_TMDB_ADDR", ":8080")
	fixtures := defaultString("MOCK_TMDB_FIXTURES", "")
	apiKey := defaultString("MOCK_TMDB_API_KEY", "")

	fs := flag.NewFlagSet("mock-tmdb", flag.ExitOnError)
	fs.StringVar(&addr, "addr", addr, "Listen address (env: MOCK_TMDB_ADDR)")
	fs.StringVar(&fixtures, "fixtures", fixtures, "YAML file mapping query -> fixture (env: MOCK_TMDB_FIXTURES)")
	fs.StringVar(&apiKey, "api-key", apiKey, "Reject requests without this api_key (env: MOCK_TMDB_API_KEY)")
	_ = fs.Parse(os.Args[1:])

	srv := mocktmdb.New()
	srv.RequireAPIKey(apiKey)
	if fixtures != "" {
		if err := srv.LoadFixtures(fixtures); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "fixtures error: %v\n", err)
			os.Exit(2)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, addr, srv.Handler()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// serve runs the HTTP server until ctx is done, then drains in-flight requests.
func serve(ctx context.Context, addr string, h http.Handler) error {
	httpSrv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, _ = fmt.Fprintf(os.Stdout, "mock-tmdb listening on %s\n", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func defaultString(envVar string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(envVar))
	if v == "" {
		return fallback
	}
	return v
}
