// Command oxy-anim evaluates an animation graph document against a motion set and reports
// what the graph does tick by tick, as plain output or in a live terminal inspector.
//
//	oxy-anim -graph locomotion.yaml -motions biped.glb -scenario walk.yaml -ticks 180
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/common"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}

	logOut := stderr
	if cfg.TUI {
		logOut = io.Discard
	}
	common.SetLogger(cfg.NewLogger(logOut))
	log := common.ComponentLogger("oxy-anim")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		srv, err := serveMetrics(cfg.MetricsAddr)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info("serving metrics", "addr", cfg.MetricsAddr)
	}

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()
	log.Info("graph loaded",
		"graph", rt.graph.Name(), "nodes", rt.graph.NumNodes(),
		"motions", len(rt.set.Motions.IDs()), "bones", rt.set.Skeleton.NumBones(), "actors", cfg.Actors)

	var last Snapshot
	if cfg.TUI {
		if err := runTUI(ctx, rt); err != nil {
			return err
		}
	} else {
		printer := tickPrinter{w: stdout, every: cfg.PrintEvery}
		rt.sink = func(s Snapshot) {
			last = s
			printer.Print(s)
		}
		err := rt.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		fmt.Fprintln(stdout, renderSummary(last))
	}

	return rt.Plot()
}

// serveMetrics exposes the default prometheus registry on addr.
func serveMetrics(addr string) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.ComponentLogger("oxy-anim").Error("metrics server stopped", "error", err)
		}
	}()
	return srv, nil
}
