// Command windexd runs a standalone winx indexer behind a small demo HTTP
// surface: one route ("echo") that just uppercases whatever JSON body a
// client posts, so the chunk-assembly and shard-ordering machinery has
// something real to exercise without a production replicated-log client.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/pebble"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/windexdb/winx"
	"github.com/windexdb/winx/httpdispatch"
	"github.com/windexdb/winx/route"
	"github.com/windexdb/winx/store/pebblestore"
	"github.com/windexdb/winx/winxmetrics"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "windexd",
		Short: "winx write indexer",
		RunE:  runServe,
	}
	bindFlags(cmd)
	cmd.AddCommand(newReplCmd())
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, dataDir, addr, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := pebble.Open(dataDir, &pebble.Options{})
	if err != nil {
		return fmt.Errorf("open pebble: %w", err)
	}
	pstore := pebblestore.Wrap(db)
	winxmetrics.MustRegister(prometheusDefaultRegisterer())
	prometheusDefaultRegisterer().MustRegister(pebblestore.NewCollector(db))

	routes := route.StaticTable{
		echoRouteHash: {Handler: echoHandler, AsyncRes: false},
	}
	disp := httpdispatch.New()

	idx := winx.New(pstore, routes, disp, cfg)
	idx.Start()
	defer idx.Close()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/v1/write", newWriteHandler(idx, disp))
	mux.HandleFunc("/v1/snapshot", newSnapshotHandler(idx))

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintln(os.Stderr, "serve:", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), writeShutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
