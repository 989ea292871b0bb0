package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/windexdb/winx"
	"github.com/windexdb/winx/httpdispatch"
	"github.com/windexdb/winx/protocol"
)

// echoRouteHash is the demo route's fixed route_hash; it is not derived
// from any route name.
const echoRouteHash uint64 = 1

func echoHandler(_ context.Context, req *protocol.Request, res *protocol.Response) error {
	res.StatusCode = http.StatusOK
	res.Body = bytes.ToUpper([]byte(req.Body))
	req.Body = ""
	return nil
}

// newWriteHandler exposes Indexer.Enqueue over HTTP: one POST per chunk,
// with req_id/last/collection carried as query parameters — a stand-in
// for the framed multi-chunk protocol a real replicated-log client speaks.
func newWriteHandler(idx *winx.Indexer, disp *httpdispatch.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID, _ := strconv.ParseUint(r.URL.Query().Get("req_id"), 10, 64)
		last := r.URL.Query().Get("last") == "true"
		collection := r.URL.Query().Get("collection")

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		corrID, proceed, response := disp.Register()
		ctx := context.WithValue(r.Context(), httpdispatch.CorrelationKey{}, corrID)

		if err := idx.Enqueue(ctx, winx.ReqID(reqID), echoRouteHash, collection, body, last, true, 0); err != nil {
			disp.Forget(corrID)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		select {
		case res := <-response:
			httpdispatch.WriteResponse(w, res)
		case <-proceed:
			w.WriteHeader(http.StatusAccepted)
		case <-time.After(30 * time.Second):
			disp.Forget(corrID)
			http.Error(w, "timeout waiting for worker", http.StatusGatewayTimeout)
		case <-ctx.Done():
			disp.Forget(corrID)
		}
	}
}

func newSnapshotHandler(idx *winx.Indexer) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		data := idx.Snapshot()
		if data == nil {
			http.Error(w, "snapshot failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	}
}

func prometheusDefaultRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}
