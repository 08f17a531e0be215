// Command seal-server runs the key-server control plane: it serves
// POST /v1/fetch_key and GET /v1/service over HTTP, backed by a
// prometheus metrics endpoint and structured logging.
package main

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sealhq/core/internal/keyserver"
	"github.com/sealhq/core/internal/ptb"
	"github.com/sealhq/core/pkg/curve"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatal("seal-server exiting", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	masterKeyB64 := os.Getenv("MASTER_KEY")
	if masterKeyB64 == "" {
		return fmt.Errorf("MASTER_KEY must be set")
	}
	objectIDHex := os.Getenv("KEY_SERVER_OBJECT_ID")
	if objectIDHex == "" {
		return fmt.Errorf("KEY_SERVER_OBJECT_ID must be set")
	}
	networkStr := os.Getenv("NETWORK")
	if networkStr == "" {
		networkStr = "testnet"
	}

	mskBytes, err := base64.StdEncoding.DecodeString(masterKeyB64)
	if err != nil {
		return fmt.Errorf("MASTER_KEY should be base64 encoded: %w", err)
	}
	var msk curve.Scalar
	if err := msk.SetBytes(mskBytes); err != nil {
		return fmt.Errorf("invalid MASTER_KEY value: %w", err)
	}

	objIDBytes, err := hex.DecodeString(trimHexPrefix(objectIDHex))
	if err != nil || len(objIDBytes) != 32 {
		return fmt.Errorf("invalid KEY_SERVER_OBJECT_ID: %w", err)
	}
	var objID ptb.ObjectID
	copy(objID[:], objIDBytes)

	network, err := keyserver.NetworkFromString(networkStr)
	if err != nil {
		return err
	}

	logger.Info("logging set up, setting up metrics")
	registry := prometheus.NewRegistry()
	metrics := keyserver.NewPrometheusRecorder(registry)

	logger.Info("metrics set up, starting service")
	chain := keyserver.NewHTTPChainClient(network)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	server, err := keyserver.NewServer(ctx, keyserver.Config{
		MasterKey:         msk,
		KeyServerObjectID: objID,
		Network:           network,
		Chain:             chain,
		Metrics:           metrics,
	})
	if err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	logger.Info("background updaters populated, server ready")

	mux := keyserver.NewMux(server, zapRequestLogger{logger})

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	httpServer := &http.Server{Addr: ":2024", Handler: corsAllowAll(mux)}
	metricsServer := &http.Server{Addr: ":9184", Handler: metricsMux}

	errCh := make(chan error, 2)
	go func() { errCh <- httpServer.ListenAndServe() }()
	go func() { errCh <- metricsServer.ListenAndServe() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sig:
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
		_ = metricsServer.Shutdown(shutdownCtx)
		return nil
	}
}

// corsAllowAll mirrors the reference server's permissive CORS policy
// (any origin, method, header) appropriate for a public key-fetching
// API whose authorization is carried in the request body, not cookies.
func corsAllowAll(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type zapRequestLogger struct {
	logger *zap.Logger
}

func (z zapRequestLogger) LogRequest(requestID, sdkVersion, sdkType, targetAPIVersion string) {
	z.logger.Debug("fetch_key request",
		zap.String("request_id", requestID),
		zap.String("client_sdk_version", sdkVersion),
		zap.String("client_sdk_type", sdkType),
		zap.String("client_target_api_version", targetAPIVersion),
	)
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
