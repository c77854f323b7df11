// Command decentpaste-relay runs a standalone libp2p circuit-relay-v2 host:
// the optional internet-reachability collaborator named in the core spec's
// external-interfaces section. It has no knowledge of clipboard content,
// pairing, or any device identity — it only relays already-encrypted
// traffic between two peers that can't reach each other directly.
package main

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/libp2p/go-libp2p"
	p2pcrypto "github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/p2p/protocol/circuitv2/relay"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/decentpaste/decentpaste/internal/corelog"
)

const (
	version             = "1.0.0"
	maxReservationsPerPeer = 10
	maxCircuitDuration     = 30 * time.Minute
)

var (
	identityFile string
	listenAddr   string
	httpAddr     string
	logLevel     string
)

func main() {
	root := &cobra.Command{
		Use:   "decentpaste-relay",
		Short: "Standalone DecentPaste circuit-relay-v2 server",
		RunE:  run,
	}
	root.Flags().StringVar(&identityFile, "identity-file", "./relay_identity.key", "path to the persisted Ed25519 relay identity")
	root.Flags().StringVar(&listenAddr, "listen", "/ip4/0.0.0.0/tcp/4001", "libp2p listen multiaddr")
	root.Flags().StringVar(&httpAddr, "http-addr", ":8080", "address for the /health and /info HTTP surface")
	root.Flags().StringVar(&logLevel, "log-level", "info", "debug, info, warn, or error")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	corelog.SetLevel(logLevel)
	log := corelog.New("relay")

	key, err := loadOrCreateIdentity(identityFile)
	if err != nil {
		return fmt.Errorf("load relay identity: %w", err)
	}
	priv, err := p2pcrypto.UnmarshalEd25519PrivateKey(key)
	if err != nil {
		return fmt.Errorf("unmarshal relay identity: %w", err)
	}

	host, err := libp2p.New(
		libp2p.Identity(priv),
		libp2p.ListenAddrStrings(listenAddr),
		libp2p.EnableRelayService(relay.WithResources(relay.Resources{
			MaxReservations:        128,
			MaxReservationsPerPeer: maxReservationsPerPeer,
			MaxCircuits:            16,
			BufferSize:             2048,
			MaxCircuitDuration:     maxCircuitDuration,
		})),
	)
	if err != nil {
		return fmt.Errorf("start relay host: %w", err)
	}
	defer host.Close()

	log.Infof("relay peer id %s listening on %s", host.ID(), listenAddr)

	limiter := rate.NewLimiter(rate.Limit(20), 40)
	srv := &http.Server{Addr: httpAddr, Handler: httpRouter(host.ID().String(), limiter)}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("http server: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Infof("shutting down relay")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

func httpRouter(peerID string, limiter *rate.Limiter) http.Handler {
	r := chi.NewRouter()
	r.Use(rateLimit(limiter))
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/info", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"peer_id": peerID,
			"version": version,
		})
	})
	return r
}

func rateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func loadOrCreateIdentity(path string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return ed25519.PrivateKey(data), nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
	}
	if err := os.WriteFile(path, priv, 0o600); err != nil {
		return nil, err
	}
	return priv, nil
}
