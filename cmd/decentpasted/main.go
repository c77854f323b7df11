// Command decentpasted runs the DecentPaste synchronization core as a
// headless daemon: vault, pairing state machine, overlay manager, sync
// engine, and shared state, wired together and driven by signals.
package main

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/decentpaste/decentpaste/internal/appstate"
	"github.com/decentpaste/decentpaste/internal/bridge"
	"github.com/decentpaste/decentpaste/internal/corelog"
	"github.com/decentpaste/decentpaste/internal/overlay"
	"github.com/decentpaste/decentpaste/internal/pairing"
	"github.com/decentpaste/decentpaste/internal/settings"
	"github.com/decentpaste/decentpaste/internal/syncengine"
	"github.com/decentpaste/decentpaste/internal/vaultstore"
)

const overlayIdentityFileName = "overlay_identity.key"

var (
	dataDir    string
	logLevel   string
	foreground bool
)

func main() {
	root := &cobra.Command{
		Use:   "decentpasted",
		Short: "DecentPaste peer-to-peer clipboard sync daemon",
		RunE:  run,
	}
	root.Flags().StringVar(&dataDir, "data-dir", defaultDataDir(), "directory holding the vault, settings, and overlay identity")
	root.Flags().StringVar(&logLevel, "log-level", "info", "debug, info, warn, or error")
	root.Flags().BoolVar(&foreground, "foreground", false, "run attached instead of daemonizing")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "decentpaste")
	}
	return ".decentpaste"
}

func run(cmd *cobra.Command, args []string) error {
	corelog.SetLevel(logLevel)
	log := corelog.New("main")

	if !foreground && os.Getenv("DECENTPASTE_FOREGROUND") != "1" {
		return daemonize()
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	vault := vaultstore.New(dataDir)
	store := settings.NewStore(dataDir)
	appSettings, err := store.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	// The overlay's libp2p host identity is a separate concern from
	// DeviceIdentity: it must exist before the vault is ever set up (so the
	// daemon can discover and be discovered pre-pairing), so it is bootstrapped
	// from its own file outside the vault per the wire-formats contract. The
	// daemon does not copy it into the vault's OverlayKeypair slot.
	identityKey, err := loadOrCreateOverlayIdentity(dataDir)
	if err != nil {
		return fmt.Errorf("load overlay identity: %w", err)
	}

	ov, err := overlay.NewManager("", appSettings.DeviceName, identityKey, 256)
	if err != nil {
		return fmt.Errorf("start overlay manager: %w", err)
	}
	if err := persistOverlayIdentity(dataDir, ov.Identity()); err != nil {
		log.Warnf("failed to persist overlay identity: %v", err)
	}

	ttl := time.Duration(appSettings.SyncTTLSeconds) * time.Second
	buffers := syncengine.NewOfflineBuffers(appSettings.SyncMaxBufferSize, ttl)
	ov.SetSyncProvider(buffers)
	echo := syncengine.NewEchoGuard()
	pm := pairing.NewManager()

	state := appstate.New(ov.Commands(), vault, store, buffers, echo)
	if err := state.SetSettings(appSettings); err != nil {
		return fmt.Errorf("apply settings: %w", err)
	}
	if vault.Exists() {
		state.SetVaultStatus(vaultstore.Locked)
	}

	br := bridge.New(state, ov, pm, vault, store, dataDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Infof("shutting down")
		cancel()
	}()

	go ov.Run(ctx)
	go br.Run(ctx)
	go drainEvents(ctx, br, log)

	br.StartNetwork()
	log.Infof("decentpasted listening, data dir %s", dataDir)

	<-ctx.Done()

	state.FlushAll()
	if vault.Status() == vaultstore.Unlocked {
		_ = vault.Lock()
	}
	return nil
}

// drainEvents consumes the bridge's frontend-facing event stream. A real
// frontend transport would forward these over IPC; here they are logged so
// the daemon is independently observable without one.
func drainEvents(ctx context.Context, br *bridge.Bridge, log *corelog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-br.Events():
			if !ok {
				return
			}
			log.Debugf("event %s peer=%s", ev.Kind, ev.Peer)
		}
	}
}

func loadOrCreateOverlayIdentity(dataDir string) (ed25519.PrivateKey, error) {
	path := filepath.Join(dataDir, overlayIdentityFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return ed25519.PrivateKey(data), nil
}

func persistOverlayIdentity(dataDir string, key ed25519.PrivateKey) error {
	if len(key) == 0 {
		return nil
	}
	path := filepath.Join(dataDir, overlayIdentityFileName)
	if _, err := os.Stat(path); err == nil {
		return nil // already persisted from a prior run
	}
	return os.WriteFile(path, key, 0o600)
}
