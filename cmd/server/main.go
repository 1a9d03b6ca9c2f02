package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/boothsync/backend/internal/asset"
	"github.com/boothsync/backend/internal/config"
	"github.com/boothsync/backend/internal/frontend"
	"github.com/boothsync/backend/internal/health"
	"github.com/boothsync/backend/internal/launcher"
	"github.com/boothsync/backend/internal/mock"
	"github.com/boothsync/backend/internal/session"
	"github.com/boothsync/backend/internal/watcher"
	"github.com/boothsync/backend/internal/ws"
)

// The watcher must keep satisfying the server's tracker interface.
var _ ws.AssetTracker = (*watcher.Watcher)(nil)

func main() {
	mockMode := flag.Bool("mock", false, "Simulate booth event cycles instead of waiting for hooks")
	devMode := flag.Bool("dev", false, "Development mode (serve frontend from filesystem)")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *port > 0 {
		cfg.Server.Port = *port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := session.NewStore()
	broadcaster := ws.NewBroadcaster(store, cfg.Broadcast.Throttle, cfg.Broadcast.SnapshotInterval)

	runner := launcher.New(cfg.Scripts.Dir)
	runner.OnError = func(msg string) {
		store.SetError(msg)
		broadcaster.QueueState()
	}
	runner.Start(ctx)

	machine := session.NewMachine(store, runner, cfg.Scripts.Start, cfg.Scripts.Actions)

	assetWatch := watcher.New(func(path string, exists bool) {
		log.Printf("asset %s exists=%v", path, exists)
		broadcaster.QueueState()
	})

	server := ws.NewServer(store, machine, asset.NewGate(cfg.Assets.ContentType), broadcaster, cfg.Server)
	server.SetAssetTracker(assetWatch)
	server.SetHealthSource(health.NewCollector(cfg.Scripts.Dir))
	server.SetFrontend(cfg.Frontend.Dir, *devMode, frontend.Handler())

	if *mockMode {
		log.Println("Starting in mock mode")
		dir, err := os.MkdirTemp("", "booth-mock-*")
		if err != nil {
			log.Fatalf("Failed to create mock asset dir: %v", err)
		}
		gen := mock.NewGenerator(machine, broadcaster, dir)
		gen.Start(ctx)
	}

	mux := http.NewServeMux()
	server.SetupRoutes(mux)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		assetWatch.Shutdown()
		cancel()
		os.Exit(0)
	}()

	if err := ws.ListenAndServe(cfg.Server.Host, cfg.Server.Port, server.CORS(mux)); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
