// Command hexroom starts the hex-grid road-trip game server: an admission
// queue matching Leader/Follower clients into rooms, each running its own
// tick loop, reachable over WebSocket and a small health-check HTTP surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/wricardo/hexroom/api"
	"github.com/wricardo/hexroom/eventlog"
	"github.com/wricardo/hexroom/game/engine"
	"github.com/wricardo/hexroom/game/session"
	"github.com/wricardo/hexroom/roomconfig"
	"github.com/wricardo/hexroom/transport/websocket"
)

const (
	Version = "1.0.0"
	AppName = "Hex Road Trip Game Server"
)

var (
	configPath   = flag.String("config", getConfigPathDefault(), "Path to the server configuration JSON file")
	mapName      = flag.String("map", "classic", "Name of the map definition to serve (looked up under the assets directory)")
	bootAfter    = flag.Duration("boot-after", 6*time.Minute, "How long a queued client waits before being booted from the queue")
	maxOpenRooms = flag.Int("max-open-rooms", 0, "Cap on simultaneously open (not yet full) rooms; 0 means unlimited")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
)

// getConfigPathDefault honors the CONFIG_PATH environment variable, then
// falls back to "config.json" in the working directory.
func getConfigPathDefault() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.json"
}

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}

	cfg, err := loadConfiguration(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	sink, err := newEventSink(cfg)
	if err != nil {
		log.Fatalf("failed to open event sink: %v", err)
	}

	mapFactory, err := newMapFactory(cfg, *mapName)
	if err != nil {
		log.Fatalf("failed to load map %q: %v", *mapName, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := session.NewManager(ctx, mapFactory, sink, *bootAfter, *maxOpenRooms)
	go manager.Run(ctx)

	srv := api.NewServer(websocket.NewServer(manager))

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("%s v%s listening on %s", AppName, Version, addr)
		log.Printf("health check: http://localhost%s/healthz", addr)
		log.Printf("websocket: ws://localhost%s/ws", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	sig := <-stop
	log.Printf("received signal: %v, shutting down", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("server stopped")
}

// loadConfiguration reads path if it exists, falling back to
// roomconfig.Default() so the server starts with no configuration file
// present at all.
func loadConfiguration(path string) (roomconfig.Configuration, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("no configuration file at %s, using defaults", path)
		return roomconfig.Default(), nil
	}
	return roomconfig.Load(path)
}

// newEventSink opens the persisted event stream under cfg's record
// directory, creating the directory if needed.
func newEventSink(cfg roomconfig.Configuration) (eventlog.Sink, error) {
	dir := cfg.RecordDirectory()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create record directory %s: %w", dir, err)
	}
	return eventlog.NewFileSink(filepath.Join(dir, "events.jsonl"))
}

// newMapFactory loads the named map definition once at startup and returns
// a factory building a fresh provider (and its own random card placement)
// for each new room.
func newMapFactory(cfg roomconfig.Configuration, name string) (session.MapFactory, error) {
	mgr := roomconfig.NewManager(cfg.AssetsDirectory())
	def, err := mgr.LoadMapDefinition(name)
	if err != nil {
		return nil, err
	}
	var seedCounter int64
	var mu sync.Mutex
	return func() engine.MapProvider {
		mu.Lock()
		seed := seedCounter
		seedCounter++
		mu.Unlock()
		return def.NewMapProvider(engine.NewIdAssigner(), seed)
	}, nil
}
