// Command edge-server runs one zone's edge coordinator: the physics
// validation gate, the Vickrey VTS auction, the predictive-sync rollback
// engine, and the cross-zone failsafe/handoff supervisor, fronted by a
// gRPC peer-coordination listener and a read-only HTTP admin surface.
package main

import (
	"context"
	"encoding/hex"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/ocx/edge-coordinator/internal/api"
	"github.com/ocx/edge-coordinator/internal/cache"
	"github.com/ocx/edge-coordinator/internal/config"
	"github.com/ocx/edge-coordinator/internal/coordination"
	"github.com/ocx/edge-coordinator/internal/identity"
	"github.com/ocx/edge-coordinator/internal/monitoring"
	"github.com/ocx/edge-coordinator/internal/transport"
	"github.com/ocx/edge-coordinator/pb"
)

func main() {
	cfg := config.Get()

	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("starting edge coordinator", "zone_id", cfg.Zone.ZoneID, "zone_name", cfg.Zone.Name, "env", cfg.Server.Env)

	runtime := coordination.NewEdgeRuntime(cfg.Zone.ZoneID)
	handoffs := coordination.NewDefaultHandoffManager(cfg.Zone.ZoneID)

	staleAfterNs := uint64(cfg.Failsafe.HeartbeatTimeoutMs) * 1_000_000 * 10
	aggregator := coordination.NewGlobalAggregator(staleAfterNs)
	runtime.SetAggregator(aggregator)

	if cfg.Monitoring.Enabled {
		runtime.SetMetrics(monitoring.NewMetrics())
	}

	var spiffeVerifier *identity.SPIFFEVerifier
	if v, err := identity.NewSPIFFEVerifier(cfg.Security.SPIFFESocketPath); err != nil {
		slog.Warn("spiffe workload api unavailable, falling back to insecure transport", "error", err, "socket", cfg.Security.SPIFFESocketPath)
	} else {
		spiffeVerifier = v
		defer spiffeVerifier.Close()
	}

	for _, peer := range cfg.Peers {
		runtime.RegisterEdge(peer.EdgeID)
		peerClient, err := coordination.DialPeer(peer.Address, peer.EdgeID, spiffeVerifier)
		if err != nil {
			slog.Warn("failed to dial peer edge", "error", err, "edge_id", peer.EdgeID, "address", peer.Address)
			continue
		}
		runtime.RegisterPeer(peer.EdgeID, peerClient)
		defer peerClient.Close()
	}

	var store cache.Store
	if cfg.Cache.Enabled {
		redisStore, err := cache.NewRedisStore(cfg.Cache.RedisAddr, "", cfg.Cache.RedisDB)
		if err != nil {
			slog.Warn("redis unavailable, falling back to in-memory cache", "error", err)
			store = cache.NewMemoryStore()
		} else {
			store = redisStore
			defer redisStore.Close()
		}
	} else {
		store = cache.NewMemoryStore()
	}
	nonceGuard := cache.NewNonceGuard(store, time.Duration(cfg.Security.NonceTTLSec)*time.Second)
	_ = nonceGuard // not passed to the gRPC server, which screens requests with its own security.ReplayGuard

	var pubsub cache.PubSub
	if redisStore, ok := store.(*cache.RedisStore); ok {
		pubsub = redisStore
	}
	events := cache.NewEventBus(pubsub, "zone."+cfg.Zone.Name)
	defer events.Close()

	var streamer *transport.Streamer
	if cfg.Monitoring.EnableLiveStream {
		streamer = transport.NewStreamer(nil)
		go streamer.Run()
	}

	var grpcOpts []grpc.ServerOption
	if spiffeVerifier != nil {
		tlsConf, err := spiffeVerifier.GetServerTLSConfig()
		if err != nil {
			slog.Warn("failed to build spiffe server tls config, falling back to insecure transport", "error", err)
		} else {
			grpcOpts = append(grpcOpts, grpc.Creds(credentials.NewTLS(tlsConf)))
		}
	}
	grpcServer := grpc.NewServer(grpcOpts...)
	coordServer := coordination.NewGRPCServer(runtime.FailsafeManager(), handoffs)
	coordServer.SetEventBus(events)
	pb.RegisterCoordinationServiceServer(grpcServer, coordServer)

	grpcLis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
	if err != nil {
		slog.Error("failed to bind grpc listener", "error", err, "port", cfg.Server.GRPCPort)
		os.Exit(1)
	}
	go func() {
		slog.Info("grpc coordination listener started", "addr", grpcLis.Addr().String())
		if err := grpcServer.Serve(grpcLis); err != nil {
			slog.Error("grpc server stopped", "error", err)
		}
	}()

	adminServer := api.NewServer(runtime).WithAggregator(aggregator)
	mux := adminServer.Router()
	if streamer != nil {
		mux.HandleFunc("/ws/deltatick", streamer.ServeHTTP)
	}

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Server.HTTPPort,
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSec) * time.Second,
	}
	go func() {
		slog.Info("admin http listener started", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server stopped", "error", err)
		}
	}()

	go tickLoop(runtime, streamer)
	go peerHeartbeatLoop(runtime, cfg.Peers, time.Duration(cfg.Failsafe.HeartbeatTimeoutMs)*time.Millisecond/2)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down edge coordinator")
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	httpSrv.Shutdown(ctx)
	grpcServer.GracefulStop()
}

// peerHeartbeatLoop pings every configured peer edge on a fixed interval so
// each side's FailsafeManager sees fresh liveness and the circuit breakers
// guarding RequestPeerHandoff stay closed under normal conditions.
func peerHeartbeatLoop(runtime *coordination.EdgeRuntime, peers []config.PeerEdge, period time.Duration) {
	if period <= 0 {
		period = 500 * time.Millisecond
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for now := range ticker.C {
		timestampNs := uint64(now.UnixNano())
		for _, peer := range peers {
			if _, ok := runtime.PeerClientFor(peer.EdgeID); !ok {
				continue
			}
			if _, err := runtime.PingPeer(context.Background(), peer.EdgeID, timestampNs); err != nil {
				slog.Warn("peer heartbeat failed", "error", err, "edge_id", peer.EdgeID)
			}
		}
	}
}

// tickLoop advances the runtime at the configured tick period, publishing
// a DeltaTickFrame to the websocket stream each tick. Robot state reports
// and motion commands arrive independently via the admin HTTP surface
// and the robot SDK; tickLoop only drives periodic bookkeeping (snapshots,
// ticket expiry) and observability.
func tickLoop(runtime *coordination.EdgeRuntime, streamer *transport.Streamer) {
	cfg := config.Get()
	period := time.Duration(cfg.Zone.TickPeriodMs) * time.Millisecond
	if period <= 0 {
		period = 50 * time.Millisecond
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for now := range ticker.C {
		timestampNs := uint64(now.UnixNano())
		runtime.Tick(timestampNs)

		if action := runtime.CheckFailsafe(timestampNs); action.Kind != coordination.ActionNone {
			slog.Warn("failsafe action triggered", "kind", action.Kind, "zone_id", runtime.ZoneID())
		}

		if streamer != nil {
			world := runtime.WorldState()
			hash := world.ComputeHash()
			streamer.Publish(transport.DeltaTickFrame{
				ZoneID:      runtime.ZoneID(),
				Tick:        runtime.CurrentTick(),
				TimestampNs: timestampNs,
				Robots:      world.Robots,
				StateHash:   hex.EncodeToString(hash[:]),
			})
		}
	}
}
