// Command arenad runs the match runtime core: matchmaker, session
// manager, fog enforcer, order validator/APM limiter, and rating
// engine, fronted by the agent/spectator websocket protocol and an
// ops HTTP surface (health, metrics, queue inspection).
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jediswimmer/ironcurtain/internal/agent"
	"github.com/jediswimmer/ironcurtain/internal/config"
	"github.com/jediswimmer/ironcurtain/internal/match"
	"github.com/jediswimmer/ironcurtain/internal/ops"
	"github.com/jediswimmer/ironcurtain/internal/orders"
	"github.com/jediswimmer/ironcurtain/internal/orders/audit"
	"github.com/jediswimmer/ironcurtain/internal/persist"
	"github.com/jediswimmer/ironcurtain/internal/queue"
	"github.com/jediswimmer/ironcurtain/internal/simulator"
	"github.com/jediswimmer/ironcurtain/internal/telemetry"
	"github.com/jediswimmer/ironcurtain/internal/transport"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (defaults applied when absent)")
	debug := flag.Bool("debug", false, "use a development logger")
	flag.Parse()

	log, err := telemetry.NewLogger(*debug)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal("load config", zap.Error(err))
		}
		cfg = loaded
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := telemetry.NewPrometheusMetrics()

	var registry agent.Registry
	if cfg.PostgresDSN != "" {
		pg, err := agent.NewPostgresRegistry(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal("connect agent registry", zap.Error(err))
		}
		registry = pg
		defer pg.Close()
	} else {
		log.Warn("no postgres_dsn configured, agent registry is unavailable")
	}

	var verifier *agent.TokenVerifier
	if cfg.JWTSecret != "" {
		verifier = agent.NewTokenVerifier(cfg.JWTSecret)
	} else {
		log.Warn("no jwt_secret configured, identify tokens are not verified")
	}

	var publisher persist.Publisher = persist.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := persist.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, 50)
		publisher = kp
		defer kp.Close()
	}

	var archive orders.Archiver
	if cfg.SQLiteAuditPath != "" {
		sa, err := audit.OpenSQLiteArchive(cfg.SQLiteAuditPath)
		if err != nil {
			log.Fatal("open audit archive", zap.Error(err))
		}
		archive = sa
		defer sa.Close()
	}
	auditLog := orders.NewAuditLog(orders.DefaultAuditCap, archive)

	simRegistry := simulator.NewRegistry(log)

	mgr := match.NewManager(cfg, log, metrics, simRegistry, auditLog, publisher, registry, verifier)

	var posCache queue.PositionCache
	if cfg.RedisAddr != "" {
		rc := queue.NewRedisCache(cfg.RedisAddr, cfg.Matchmaker.WideningInterval*6)
		posCache = rc
		defer rc.Close()
	}

	onQueueTimeout := func(agentID string, mode config.Mode) {
		log.Info("queue wait timeout, entry cancelled", zap.String("agent_id", agentID), zap.String("mode", string(mode)))
	}
	mm := queue.NewMatchmaker(ctx, cfg.Matchmaker, cfg.Modes, log, metrics, posCache, mgr.OnPairing, onQueueTimeout)

	transportServer := transport.NewServer(mgr, cfg.Session.RecipientQueueDepth, log)
	opsServer := ops.NewServer(metrics.Registry(), mm, mgr)

	wsHTTP := &http.Server{Addr: cfg.WSAddr, Handler: transportServer.Router(), ReadTimeout: 30 * time.Second, WriteTimeout: 30 * time.Second}
	opsHTTP := &http.Server{Addr: cfg.HTTPAddr, Handler: opsServer.Router(), ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second}

	go func() {
		log.Info("agent/spectator websocket listening", zap.String("addr", cfg.WSAddr))
		if err := wsHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("websocket server error", zap.Error(err))
		}
	}()
	go func() {
		log.Info("ops http listening", zap.String("addr", cfg.HTTPAddr))
		if err := opsHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ops server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutting down", zap.String("signal", sig.String()))

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = wsHTTP.Shutdown(shutdownCtx)
	_ = opsHTTP.Shutdown(shutdownCtx)
}
