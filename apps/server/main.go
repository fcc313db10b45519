package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cribbage-lite/apps/server/internal/config"
	"cribbage-lite/apps/server/internal/gateway"
	"cribbage-lite/apps/server/internal/ledger"
	"cribbage-lite/apps/server/internal/lobby"
	"cribbage-lite/apps/server/internal/logging"
	"cribbage-lite/apps/server/internal/pubsub"
	"cribbage-lite/apps/server/internal/table"
	"cribbage-lite/cribbage"
	"cribbage-lite/cribbage/npc"

	"github.com/gorilla/handlers"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ledgerService, ledgerMode, err := ledger.NewService(cfg.LedgerMode, ledger.Options{
		DSN:         cfg.LedgerDSN,
		SQLitePath:  cfg.LedgerSQLitePath,
		RecentLimit: cfg.LedgerRecentLimit,
	}, logger)
	if err != nil {
		return err
	}
	defer ledgerService.Close()

	publisher, err := pubsub.New(cfg.NATSURL, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	registry := npc.NewRegistry()
	if cfg.PersonasPath != "" {
		if err := registry.LoadFromFile(cfg.PersonasPath); err != nil {
			return err
		}
	}
	npcManager := npc.NewManager(registry)
	npcManager.SetThinkDelay(cfg.NPCThinkDelay)

	tableCfg := cribbage.DefaultConfig()
	tableCfg.GameTarget = cfg.GameTarget
	tableCfg.MatchTarget = cfg.MatchTarget

	lby := lobby.New(tableCfg, ledgerService, npcManager, logger)
	defer lby.Close()
	lby.OnGameEnd(publishGameEnd(publisher, logger))

	gw := gateway.New(lby, logger)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(cfg, gw, lby, ledger.NewHTTPHandler(ledgerService, logger), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("addr", cfg.Addr),
			zap.String("ledger", ledgerMode),
			zap.Int("personas", registry.Count()),
			zap.Bool("nats", cfg.NATSURL != ""))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newHandler wires the routes. The websocket endpoint skips the access log; everything
// gets CORS and panic recovery.
func newHandler(cfg *config.Config, gw *gateway.Gateway, lby *lobby.Lobby, ledgerHTTP *ledger.HTTPHandler, logger *zap.Logger) http.Handler {
	stdLog := zap.NewStdLog(logger)

	api := http.NewServeMux()
	ledgerHTTP.RegisterRoutes(api)
	api.HandleFunc("/api/tables", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, map[string]any{"tables": lby.ListTables()})
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/api/", handlers.LoggingHandler(stdLog.Writer(), api))

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(stdLog), handlers.PrintRecoveryStack(true))
	return recovery(cors(mux))
}

// publishGameEnd forwards finished games to the message bus.
func publishGameEnd(pub pubsub.Publisher, logger *zap.Logger) table.GameEndHook {
	return func(info table.GameEndInfo) {
		ev := pubsub.GameEnd{
			TableID:   info.TableID,
			GameID:    info.GameID,
			Winner:    info.Winner.String(),
			Names:     info.Names,
			Scores:    info.Scores,
			Wins:      info.Wins,
			MatchOver: info.MatchOver,
			EndedAt:   info.EndedAt,
		}
		if info.Winner.Valid() {
			ev.WinnerName = info.Names[info.Winner]
		}
		if info.MatchOver {
			ev.MatchWinner = info.MatchWinner.String()
		}
		if err := pub.PublishGameEnd(ev); err != nil {
			logger.Warn("publish game end failed", zap.String("table", info.TableID), zap.Error(err))
		}
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(payload)
}
