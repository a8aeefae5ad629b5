// Command slashauth-server runs the reference slashauth server.
//
// Endpoints:
//
//	POST /auth     slashauth request envelopes
//	POST /issue    mints an authz link (bind to a trusted network only)
//	GET  /session  returns the caller's session claims (Bearer session token)
//	GET  /healthz  liveness
//
// Redis comes from SLASHAUTH_REDIS_ADDR; when unset an in-process miniredis
// is started, which is only suitable for development.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrEthical07/slashAuth/internal/envconfig"
	"github.com/MrEthical07/slashAuth/middleware"
	"github.com/MrEthical07/slashAuth/server"
	"github.com/MrEthical07/slashAuth/signer"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type config struct {
	Addr          string        `env:"SLASHAUTH_ADDR" env-default:":8080" env-description:"listen address"`
	PublicURL     string        `env:"SLASHAUTH_PUBLIC_URL" env-default:"http://localhost:8080/auth" env-description:"URL clients POST to, used in issued links"`
	Relay         string        `env:"SLASHAUTH_RELAY" env-description:"optional relay added to issued links"`
	Seed          string        `env:"SLASHAUTH_SERVER_SEED" env-description:"hex-encoded 32-byte server seed; random when empty"`
	RedisAddr     string        `env:"SLASHAUTH_REDIS_ADDR" env-description:"redis address; miniredis when empty"`
	KeyPrefix     string        `env:"SLASHAUTH_KEY_PREFIX" env-default:"slashauth"`
	TokenTTL      time.Duration `env:"SLASHAUTH_TOKEN_TTL" env-default:"5m"`
	NonceTTL      time.Duration `env:"SLASHAUTH_NONCE_TTL" env-default:"15m"`
	SessionTTL    time.Duration `env:"SLASHAUTH_SESSION_TTL" env-default:"1h"`
	MagiclinkBase string        `env:"SLASHAUTH_MAGICLINK_BASE" env-description:"base URL for magiclinks; disabled when empty"`
	LogLevel      string        `env:"SLASHAUTH_LOG_LEVEL" env-default:"info"`
}

func main() {
	configPath := flag.String("config", "", "optional dotenv file")
	helpEnv := flag.Bool("help-env", false, "list environment variables and exit")
	flag.Parse()

	var cfg config
	if *helpEnv {
		fmt.Println(envconfig.Usage(&cfg))
		return
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := envconfig.Load(*configPath, &cfg); err != nil {
		log.WithError(err).Fatal("load config")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func serve(ctx context.Context, cfg config, log *logrus.Logger) error {
	kp, err := loadKeyPair(cfg.Seed)
	if err != nil {
		return err
	}

	rdb, cleanup, err := openRedis(ctx, cfg.RedisAddr, log)
	if err != nil {
		return err
	}
	defer cleanup()

	srvCfg := server.DefaultConfig()
	srvCfg.KeyPair = kp
	srvCfg.KeyPrefix = cfg.KeyPrefix
	srvCfg.TokenTTL = cfg.TokenTTL
	srvCfg.NonceTTL = cfg.NonceTTL
	srvCfg.MagiclinkBase = cfg.MagiclinkBase
	srvCfg.Session.SessionTTL = cfg.SessionTTL

	srv, err := server.New(srvCfg, rdb, server.WithLogger(log))
	if err != nil {
		return err
	}
	fingerprint, _ := signer.Fingerprint(srv.PublicKey())
	log.WithFields(logrus.Fields{
		"public_key":  hex.EncodeToString(srv.PublicKey()),
		"fingerprint": fingerprint,
	}).Info("server key loaded")

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           routes(srv, cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Addr).Info("listening")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func routes(srv *server.Server, cfg config) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/auth", srv)

	mux.HandleFunc("/issue", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		token, err := srv.IssueToken(r.Context())
		if err != nil {
			http.Error(w, "issue failed", http.StatusServiceUnavailable)
			return
		}
		link, err := server.AuthzURL(cfg.PublicURL, token, cfg.Relay)
		if err != nil {
			http.Error(w, "bad public url", http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]string{"url": link})
	})

	guard := middleware.RequireStrict(srv.Sessions(), srv)
	mux.Handle("/session", guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.SessionFromContext(r.Context())
		writeJSON(w, map[string]any{
			"publicKey": claims.PublicKey,
			"sid":       claims.SID,
			"expiresAt": claims.ExpiresAt.Unix(),
		})
	})))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func loadKeyPair(seedHex string) (signer.KeyPair, error) {
	if seedHex == "" {
		return signer.CreateKeyPair(nil)
	}
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return signer.KeyPair{}, fmt.Errorf("SLASHAUTH_SERVER_SEED: %w", err)
	}
	return signer.CreateKeyPair(seed)
}

func openRedis(ctx context.Context, addr string, log logrus.FieldLogger) (redis.UniversalClient, func(), error) {
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start miniredis: %w", err)
		}
		log.WithField("addr", mr.Addr()).Warn("using in-process miniredis")
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		return client, func() {
			_ = client.Close()
			mr.Close()
		}, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	log.WithField("addr", addr).Info("using redis")
	return client, func() { _ = client.Close() }, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
