// Command slashauth is a command-line slashauth client.
//
// Usage:
//
//	slashauth [-config .env] keygen [-passphrase P -salt S | -mnemonic PHRASE|new]
//	slashauth [-config .env] request-token URL
//	slashauth [-config .env] magiclink URL
//	slashauth [-config .env] authz URL
//
// The client identity and the pinned server key come from the environment;
// run with -help-env to list the variables.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	slashAuth "github.com/MrEthical07/slashAuth"
	"github.com/MrEthical07/slashAuth/internal/envconfig"
	"github.com/MrEthical07/slashAuth/signer"
	"github.com/sirupsen/logrus"
)

type config struct {
	Seed            string        `env:"SLASHAUTH_SEED" env-description:"hex-encoded 32-byte ed25519 seed"`
	ServerPublicKey string        `env:"SLASHAUTH_SERVER_PUBLIC_KEY" env-description:"hex-encoded server public key"`
	Timeout         time.Duration `env:"SLASHAUTH_TIMEOUT" env-default:"10s" env-description:"request timeout"`
	UserAgent       string        `env:"SLASHAUTH_USER_AGENT" env-default:"slashauth-cli"`
	LogLevel        string        `env:"SLASHAUTH_LOG_LEVEL" env-default:"warn" env-description:"logrus level for audit output"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "slashauth:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("slashauth", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "optional dotenv file")
	helpEnv := fs.Bool("help-env", false, "list environment variables and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var cfg config
	if *helpEnv {
		fmt.Fprintln(stdout, envconfig.Usage(&cfg))
		return nil
	}
	if err := envconfig.Load(*configPath, &cfg); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return errors.New("missing command: keygen, request-token, magiclink or authz")
	}

	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	switch cmd, cmdArgs := rest[0], rest[1:]; cmd {
	case "keygen":
		return keygen(cmdArgs, stdout, stderr)
	case "request-token", "magiclink", "authz":
		if len(cmdArgs) != 1 {
			return fmt.Errorf("%s takes exactly one URL", cmd)
		}
		client, err := buildClient(cfg, logger)
		if err != nil {
			return err
		}
		defer client.Close()

		flows := map[string]func(context.Context, string) (slashAuth.Result, error){
			"request-token": client.RequestToken,
			"magiclink":     client.Magiclink,
			"authz":         client.Authz,
		}
		res, err := flows[cmd](ctx, cmdArgs[0])
		if err != nil {
			return err
		}
		return writeJSON(stdout, res)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func keygen(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	passphrase := fs.String("passphrase", "", "derive the seed from a passphrase instead of randomness")
	salt := fs.String("salt", "", "salt for -passphrase, at least 16 bytes")
	mnemonic := fs.String("mnemonic", "", "restore from a BIP-39 phrase; \"new\" generates one")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		kp     signer.KeyPair
		phrase string
		err    error
	)
	switch {
	case *passphrase != "" && *mnemonic != "":
		return errors.New("-passphrase and -mnemonic are mutually exclusive")
	case *passphrase != "":
		kp, err = signer.KeyPairFromPassphrase([]byte(*passphrase), []byte(*salt), signer.DefaultPassphraseParams())
	case *mnemonic == "new":
		if phrase, err = signer.NewMnemonic(); err == nil {
			kp, err = signer.KeyPairFromMnemonic(phrase, "")
		}
	case *mnemonic != "":
		kp, err = signer.KeyPairFromMnemonic(*mnemonic, "")
	default:
		kp, err = signer.CreateKeyPair(nil)
	}
	if err != nil {
		return err
	}

	fingerprint, err := signer.Fingerprint(kp.PublicKey)
	if err != nil {
		return err
	}
	out := map[string]string{
		"seed":        hex.EncodeToString(kp.SecretKey.Seed()),
		"publicKey":   kp.PublicKeyHex(),
		"fingerprint": fingerprint,
	}
	if phrase != "" {
		out["mnemonic"] = phrase
	}
	return writeJSON(stdout, out)
}

func buildClient(cfg config, logger *logrus.Logger) (*slashAuth.Client, error) {
	if cfg.Seed == "" {
		return nil, errors.New("SLASHAUTH_SEED is not set; run keygen first")
	}
	seed, err := hex.DecodeString(cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("SLASHAUTH_SEED: %w", err)
	}
	kp, err := slashAuth.CreateKeyPair(seed)
	if err != nil {
		return nil, fmt.Errorf("SLASHAUTH_SEED: %w", err)
	}
	serverKey, err := hex.DecodeString(cfg.ServerPublicKey)
	if err != nil {
		return nil, fmt.Errorf("SLASHAUTH_SERVER_PUBLIC_KEY: %w", err)
	}

	clientCfg := slashAuth.DefaultConfig()
	clientCfg.Transport.Timeout = cfg.Timeout
	clientCfg.Transport.UserAgent = cfg.UserAgent
	clientCfg.Audit = slashAuth.AuditConfig{Enabled: true, BufferSize: 16}

	return slashAuth.New().
		WithConfig(clientCfg).
		WithKeyPair(kp).
		WithServerPublicKey(serverKey).
		WithAuditSink(slashAuth.NewLogrusSink(logger)).
		Build()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
