package slashAuth

import (
	"crypto/ed25519"
	"errors"

	"github.com/MrEthical07/slashAuth/signer"
	"github.com/MrEthical07/slashAuth/transport"
)

// Builder assembles a [Client]. Each Builder may produce one Client.
type Builder struct {
	config Config

	keyPair         KeyPair
	serverPublicKey []byte

	signer    Signer
	transport Transport
	resolver  Resolver
	auditSink AuditSink

	built bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration. The value is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithKeyPair sets the client identity used to sign every request.
func (b *Builder) WithKeyPair(kp KeyPair) *Builder {
	b.keyPair = kp
	return b
}

// WithServerPublicKey sets the trust anchor for verifying server responses.
func (b *Builder) WithServerPublicKey(pk []byte) *Builder {
	b.serverPublicKey = pk
	return b
}

// WithSigner replaces the default signer.Ed25519 implementation.
func (b *Builder) WithSigner(s Signer) *Builder {
	b.signer = s
	return b
}

// WithTransport replaces the default HTTP transport built from
// Config.Transport.
func (b *Builder) WithTransport(t Transport) *Builder {
	b.transport = t
	return b
}

// WithResolver replaces the default relay-aware transport.Resolver.
func (b *Builder) WithResolver(r Resolver) *Builder {
	b.resolver = r
	return b
}

// WithAuditSink sets the sink used when Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the request latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the inputs and returns a ready Client.
//
// A missing or malformed key pair fails with ErrMissingKeyPair, a missing or
// malformed server key with ErrMissingServerPublicKey. No I/O happens here.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	if len(b.keyPair.PublicKey) == 0 || len(b.keyPair.SecretKey) == 0 {
		return nil, ErrMissingKeyPair
	}
	if len(b.serverPublicKey) == 0 {
		return nil, ErrMissingServerPublicKey
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sg := b.signer
	if sg == nil {
		sg = signer.Ed25519{}
		// The default signer only accepts Ed25519 material.
		if !b.keyPair.Valid() {
			return nil, ErrMissingKeyPair
		}
		if len(b.serverPublicKey) != ed25519.PublicKeySize {
			return nil, ErrMissingServerPublicKey
		}
	}

	tr := b.transport
	if tr == nil {
		tr = transport.NewHTTP(cfg.Transport.transportConfig(), nil)
	}

	rs := b.resolver
	if rs == nil {
		rs = transport.Resolver{}
	}

	kp := KeyPair{
		PublicKey: append(ed25519.PublicKey(nil), b.keyPair.PublicKey...),
		SecretKey: append(ed25519.PrivateKey(nil), b.keyPair.SecretKey...),
	}

	c := &Client{
		config:          cfg,
		keyPair:         kp,
		publicKeyHex:    kp.PublicKeyHex(),
		serverPublicKey: append([]byte(nil), b.serverPublicKey...),
		signer:          sg,
		transport:       tr,
		resolver:        rs,
		metrics:         NewMetrics(cfg.Metrics),
		audit:           newAuditDispatcher(cfg.Audit, b.auditSink),
	}

	b.built = true
	return c, nil
}
