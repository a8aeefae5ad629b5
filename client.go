package slashAuth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/slashAuth/internal/wire"
	"github.com/google/uuid"
)

// Client runs the requestToken, magiclink and authz flows. Its only state is
// the immutable key material and collaborators chosen at Build, so calls may
// overlap freely.
type Client struct {
	config          Config
	keyPair         KeyPair
	publicKeyHex    string
	serverPublicKey []byte

	signer    Signer
	transport Transport
	resolver  Resolver

	metrics *Metrics
	audit   *auditDispatcher
}

// Close flushes pending audit events. The Client must not be used afterwards.
func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.audit != nil {
		c.audit.Close()
	}
}

// PublicKeyHex returns the hex-encoded client public key sent with every request.
func (c *Client) PublicKeyHex() string {
	if c == nil {
		return ""
	}
	return c.publicKeyHex
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (c *Client) AuditDropped() uint64 {
	if c == nil || c.audit == nil {
		return 0
	}
	return c.audit.Dropped()
}

// MetricsSnapshot returns a copy of the client's counters.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

// RequestToken asks the server to mint a token bound to the client public key.
// The signed datum is the public key itself. The returned Result is expected
// to carry a token.
func (c *Client) RequestToken(ctx context.Context, rawURL string) (Result, error) {
	return c.run(ctx, wire.MethodRequestToken, rawURL, func(ctx context.Context, _ string, ep Endpoint) (Result, error) {
		return c.sendRequestToken(ctx, ep)
	})
}

// Magiclink obtains a fresh token with a requestToken exchange, then signs
// that token under a new nonce and submits it. Both exchanges share one
// resolved endpoint and one call id.
func (c *Client) Magiclink(ctx context.Context, rawURL string) (Result, error) {
	return c.run(ctx, wire.MethodMagiclink, rawURL, func(ctx context.Context, callID string, ep Endpoint) (Result, error) {
		issued, err := c.requestToken(ctx, callID, ep)
		if err != nil {
			return nil, err
		}
		token := issued.Token()
		if token == "" {
			return nil, malformed("requestToken result has no token")
		}

		params, err := c.createRequestParams(token)
		if err != nil {
			return nil, err
		}
		return c.sendRequest(ctx, wire.MethodMagiclink, ep.Target, params)
	})
}

// requestToken runs the nested exchange of a magiclink call and records it
// under the parent call id.
func (c *Client) requestToken(ctx context.Context, callID string, ep Endpoint) (Result, error) {
	start := time.Now()
	res, err := c.sendRequestToken(ctx, ep)
	c.observe(ctx, wire.MethodRequestToken, callID, ep.Target, time.Since(start), err)
	return res, err
}

func (c *Client) sendRequestToken(ctx context.Context, ep Endpoint) (Result, error) {
	params, err := c.createRequestParams("")
	if err != nil {
		return nil, err
	}
	return c.sendRequest(ctx, wire.MethodRequestToken, ep.Target, params)
}

// Authz signs the token embedded in the url (delivered out of band, e.g. by a
// QR code) and submits it.
func (c *Client) Authz(ctx context.Context, rawURL string) (Result, error) {
	return c.run(ctx, wire.MethodAuthz, rawURL, func(ctx context.Context, _ string, ep Endpoint) (Result, error) {
		if ep.Token == "" {
			return nil, ErrMissingToken
		}

		params, err := c.createRequestParams(ep.Token)
		if err != nil {
			return nil, err
		}
		return c.sendRequest(ctx, wire.MethodAuthz, ep.Target, params)
	})
}

type flowFunc func(ctx context.Context, callID string, ep Endpoint) (Result, error)

// run validates the url, resolves it, and records metrics and audit for one call.
func (c *Client) run(ctx context.Context, method wire.Method, rawURL string, flow flowFunc) (Result, error) {
	if c == nil || c.signer == nil || c.transport == nil || c.resolver == nil {
		return nil, ErrClientNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	callID := uuid.NewString()

	var (
		ep  Endpoint
		res Result
		err error
	)
	if strings.TrimSpace(rawURL) == "" {
		err = ErrMissingURL
	} else if ep, err = c.resolver.Resolve(rawURL); err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidURL, err)
	} else {
		res, err = flow(ctx, callID, ep)
	}

	c.observe(ctx, method, callID, ep.Target, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// createRequestParams signs "{nonce}:{datum}" under a fresh nonce. The datum
// is token when one is given and the client public key otherwise.
func (c *Client) createRequestParams(token string) (wire.Params, error) {
	nonce, err := c.signer.CreateToken()
	if err != nil {
		return wire.Params{}, fmt.Errorf("create nonce: %w", err)
	}

	datum := c.publicKeyHex
	if token != "" {
		datum = token
	}

	signature, err := c.signer.Sign(wire.SignedString(nonce, datum), c.keyPair.SecretKey)
	if err != nil {
		return wire.Params{}, fmt.Errorf("sign request: %w", err)
	}

	return wire.Params{
		PublicKey: wire.Hex(c.keyPair.PublicKey),
		Nonce:     nonce,
		Signature: signature,
		Token:     token,
	}, nil
}

// sendRequest delivers one signed request and validates the answer against
// the nonce it carried.
func (c *Client) sendRequest(ctx context.Context, method wire.Method, target string, params wire.Params) (Result, error) {
	body, err := json.Marshal(wire.Request{Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	raw, err := c.transport.PostJSON(ctx, target, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	resp, err := wire.DecodeResponse(raw)
	if err != nil {
		if errors.Is(err, wire.ErrEmptyEnvelope) {
			return nil, malformed("missing result")
		}
		return nil, malformed(err.Error())
	}

	return c.processResponse(resp, params.Nonce)
}
