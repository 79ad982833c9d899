/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/hortator-ai/cellforge/internal/cferrors"
)

// Client is the subject-addressed pub/sub surface the control plane
// consumes: publish an envelope, subscribe to a wildcard pattern, and wait
// for a single matching response (used by the busResponse completion check
// and the gateway's synchronous request path).
type Client interface {
	Publish(ctx context.Context, subject string, env Envelope) error
	Subscribe(pattern string, handler func(Envelope)) (Unsubscribe, error)
	Close()
}

// Unsubscribe cancels a prior Subscribe call.
type Unsubscribe func() error

// NatsClient is a Client backed by a real NATS connection.
type NatsClient struct {
	conn *nats.Conn
}

// Dial connects to a NATS server, optionally authenticating with the
// per-cell credentials issued by internal/credentials.
func Dial(url, username, password string) (*NatsClient, error) {
	opts := []nats.Option{
		nats.Timeout(5 * time.Second),
		nats.MaxReconnects(-1),
	}
	if username != "" {
		opts = append(opts, nats.UserInfo(username, password))
	}
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, cferrors.Transient(err, "connecting to nats at %s", url)
	}
	return &NatsClient{conn: conn}, nil
}

func (c *NatsClient) Publish(ctx context.Context, subject string, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := c.conn.Publish(subject, data); err != nil {
		return cferrors.Transient(err, "publishing to %s", subject)
	}
	return nil
}

func (c *NatsClient) Subscribe(pattern string, handler func(Envelope)) (Unsubscribe, error) {
	sub, err := c.conn.Subscribe(natsSubject(pattern), func(msg *nats.Msg) {
		var env Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			return
		}
		handler(env)
	})
	if err != nil {
		return nil, cferrors.Transient(err, "subscribing to %s", pattern)
	}
	return sub.Unsubscribe, nil
}

func (c *NatsClient) Close() {
	c.conn.Close()
}

// natsSubject translates the bus's "*"/">" wildcard grammar, which
// coincides exactly with NATS' own wildcard tokens, so no translation is
// required — this function exists as the single seam should that ever
// change.
func natsSubject(pattern string) string { return pattern }
