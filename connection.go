package failover

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/petermattis/goid"
	"github.com/pkg/errors"
)

// failoverConn owns exactly one underlying client at a time and replaces it
// wholesale on reconnect. Instances are not safe for concurrent use; the
// database/sql pool hands a connection to one goroutine at a time, which is
// the only access pattern supported.
type failoverConn struct {
	client  Client
	cfg     *Config
	connect clientFactory
	clock   clockwork.Clock
}

func newFailoverConn(ctx context.Context, cfg *Config, connect clientFactory, clock clockwork.Clock) (*failoverConn, error) {
	c := &failoverConn{
		cfg:     cfg,
		connect: connect,
		clock:   clock,
	}
	if err := c.reconnect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// retryDelay computes the wait before retry attempt n (1-based): a linear
// ramp of 0, 1.5s, 3.0s, ... capped at maxRetryDelay.
func retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	delay := time.Duration(attempt-1) * retryDelayStep
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

// withRetry runs op against the current client, classifying failures and
// driving the configured reconnect policy. The error returned to the caller
// is always the one the underlying client produced, never a wrapper around
// it; only a failed reconnect attempt surfaces its own error instead.
func (c *failoverConn) withRetry(ctx context.Context, op func(Client) error) error {
	if c.client == nil {
		if err := c.reconnect(ctx); err != nil {
			return err
		}
	}

	attempt := 0
	for {
		err := op(c.client)
		if err == nil {
			return nil
		}

		// Read-only takes precedence: a message matching both families is
		// a demoted node, not a broken socket.
		if matchesAny(err, c.cfg.readOnlyMarkers()) {
			switch {
			case c.cfg.DisconnectOnReadonly:
				retryLogger.Warn(fmt.Sprintf("[%d] read-only node detected, disconnecting: %v", goid.Get(), err), c.cfg.EnableLog)
				c.disconnect()
			case c.cfg.ReconnectOnReadonly:
				retryLogger.Warn(fmt.Sprintf("[%d] read-only node detected, reconnecting: %v", goid.Get(), err), c.cfg.EnableLog)
				if rerr := c.reconnect(ctx); rerr != nil {
					return rerr
				}
			default:
				retryLogger.Warn(fmt.Sprintf("[%d] read-only node detected: %v", goid.Get(), err), c.cfg.EnableLog)
			}
			return err
		}

		if !IsTransientConnectionError(err) {
			return err
		}

		attempt++
		if attempt > c.cfg.MaxRetry {
			return err
		}

		delay := retryDelay(attempt)
		retryLogger.Warn(fmt.Sprintf("[%d] connection error (%v), reconnecting in %.1fs (attempt %d/%d)",
			goid.Get(), err, delay.Seconds(), attempt, c.cfg.MaxRetry), c.cfg.EnableLog)

		if delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.clock.After(delay):
			}
		}

		if rerr := c.reconnect(ctx); rerr != nil {
			return rerr
		}
	}
}

// reconnect tears down the current client and establishes a fresh one,
// carrying the session query options over. A failed connection attempt
// leaves the conn disconnected and is always surfaced; continuing without a
// connection is unsafe.
func (c *failoverConn) reconnect(ctx context.Context) error {
	var saved map[string]string
	if c.client != nil {
		saved = c.client.QueryOptions()
	}

	c.disconnect()

	client, err := c.connect(ctx, c.cfg)
	if err != nil {
		return errors.WithStack(err)
	}

	if len(saved) > 0 {
		client.MergeQueryOptions(saved)
	}
	c.client = client
	return nil
}

// disconnect closes the current client if one is held. Close errors are
// logged and discarded; teardown never fails observably.
func (c *failoverConn) disconnect() {
	if c.client == nil {
		return
	}
	if err := c.client.Close(); err != nil {
		mainLogger.Warn(fmt.Sprintf("close connection: %v", err), c.cfg.EnableLog)
	}
	c.client = nil
}

// UnderlyingClient exposes the current underlying client, reachable from a
// *sql.Conn via Raw(). It is nil while the conn is disconnected.
func (c *failoverConn) UnderlyingClient() Client {
	return c.client
}

func (c *failoverConn) Exec(query string, args []driver.Value) (result driver.Result, err error) {
	err = c.withRetry(context.Background(), func(client Client) error {
		var opErr error
		result, opErr = client.Exec(query, args)
		return opErr
	})
	return
}

func (c *failoverConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (result driver.Result, err error) {
	err = c.withRetry(ctx, func(client Client) error {
		var opErr error
		result, opErr = client.ExecContext(ctx, query, args)
		return opErr
	})
	return
}

func (c *failoverConn) Query(query string, args []driver.Value) (rows driver.Rows, err error) {
	err = c.withRetry(context.Background(), func(client Client) error {
		var opErr error
		rows, opErr = client.Query(query, args)
		return opErr
	})
	return
}

func (c *failoverConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (rows driver.Rows, err error) {
	err = c.withRetry(ctx, func(client Client) error {
		var opErr error
		rows, opErr = client.QueryContext(ctx, query, args)
		return opErr
	})
	return
}

func (c *failoverConn) Prepare(query string) (driver.Stmt, error) {
	if c.client == nil {
		return nil, driver.ErrBadConn
	}
	return c.client.Prepare(query)
}

func (c *failoverConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if c.client == nil {
		return nil, driver.ErrBadConn
	}
	return c.client.PrepareContext(ctx, query)
}

func (c *failoverConn) Begin() (driver.Tx, error) {
	if c.client == nil {
		return nil, driver.ErrBadConn
	}
	return c.client.Begin()
}

func (c *failoverConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if c.client == nil {
		return nil, driver.ErrBadConn
	}
	return c.client.BeginTx(ctx, opts)
}

func (c *failoverConn) Ping(ctx context.Context) error {
	if c.client == nil {
		return driver.ErrBadConn
	}
	return c.client.Ping(ctx)
}

func (c *failoverConn) ResetSession(ctx context.Context) error {
	if c.client == nil {
		return driver.ErrBadConn
	}
	return c.client.ResetSession(ctx)
}

func (c *failoverConn) IsValid() bool {
	if c.client == nil {
		return false
	}
	return c.client.IsValid()
}

func (c *failoverConn) CheckNamedValue(nv *driver.NamedValue) error {
	if c.client == nil {
		return driver.ErrBadConn
	}
	return c.client.CheckNamedValue(nv)
}

func (c *failoverConn) Close() error {
	c.disconnect()
	return nil
}
