package failover

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriverRegistered(t *testing.T) {
	t.Parallel()

	assert.Contains(t, sql.Drivers(), driverName)
}

func TestDriverOpenInvalidDSN(t *testing.T) {
	t.Parallel()

	d := FailoverDriver{}
	_, err := d.Open("not-a-dsn")
	assert.ErrorIs(t, err, ErrInvalidDSNNoSlash)

	_, err = d.OpenConnector("not-a-dsn")
	assert.ErrorIs(t, err, ErrInvalidDSNNoSlash)
}

func TestNewConnectorClonesConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.Addr = "db.example.com"
	cfg.MaxRetry = 2

	c, err := NewConnector(cfg)
	require.NoError(t, err)

	// Later mutation of the caller's config must not leak into the connector.
	cfg.MaxRetry = 99
	assert.Equal(t, 2, c.(*connector).cfg.MaxRetry)
	// The connector's copy is normalized.
	assert.Equal(t, "db.example.com:3306", c.(*connector).cfg.Addr)

	assert.IsType(t, &FailoverDriver{}, c.Driver())
}

// TestDatabaseSQLRoundTrip drives the wrapper through the database/sql pool
// with a scripted underlying client.
func TestDatabaseSQLRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig()
	cfg.MaxRetry = 1

	failures := 1
	factory := &fakeFactory{}
	factory.queryErr = func() error {
		if failures > 0 {
			failures--
			return errLostConn
		}
		return nil
	}

	db := sql.OpenDB(&connector{cfg: cfg, connect: factory.connect, clock: clockwork.NewRealClock()})
	defer db.Close()
	db.SetMaxOpenConns(1)

	// The transient failure is absorbed by a reconnect-and-retry.
	_, err := db.ExecContext(context.Background(), "UPDATE t SET v = 1")
	require.NoError(t, err)

	rows, err := db.QueryContext(context.Background(), "SELECT v FROM t")
	require.NoError(t, err)
	require.NoError(t, rows.Close())

	assert.Equal(t, 2, factory.connects())
	assert.Equal(t, 3, factory.totalQueries())
}
