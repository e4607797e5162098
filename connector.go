package failover

import (
	"context"
	"database/sql/driver"
	"fmt"

	"github.com/jonboulle/clockwork"
)

type connector struct {
	cfg     *Config
	connect clientFactory
	clock   clockwork.Clock
}

func newConnector(cfg *Config) *connector {
	return &connector{
		cfg:     cfg,
		connect: connectMySQL,
		clock:   clockwork.NewRealClock(),
	}
}

// Connect implements driver.Connector interface.
// Connect returns a connection to the database. The underlying connection is
// established here; a failure leaves no partially usable connection behind.
func (c *connector) Connect(ctx context.Context) (driver.Conn, error) {
	cfg := c.cfg

	mainLogger.Debug(fmt.Sprintf("connecting to %s", cfg.Addr), cfg.EnableLog)

	conn, err := newFailoverConn(ctx, cfg, c.connect, c.clock)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (c *connector) Driver() driver.Driver {
	return &FailoverDriver{}
}
