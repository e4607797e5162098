package failover

import (
	"context"
	"database/sql"
	"database/sql/driver"
)

type FailoverDriver struct{}

// Open new Connection.
// See https://github.com/go-sql-driver/mysql#dsn-data-source-name for how
// the DSN string is formatted; failover params (maxRetryCount,
// disconnectOnReadonly, reconnectOnReadonly, enableLog) are consumed here
// and never forwarded to the MySQL driver.
func (d FailoverDriver) Open(dsn string) (driver.Conn, error) {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	return newConnector(cfg).Connect(context.Background())
}

var driverName = "mysql-failover"

func init() {
	if driverName != "" {
		sql.Register(driverName, &FailoverDriver{})
	}
}

// NewConnector returns new driver.Connector for the given Config. The config
// is cloned; later mutation of cfg does not affect the connector.
func NewConnector(cfg *Config) (driver.Connector, error) {
	cfg = cfg.Clone()
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return newConnector(cfg), nil
}

// OpenConnector implements driver.DriverContext.
func (d FailoverDriver) OpenConnector(dsn string) (driver.Connector, error) {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	return newConnector(cfg), nil
}
