package failover

import (
	"context"
	"database/sql/driver"

	"github.com/go-sql-driver/mysql"
)

// Client is the capability surface the failover layer needs from the
// underlying MySQL client. It is the full set of driver interfaces a modern
// MySQL driver connection implements, plus session query options that must
// survive a reconnect.
type Client interface {
	Prepare(query string) (driver.Stmt, error)
	PrepareContext(ctx context.Context, query string) (driver.Stmt, error)
	Close() error
	Begin() (driver.Tx, error)
	BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error)
	Exec(query string, args []driver.Value) (driver.Result, error)
	ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error)
	Query(query string, args []driver.Value) (driver.Rows, error)
	QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error)
	Ping(ctx context.Context) error
	ResetSession(ctx context.Context) error
	IsValid() bool
	CheckNamedValue(nv *driver.NamedValue) error

	// QueryOptions returns a copy of the session-level query options.
	QueryOptions() map[string]string
	// MergeQueryOptions merges opts into the current session options,
	// overwriting on key collision.
	MergeQueryOptions(opts map[string]string)

	// Raw exposes the wrapped driver connection for advanced use.
	Raw() driver.Conn
}

// clientFactory establishes a fresh underlying connection from a Config.
type clientFactory func(ctx context.Context, cfg *Config) (Client, error)

// connectMySQL is the production clientFactory, backed by
// github.com/go-sql-driver/mysql.
func connectMySQL(ctx context.Context, cfg *Config) (Client, error) {
	mysqlCfg, err := mysql.ParseDSN(cfg.FormatMySQLDSN())
	if err != nil {
		return nil, err
	}

	openConnector, err := mysql.NewConnector(mysqlCfg)
	if err != nil {
		return nil, err
	}

	conn, err := openConnector.Connect(ctx)
	if err != nil {
		return nil, err
	}

	opts := make(map[string]string, len(cfg.DefaultQueryOptions))
	for k, v := range cfg.DefaultQueryOptions {
		opts[k] = v
	}

	return &mysqlClient{conn: conn, opts: opts}, nil
}

type mysqlClient struct {
	conn driver.Conn
	opts map[string]string
}

func (c *mysqlClient) Prepare(query string) (driver.Stmt, error) {
	return c.conn.Prepare(query)
}

func (c *mysqlClient) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	return c.conn.(driver.ConnPrepareContext).PrepareContext(ctx, query)
}

func (c *mysqlClient) Close() error {
	err := c.conn.Close()
	return err
}

func (c *mysqlClient) Begin() (driver.Tx, error) {
	return c.conn.Begin()
}

func (c *mysqlClient) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	return c.conn.(driver.ConnBeginTx).BeginTx(ctx, opts)
}

func (c *mysqlClient) Exec(query string, args []driver.Value) (driver.Result, error) {
	return c.conn.(driver.Execer).Exec(query, args)
}

func (c *mysqlClient) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	return c.conn.(driver.ExecerContext).ExecContext(ctx, query, args)
}

func (c *mysqlClient) Query(query string, args []driver.Value) (driver.Rows, error) {
	return c.conn.(driver.Queryer).Query(query, args)
}

func (c *mysqlClient) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	return c.conn.(driver.QueryerContext).QueryContext(ctx, query, args)
}

func (c *mysqlClient) Ping(ctx context.Context) error {
	return c.conn.(driver.Pinger).Ping(ctx)
}

func (c *mysqlClient) ResetSession(ctx context.Context) error {
	return c.conn.(driver.SessionResetter).ResetSession(ctx)
}

func (c *mysqlClient) IsValid() bool {
	return c.conn.(driver.Validator).IsValid()
}

func (c *mysqlClient) CheckNamedValue(nv *driver.NamedValue) error {
	return c.conn.(driver.NamedValueChecker).CheckNamedValue(nv)
}

func (c *mysqlClient) QueryOptions() map[string]string {
	opts := make(map[string]string, len(c.opts))
	for k, v := range c.opts {
		opts[k] = v
	}
	return opts
}

func (c *mysqlClient) MergeQueryOptions(opts map[string]string) {
	if c.opts == nil {
		c.opts = make(map[string]string, len(opts))
	}
	for k, v := range opts {
		c.opts[k] = v
	}
}

func (c *mysqlClient) Raw() driver.Conn {
	return c.conn
}
