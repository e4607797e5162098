package failover

import (
	"bytes"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set"
)

type Config struct {
	// Dsn before Slash
	User   string // Username
	Passwd string // Password (requires User)
	Net    string // Network (e.g. "tcp", "tcp6", "unix". default: "tcp")
	Addr   string // Address (default: "127.0.0.1:3306" for "tcp" and "/tmp/mysql.sock" for "unix")
	Dbname string // Database name

	// Failover params
	MaxRetry             int  // maximum reconnect-and-retry attempts on a transient connection error, default: 0
	DisconnectOnReadonly bool // close the connection and surface the error when a read-only node is detected
	ReconnectOnReadonly  bool // reconnect once on a read-only error, then surface the original error
	EnableLog            bool

	// ReadOnlyMarkers overrides the error text substrings recognized as a
	// read-only rejection. Empty means the default marker set.
	ReadOnlyMarkers []string

	// DefaultQueryOptions seeds the session query options of every
	// underlying client this configuration produces.
	DefaultQueryOptions map[string]string

	// MYSQL params, forwarded verbatim to the underlying driver
	MysqlParams map[string]string

	// Failover param set
	PropertiesSet mapset.Set
}

func NewConfig() *Config {
	cfg := &Config{
		MaxRetry:             0,
		DisconnectOnReadonly: false,
		ReconnectOnReadonly:  false,
		EnableLog:            true,
		MysqlParams:          make(map[string]string),
		PropertiesSet:        mapset.NewSet(),
	}

	cfg.PropertiesSet.Add("maxretrycount")
	cfg.PropertiesSet.Add("disconnectonreadonly")
	cfg.PropertiesSet.Add("reconnectonreadonly")
	cfg.PropertiesSet.Add("enablelog")

	return cfg
}

func (cfg *Config) Clone() *Config {
	newConfig := &Config{
		User:   cfg.User,
		Passwd: cfg.Passwd,
		Net:    cfg.Net,
		Addr:   cfg.Addr,
		Dbname: cfg.Dbname,

		MaxRetry:             cfg.MaxRetry,
		DisconnectOnReadonly: cfg.DisconnectOnReadonly,
		ReconnectOnReadonly:  cfg.ReconnectOnReadonly,
		EnableLog:            cfg.EnableLog,
	}

	if cfg.ReadOnlyMarkers != nil {
		newConfig.ReadOnlyMarkers = make([]string, len(cfg.ReadOnlyMarkers))
		copy(newConfig.ReadOnlyMarkers, cfg.ReadOnlyMarkers)
	}

	if cfg.DefaultQueryOptions != nil {
		newConfig.DefaultQueryOptions = make(map[string]string, len(cfg.DefaultQueryOptions))
		for k, v := range cfg.DefaultQueryOptions {
			newConfig.DefaultQueryOptions[k] = v
		}
	}

	if cfg.MysqlParams != nil {
		newConfig.MysqlParams = make(map[string]string, len(cfg.MysqlParams))
		for k, v := range cfg.MysqlParams {
			newConfig.MysqlParams[k] = v
		}
	}

	newConfig.PropertiesSet = mapset.NewSet()
	if cfg.PropertiesSet != nil {
		for _, item := range cfg.PropertiesSet.ToSlice() {
			newConfig.PropertiesSet.Add(item)
		}
	}

	return newConfig
}

func (cfg *Config) normalize() error {

	// Set default network if empty
	if cfg.Net == "" {
		cfg.Net = "tcp"
	}

	// Set default address if empty
	if cfg.Addr == "" {
		switch cfg.Net {
		case "tcp":
			cfg.Addr = "127.0.0.1:3306"
		case "unix":
			cfg.Addr = "/tmp/mysql.sock"
		default:
			return errors.New("default addr for network '" + cfg.Net + "' unknown")
		}
	} else if cfg.Net == "tcp" {
		cfg.Addr = ensureHavePort(strings.TrimSpace(cfg.Addr))
	}

	// The retry bound never goes negative.
	if cfg.MaxRetry < 0 {
		cfg.MaxRetry = 0
	}

	if cfg.PropertiesSet == nil {
		base := NewConfig()
		cfg.PropertiesSet = base.PropertiesSet
	}

	return nil
}

// readOnlyMarkers returns the configured read-only marker set, falling back
// to the default two-marker set.
func (cfg *Config) readOnlyMarkers() []string {
	if len(cfg.ReadOnlyMarkers) > 0 {
		return cfg.ReadOnlyMarkers
	}
	return defaultReadOnlyMarkers
}

func writeDSNParam(buf *bytes.Buffer, hasParam *bool, name, value string) {
	buf.Grow(1 + len(name) + 1 + len(value))
	if !*hasParam {
		*hasParam = true
		buf.WriteByte('?')
	} else {
		buf.WriteByte('&')
	}
	buf.WriteString(name)
	buf.WriteByte('=')
	buf.WriteString(value)
}

// FormatDSN formats a DSN accepted by this driver, with failover params
// alongside the MySQL params. Failover params are written only when they
// differ from their defaults, so ParseDSN(cfg.FormatDSN()) reproduces cfg.
func (cfg *Config) FormatDSN() string {
	var buf bytes.Buffer

	// [username[:password]@]
	if len(cfg.User) > 0 {
		buf.WriteString(cfg.User)
		if len(cfg.Passwd) > 0 {
			buf.WriteByte(':')
			buf.WriteString(cfg.Passwd)
		}
		buf.WriteByte('@')
	}

	// [protocol[(address)]]
	if len(cfg.Net) > 0 {
		buf.WriteString(cfg.Net)
		if len(cfg.Addr) > 0 {
			buf.WriteByte('(')
			buf.WriteString(cfg.Addr)
			buf.WriteByte(')')
		}
	}

	buf.WriteByte('/')
	buf.WriteString(cfg.Dbname)

	// [?param1=value1&...&paramN=valueN]
	hasParam := false

	if cfg.MysqlParams != nil {
		var params []string
		for param := range cfg.MysqlParams {
			params = append(params, param)
		}
		sort.Strings(params)
		for _, param := range params {
			writeDSNParam(&buf, &hasParam, param, url.QueryEscape(cfg.MysqlParams[param]))
		}
	}

	if cfg.MaxRetry > 0 {
		writeDSNParam(&buf, &hasParam, "maxRetryCount", strconv.Itoa(cfg.MaxRetry))
	}
	if cfg.DisconnectOnReadonly {
		writeDSNParam(&buf, &hasParam, "disconnectOnReadonly", "true")
	}
	if cfg.ReconnectOnReadonly {
		writeDSNParam(&buf, &hasParam, "reconnectOnReadonly", "true")
	}
	if !cfg.EnableLog {
		writeDSNParam(&buf, &hasParam, "enableLog", "false")
	}

	return buf.String()
}

// FormatMySQLDSN formats the DSN handed to the underlying MySQL driver.
// Failover-specific params never appear in it; the underlying client must
// not see them.
func (cfg *Config) FormatMySQLDSN() string {
	var buf bytes.Buffer

	// [username[:password]@]
	if len(cfg.User) > 0 {
		buf.WriteString(cfg.User)
		if len(cfg.Passwd) > 0 {
			buf.WriteByte(':')
			buf.WriteString(cfg.Passwd)
		}
		buf.WriteByte('@')
	}

	// [protocol[(address)]]
	if len(cfg.Net) > 0 {
		buf.WriteString(cfg.Net)
		if len(cfg.Addr) > 0 {
			buf.WriteByte('(')
			buf.WriteString(cfg.Addr)
			buf.WriteByte(')')
		}
	}

	buf.WriteByte('/')
	buf.WriteString(cfg.Dbname)

	// [?param1=value1&...&paramN=valueN]
	hasParam := false

	if cfg.MysqlParams != nil {
		var params []string
		for param := range cfg.MysqlParams {
			params = append(params, param)
		}
		sort.Strings(params)
		for _, param := range params {
			writeDSNParam(&buf, &hasParam, param, url.QueryEscape(cfg.MysqlParams[param]))
		}
	}

	return buf.String()
}

// ParseDSN parses a DSN string into a failover and mysql Config
func ParseDSN(dsn string) (cfg *Config, err error) {

	// New config with some default values
	cfg = NewConfig()

	// [user[:password]@][net[(addr)]]/dbname[?param1=value1&paramN=valueN]
	// Find the last '/' (since the password or the net addr might contain a '/')
	foundSlash := false
	for i := len(dsn) - 1; i >= 0; i-- {
		if dsn[i] == '/' {
			foundSlash = true
			var j, k int

			// left part is empty if i <= 0
			if i > 0 {
				// [username[:password]@][protocol[(address)]]
				// Find the last '@' in dsn[:i]
				for j = i; j >= 0; j-- {
					if dsn[j] == '@' {
						// username[:password]
						// Find the first ':' in dsn[:j]
						for k = 0; k < j; k++ {
							if dsn[k] == ':' {
								cfg.Passwd = dsn[k+1 : j]
								break
							}
						}
						cfg.User = dsn[:k]

						break
					}
				}

				// [protocol[(address)]]
				// Find the first '(' in dsn[j+1:i]
				for k = j + 1; k < i; k++ {
					if dsn[k] == '(' {
						// dsn[i-1] must be == ')' if an address is specified
						if dsn[i-1] != ')' {
							if strings.ContainsRune(dsn[k+1:i], ')') {
								return nil, ErrInvalidDSNUnescaped
							}
							return nil, ErrInvalidDSNAddr
						}
						cfg.Addr = dsn[k+1 : i-1]
						break
					}
				}
				cfg.Net = dsn[j+1 : k]
			}

			// dbname[?param1=value1&...&paramN=valueN]
			// Find the first '?' in dsn[i+1:]
			for j = i + 1; j < len(dsn); j++ {
				if dsn[j] == '?' {
					if err = parseDSNParams(cfg, dsn[j+1:]); err != nil {
						return
					}
					break
				}
			}

			dbname := dsn[i+1 : j]
			cfg.Dbname = dbname
			break
		}
	}

	if !foundSlash && len(dsn) > 0 {
		return nil, ErrInvalidDSNNoSlash
	}

	if err = cfg.normalize(); err != nil {
		return nil, err
	}
	return
}

func parseDSNParams(cfg *Config, params string) error {
	for _, v := range strings.Split(params, "&") {
		key, value, found := strings.Cut(v, "=")
		if !found {
			continue
		}
		if cfg.PropertiesSet.Contains(strings.ToLower(key)) {
			switch strings.ToLower(key) {
			case "maxretrycount":
				var isInt bool
				cfg.MaxRetry, isInt = readInt(value)
				if !isInt {
					return errors.New("invalid int value: " + value)
				}
			case "disconnectonreadonly":
				var isBool bool
				cfg.DisconnectOnReadonly, isBool = readBool(value)
				if !isBool {
					return errors.New("invalid bool value: " + value)
				}
			case "reconnectonreadonly":
				var isBool bool
				cfg.ReconnectOnReadonly, isBool = readBool(value)
				if !isBool {
					return errors.New("invalid bool value: " + value)
				}
			case "enablelog":
				var isBool bool
				cfg.EnableLog, isBool = readBool(value)
				if !isBool {
					return errors.New("invalid bool value: " + value)
				}
			default:

			}
		} else {
			cfg.MysqlParams[key] = value
		}
	}
	return nil
}
