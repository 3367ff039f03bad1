package conn

import (
	"fmt"
	"net/url"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Flavor selects the relational engine behind a store connection.
type Flavor string

const (
	// FlavorEmbedded is a local sqlite database file (or ":memory:").
	FlavorEmbedded Flavor = "embedded"
	// FlavorNetworked is a postgres server reachable over the network.
	FlavorNetworked Flavor = "networked"
)

const (
	defaultPostgresHost    = "localhost"
	defaultPostgresPort    = 5432
	defaultPostgresSSLMode = "disable"
)

// Option defines connection options. For the embedded flavor only ConnString
// (the database path) is consulted; the remaining fields build a postgres DSN
// when ConnString is empty.
type Option struct {
	Flavor     Flavor
	Host       string
	Port       int
	User       string
	Password   string
	Database   string
	SSLMode    string
	Params     map[string]string
	ConnString string
	Config     *gorm.Config
}

// Client wraps a relational connection pool.
type Client struct {
	opt Option
	db  *gorm.DB
}

// New opens a connection for the requested flavor.
func New(option Option) (*Client, error) {
	config := option.Config
	if config == nil {
		config = &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	}

	var (
		db  *gorm.DB
		err error
	)
	switch option.Flavor {
	case FlavorEmbedded:
		if option.ConnString == "" {
			return nil, fmt.Errorf("embedded flavor requires a database path")
		}
		db, err = gorm.Open(sqlite.Open(option.ConnString), config)
	case FlavorNetworked:
		connString, dsnErr := option.dsn()
		if dsnErr != nil {
			return nil, dsnErr
		}
		db, err = gorm.Open(postgres.Open(connString), config)
	default:
		return nil, fmt.Errorf("unknown flavor %q", option.Flavor)
	}
	if err != nil {
		return nil, err
	}

	return &Client{opt: option, db: db}, nil
}

// DB returns the underlying gorm.DB instance.
func (c *Client) DB() *gorm.DB {
	if c == nil {
		return nil
	}
	return c.db
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (opt Option) dsn() (string, error) {
	if opt.ConnString != "" {
		return opt.ConnString, nil
	}

	host := opt.Host
	if host == "" {
		host = defaultPostgresHost
	}

	port := opt.Port
	if port == 0 {
		port = defaultPostgresPort
	}

	sslMode := opt.SSLMode
	if sslMode == "" {
		sslMode = defaultPostgresSSLMode
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", host, port),
	}

	if opt.User != "" {
		if opt.Password != "" {
			u.User = url.UserPassword(opt.User, opt.Password)
		} else {
			u.User = url.User(opt.User)
		}
	}

	if opt.Database != "" {
		u.Path = "/" + opt.Database
	}

	query := url.Values{}
	query.Set("sslmode", sslMode)
	for key, value := range opt.Params {
		if key == "" {
			continue
		}
		query.Set(key, value)
	}
	if len(query) != 0 {
		u.RawQuery = query.Encode()
	}

	return u.String(), nil
}
