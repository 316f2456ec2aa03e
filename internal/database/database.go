package database

import (
	"context"
	"database/sql"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	go_ora "github.com/sijms/go-ora/v2"
)

// DatabaseType identifies a supported database engine.
type DatabaseType string

const (
	DatabaseTypeOracle   DatabaseType = "oracle"
	DatabaseTypePostgres DatabaseType = "postgres"
	DatabaseTypeSQLite   DatabaseType = "sqlite"
	DatabaseTypeLibSQL   DatabaseType = "libsql"
	DatabaseTypeMySQL    DatabaseType = "mysql"
)

const (
	defaultOraclePort     = 1521
	defaultConnectTimeout = 5 * time.Second
)

// ParseDatabaseType validates a configured driver name. "postgresql" is
// accepted as an alias of "postgres".
func ParseDatabaseType(s string) (DatabaseType, error) {
	switch t := DatabaseType(strings.ToLower(strings.TrimSpace(s))); t {
	case DatabaseTypeOracle, DatabaseTypePostgres, DatabaseTypeSQLite, DatabaseTypeLibSQL, DatabaseTypeMySQL:
		return t, nil
	case "postgresql":
		return DatabaseTypePostgres, nil
	default:
		return "", errors.Errorf("unsupported database driver: %s", s)
	}
}

// DetectType infers the database type from a connection string. It
// returns "" when the string matches no known form.
func DetectType(connStr string) DatabaseType {
	lower := strings.ToLower(strings.TrimSpace(connStr))

	switch {
	case strings.HasPrefix(lower, "oracle://"):
		return DatabaseTypeOracle
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return DatabaseTypePostgres
	case strings.HasPrefix(lower, "libsql://"):
		return DatabaseTypeLibSQL
	case strings.HasPrefix(lower, "mysql://"):
		return DatabaseTypeMySQL
	case lower == ":memory:", isSQLiteFilePath(lower):
		return DatabaseTypeSQLite
	}
	return ""
}

// SQLDriverName returns the database/sql driver registered for t.
func SQLDriverName(t DatabaseType) string {
	switch t {
	case DatabaseTypeSQLite:
		return "sqlite"
	case DatabaseTypeLibSQL:
		return "libsql"
	case DatabaseTypeMySQL:
		return "mysql"
	case DatabaseTypeOracle:
		return "oracle"
	default:
		return "postgres"
	}
}

// OracleURL builds a go-ora connection URL from credentials and an easy
// connect DSN of the form host[:port]/service.
func OracleURL(user, password, dsn string) (string, error) {
	hostPort, service, ok := strings.Cut(strings.TrimPrefix(dsn, "//"), "/")
	if !ok || hostPort == "" || service == "" {
		return "", errors.Errorf("invalid oracle dsn %q, expected host[:port]/service", dsn)
	}

	host, port := hostPort, defaultOraclePort
	if strings.Contains(hostPort, ":") {
		h, p, err := net.SplitHostPort(hostPort)
		if err != nil {
			return "", errors.Wrapf(err, "invalid oracle dsn %q", dsn)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return "", errors.Wrapf(err, "invalid port in oracle dsn %q", dsn)
		}
		host, port = h, n
	}

	return go_ora.BuildUrl(host, port, service, user, password, nil), nil
}

// ConnectionConfig describes how to reach the target database.
type ConnectionConfig struct {
	// DatabaseType is detected from URL when empty.
	DatabaseType DatabaseType
	URL          string
	// User, Password and OracleDSN build an Oracle URL when URL is empty.
	User      string
	Password  string
	OracleDSN string
	// ConnectTimeout bounds opening and pinging; zero means 5s.
	ConnectTimeout time.Duration
}

// driverAndDSN resolves the database/sql driver name and data source name.
func (c ConnectionConfig) driverAndDSN() (DatabaseType, string, error) {
	dbType := c.DatabaseType
	if dbType == "" {
		if c.URL == "" && c.OracleDSN != "" {
			dbType = DatabaseTypeOracle
		} else {
			dbType = DetectType(c.URL)
		}
	}
	if dbType == "" {
		if c.URL == "" {
			return "", "", errors.New("no database connection configured")
		}
		return "", "", errors.Errorf("cannot detect database type from %q, set driver explicitly", Redact(c.URL))
	}

	switch dbType {
	case DatabaseTypeOracle:
		if c.URL != "" {
			return dbType, c.URL, nil
		}
		dsn, err := OracleURL(c.User, c.Password, c.OracleDSN)
		return dbType, dsn, err
	case DatabaseTypeSQLite:
		dsn, err := sqliteDSN(c.URL)
		return dbType, dsn, err
	case DatabaseTypeMySQL:
		return dbType, strings.TrimPrefix(c.URL, "mysql://"), nil
	default:
		if c.URL == "" {
			return "", "", errors.Errorf("no connection url configured for %s", dbType)
		}
		return dbType, c.URL, nil
	}
}

// Session is one exclusively owned database connection. It pins a single
// connection from the pool so session state carries across statements.
type Session struct {
	Type DatabaseType
	db   *sql.DB
	conn *sql.Conn
}

// Open connects to the database described by cfg and verifies the
// connection with a ping. The caller must Close the session.
func Open(ctx context.Context, cfg ConnectionConfig) (*Session, error) {
	dbType, dsn, err := cfg.driverAndDSN()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(SQLDriverName(dbType), dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open connection")
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := db.Conn(pingCtx)
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to acquire connection")
	}
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return &Session{Type: dbType, db: db, conn: conn}, nil
}

// ExecContext runs query on the pinned connection.
func (s *Session) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.conn.ExecContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query on the pinned connection.
func (s *Session) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return s.conn.QueryRowContext(ctx, query, args...)
}

// Close releases the pinned connection and the pool behind it.
func (s *Session) Close() error {
	connErr := s.conn.Close()
	dbErr := s.db.Close()
	if connErr != nil {
		return errors.Wrap(connErr, "failed to release connection")
	}
	if dbErr != nil {
		return errors.Wrap(dbErr, "failed to close database")
	}
	return nil
}

// Redact hides the password of a URL-style connection string.
func Redact(connStr string) string {
	scheme, rest, ok := strings.Cut(connStr, "://")
	if !ok {
		return connStr
	}
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return connStr
	}
	userInfo := rest[:at]
	if user, _, hasPass := strings.Cut(userInfo, ":"); hasPass {
		return scheme + "://" + user + ":xxxxx" + rest[at:]
	}
	return connStr
}
