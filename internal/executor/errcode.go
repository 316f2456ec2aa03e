package executor

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/sijms/go-ora/v2/network"
	"modernc.org/sqlite"
)

var (
	oracleCodePattern = regexp.MustCompile(`\bORA-\d{5}\b`)
	sqlStatePattern   = regexp.MustCompile(`\bSQLSTATE[\s:=]*([0-9A-Z]{5})\b`)
)

// ErrorCode extracts the primary vendor error code from a driver error.
// Typed driver errors are preferred; otherwise the first ORA-nnnnn or
// SQLSTATE token in the message is used. It returns "" when err carries
// no recognizable code.
//
// Code formats: Oracle "ORA-00942", Postgres SQLSTATE "42P01", MySQL
// error number "1051", SQLite "SQLITE-1".
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var oraErr *network.OracleError
	if errors.As(err, &oraErr) {
		return fmt.Sprintf("ORA-%05d", oraErr.ErrCode)
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return strconv.Itoa(int(myErr.Number))
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return "SQLITE-" + strconv.Itoa(liteErr.Code())
	}

	msg := err.Error()
	if code := oracleCodePattern.FindString(msg); code != "" {
		return code
	}
	if m := sqlStatePattern.FindStringSubmatch(msg); m != nil {
		return m[1]
	}
	return ""
}
