package database

import (
	"slices"
	"strings"
)

// Driver names a storage backend that speaks SQL.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
	DriverMySQL    Driver = "mysql"
)

var knownDrivers = []Driver{DriverPostgres, DriverSQLite, DriverMySQL}

func (d Driver) String() string { return string(d) }

func (d Driver) IsValid() bool { return slices.Contains(knownDrivers, d) }

// SupportsTransactionalDDL reports whether schema changes roll back with
// the surrounding transaction. MySQL commits DDL implicitly.
func (d Driver) SupportsTransactionalDDL() bool { return d != DriverMySQL }

// UnicodeLowerFunc is the SQL function the SQLite driver registers to
// lowercase beyond ASCII. SQLite's built-in lower only folds A-Z.
const UnicodeLowerFunc = "unicode_lower"

// LowerExpr renders a Unicode-aware lowercase of expr for the driver.
func (d Driver) LowerExpr(expr string) string {
	if d == DriverSQLite {
		return UnicodeLowerFunc + "(" + expr + ")"
	}
	return "LOWER(" + expr + ")"
}

var (
	sqliteHints = struct{ prefixes, suffixes []string }{
		prefixes: []string{"sqlite://", "file:"},
		suffixes: []string{".db", ".sqlite", ".sqlite3"},
	}
	// go-sql-driver DSNs look like user:pass@tcp(host:3306)/db.
	mysqlMarkers = []string{"@tcp(", "@unix("}
)

// DetectDriver guesses the backend from a connection string. An empty
// string means local SQLite, and anything unrecognised is handed to
// PostgreSQL, which also accepts key=value DSNs.
func DetectDriver(url string) Driver {
	switch {
	case url == "":
		return DriverSQLite
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres
	case strings.HasPrefix(url, "mysql://"), containsAny(url, mysqlMarkers):
		return DriverMySQL
	case hasAnyPrefix(url, sqliteHints.prefixes), hasAnySuffix(url, sqliteHints.suffixes):
		return DriverSQLite
	default:
		return DriverPostgres
	}
}

func containsAny(s string, subs []string) bool {
	return slices.ContainsFunc(subs, func(sub string) bool { return strings.Contains(s, sub) })
}

func hasAnyPrefix(s string, prefixes []string) bool {
	return slices.ContainsFunc(prefixes, func(p string) bool { return strings.HasPrefix(s, p) })
}

func hasAnySuffix(s string, suffixes []string) bool {
	return slices.ContainsFunc(suffixes, func(p string) bool { return strings.HasSuffix(s, p) })
}
