package storage

import (
	"net/url"
	"path/filepath"
	"strings"
)

// Kind identifies the backend a store path selects.
type Kind string

const (
	KindJSON     Kind = "json"
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
)

// KindOf picks the backend for a store path or connection string.
// PostgreSQL URLs select Postgres, *.json files the local document store,
// anything else SQLite.
func KindOf(path string) Kind {
	switch {
	case IsPostgres(path):
		return KindPostgres
	case strings.EqualFold(filepath.Ext(path), ".json"):
		return KindJSON
	default:
		return KindSQLite
	}
}

// IsPostgres reports whether s looks like a PostgreSQL connection URL.
func IsPostgres(s string) bool {
	return strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://")
}

// HasEmbeddedCredentials reports whether a PostgreSQL connection string
// carries a password, in URL or key=value form.
func HasEmbeddedCredentials(connStr string) bool {
	if IsPostgres(connStr) {
		u, err := url.Parse(connStr)
		if err != nil {
			// unparseable URLs are treated as unsafe
			return true
		}
		_, isSet := u.User.Password()
		return isSet
	}
	for _, pair := range strings.Fields(connStr) {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) == 2 && strings.EqualFold(strings.TrimSpace(kv[0]), "password") {
			return true
		}
	}
	return false
}
