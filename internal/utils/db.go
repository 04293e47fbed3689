package utils

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// BuildPostgresDSNFromEnv：由 PG_* 环境变量拼装 DSN
func BuildPostgresDSNFromEnv() string {
	host := Getenv("PG_HOST", "localhost")
	port := Getenv("PG_PORT", "5432")
	user := Getenv("PG_USER", "postgres")
	pass := Getenv("PG_PASSWORD", "")
	db := Getenv("PG_DB", "votemap")
	ssl := Getenv("PG_SSLMODE", "disable")
	dsn := "postgres://" + user
	if pass != "" {
		dsn += ":" + pass
	}
	dsn += "@" + host + ":" + port + "/" + db + "?sslmode=" + ssl
	return dsn
}

// OpenPostgresFromEnv：打开连接池；sql.Open 不建立连接，调用方需自行 Ping
func OpenPostgresFromEnv() (*sql.DB, error) {
	db, err := sql.Open("postgres", BuildPostgresDSNFromEnv())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(GetenvInt("PG_MAX_OPEN_CONNS", 20))
	db.SetMaxIdleConns(GetenvInt("PG_MAX_IDLE_CONNS", 10))
	return db, nil
}
