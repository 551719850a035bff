package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"shopify-catalog-sync/internal/config"
	"time"

	driver "github.com/go-sql-driver/mysql"
)

func DSN(cfg config.MysqlConfig) string {
	port := cfg.Port
	if port == 0 {
		port = 3306
	}
	dsn := driver.NewConfig()
	dsn.User = cfg.Username
	dsn.Passwd = cfg.Password
	dsn.Net = "tcp"
	dsn.Addr = fmt.Sprintf("%s:%d", cfg.Host, port)
	dsn.DBName = cfg.Database
	dsn.ParseTime = true
	return dsn.FormatDSN()
}

func New(ctx context.Context, cfg config.MysqlConfig) (*sql.DB, error) {
	if cfg.Host == "" || cfg.Username == "" || cfg.Database == "" {
		return nil, fmt.Errorf("Host or Username or Database values is empty")
	}

	db, err := sql.Open("mysql", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("mysql connection error %w", err)
	}

	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if errDb := db.PingContext(pingCtx); errDb != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql: ping %w", errDb)
	}

	return db, nil
}
