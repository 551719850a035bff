package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	SourceKindXLSX  = "xlsx"
	SourceKindMysql = "mysql"

	placeholderShopDomain = "your-store.myshopify.com"
	placeholderToken      = "shpat_xxxxxxxxxxxxx"
)

type Config struct {
	Shopify     ShopifyConfig
	Source      SourceConfig
	Mysql       MysqlConfig
	Sync        SyncConfig
	TelegramBot TelegramBotConfig
	LogFormat   string
}

type ShopifyConfig struct {
	ShopDomain string
	Token      string
	APIVer     string
	Timeout    time.Duration
}

type SourceConfig struct {
	Kind  string
	Path  string
	Sheet string
}

type MysqlConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
	Table    string
	// OrderBy is a comma-separated column list; empty means the primary key.
	OrderBy string
}

// SyncConfig holds the pacing knobs of a catalog run.
type SyncConfig struct {
	ThrottleThreshold     int
	ThrottleCooldown      time.Duration
	InventoryPollAttempts int
	InventoryPollInterval time.Duration
	SettleDelay           time.Duration
}

type TelegramBotConfig struct {
	ChatId string
	Token  string
}

// NormalizeSourceKind folds a source kind as given on the command line or in
// the environment.
func NormalizeSourceKind(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind))
}

func (c Config) Validate() error {
	var errs []error

	domain := strings.TrimSpace(c.Shopify.ShopDomain)
	token := strings.TrimSpace(c.Shopify.Token)
	if domain == "" || strings.EqualFold(domain, placeholderShopDomain) {
		errs = append(errs, errors.New("shopify shop domain must be set to a real store"))
	}
	if token == "" || token == placeholderToken {
		errs = append(errs, errors.New("shopify admin token must be set to a real token"))
	}
	if strings.TrimSpace(c.Shopify.APIVer) == "" {
		errs = append(errs, errors.New("shopify api version is empty"))
	}

	switch c.Source.Kind {
	case SourceKindXLSX:
		if strings.TrimSpace(c.Source.Path) == "" {
			errs = append(errs, errors.New("source path is required for xlsx source"))
		}
	case SourceKindMysql:
		if c.Mysql.Host == "" || c.Mysql.Username == "" || c.Mysql.Database == "" || c.Mysql.Table == "" {
			errs = append(errs, errors.New("mysql host, username, database and table are required for mysql source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source kind %q", c.Source.Kind))
	}

	if c.Sync.InventoryPollAttempts < 1 {
		errs = append(errs, errors.New("inventory poll attempts must be at least 1"))
	}

	return errors.Join(errs...)
}
