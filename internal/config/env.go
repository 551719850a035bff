package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrMissingEnv = errors.New("missing required env var")

const (
	defaultAPIVersion        = "2024-10"
	defaultTimeoutSeconds    = 30
	defaultThrottleThreshold = 200
	defaultThrottleCooldown  = 5
	defaultPollAttempts      = 3
	defaultPollInterval      = 2
	defaultSettleDelay       = 2
	defaultMysqlPort         = 3306
)

// LoadForCatalogSync reads the run configuration from the environment. It
// does not validate credentials; call Config.Validate before the first request.
func LoadForCatalogSync() (Config, error) {
	var errs []error

	domain, err := requiredString("SHOPIFY_SHOP_DOMAIN")
	errs = append(errs, err)
	token, err := requiredString("SHOPIFY_ADMIN_TOKEN")
	errs = append(errs, err)

	timeout, err := intWithDefault("SHOPIFY_TIMEOUT_SECONDS", defaultTimeoutSeconds)
	errs = append(errs, err)
	mysqlPort, err := intWithDefault("MYSQL_PORT", defaultMysqlPort)
	errs = append(errs, err)

	threshold, err := intWithDefault("SYNC_THROTTLE_THRESHOLD", defaultThrottleThreshold)
	errs = append(errs, err)
	cooldown, err := intWithDefault("SYNC_THROTTLE_COOLDOWN_SECONDS", defaultThrottleCooldown)
	errs = append(errs, err)
	attempts, err := intWithDefault("SYNC_INVENTORY_POLL_ATTEMPTS", defaultPollAttempts)
	errs = append(errs, err)
	interval, err := intWithDefault("SYNC_INVENTORY_POLL_INTERVAL_SECONDS", defaultPollInterval)
	errs = append(errs, err)
	settle, err := intWithDefault("SYNC_SETTLE_DELAY_SECONDS", defaultSettleDelay)
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	return Config{
		Shopify: ShopifyConfig{
			ShopDomain: domain,
			Token:      token,
			APIVer:     stringWithDefault("SHOPIFY_API_VERSION", defaultAPIVersion),
			Timeout:    time.Duration(timeout) * time.Second,
		},
		Source: SourceConfig{
			Kind:  NormalizeSourceKind(stringWithDefault("SOURCE_KIND", SourceKindXLSX)),
			Path:  stringWithDefault("SOURCE_PATH", ""),
			Sheet: stringWithDefault("SOURCE_SHEET", ""),
		},
		Mysql: MysqlConfig{
			Host:     stringWithDefault("MYSQL_HOST", ""),
			Port:     mysqlPort,
			Username: stringWithDefault("MYSQL_USER", ""),
			Password: stringWithDefault("MYSQL_PASSWORD", ""),
			Database: stringWithDefault("MYSQL_DATABASE", ""),
			Table:    stringWithDefault("MYSQL_TABLE", "catalog_rows"),
			OrderBy:  stringWithDefault("MYSQL_ORDER_BY", ""),
		},
		Sync: SyncConfig{
			ThrottleThreshold:     threshold,
			ThrottleCooldown:      time.Duration(cooldown) * time.Second,
			InventoryPollAttempts: attempts,
			InventoryPollInterval: time.Duration(interval) * time.Second,
			SettleDelay:           time.Duration(settle) * time.Second,
		},
		TelegramBot: TelegramBotConfig{
			ChatId: stringWithDefault("TELEGRAM_CHAT_ID", ""),
			Token:  stringWithDefault("TELEGRAM_TOKEN", ""),
		},
		LogFormat: stringWithDefault("LOG_FORMAT", "json"),
	}, nil
}

func requiredString(key string) (string, error) {
	variable, isOk := os.LookupEnv(key)
	if !isOk || strings.TrimSpace(variable) == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, key)
	}
	return strings.TrimSpace(variable), nil
}

func stringWithDefault(key, def string) string {
	variable, isOk := os.LookupEnv(key)
	if !isOk || strings.TrimSpace(variable) == "" {
		return def
	}
	return strings.TrimSpace(variable)
}

func intWithDefault(key string, def int) (int, error) {
	variable, isOk := os.LookupEnv(key)
	if !isOk || strings.TrimSpace(variable) == "" {
		return def, nil
	}
	number, err := strconv.Atoi(strings.TrimSpace(variable))
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %w", key, err)
	}
	return number, nil
}
