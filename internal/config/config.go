package config

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

/*
把init config跟read config分開
init : 需要設置viper watch 與 onConfigChange
read config : 一般讀寫  需要使用讀寫鎖
*/
var configSingleton *ConfigSingleton
var muonce sync.Once

type ConfigSingleton struct {
	Config *Config
	mu     sync.RWMutex
}

const (
	ChangeFeedKafka = "kafka"
	ChangeFeedLocal = "local"

	OrderStorePostgres = "postgres"
	OrderStoreMemory   = "memory"

	PartnerCacheRedis = "redis"
	PartnerCacheNone  = "none"

	// ConfigPathEnv 指定 .env 路徑，預設 ./.env
	ConfigPathEnv = "ORDER_ADMIN_CONFIG"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
)

type Config struct {
	ServiceName        string        `mapstructure:"SERVICE_NAME"`
	ServerPort         string        `mapstructure:"SERVER_PORT"`
	OrderStore         string        `mapstructure:"ORDER_STORE"`
	MemorySeedOrders   int           `mapstructure:"MEMORY_SEED_ORDERS"`
	DbName             string        `mapstructure:"POSTGRES_DB"`
	DbHost             string        `mapstructure:"POSTGRES_HOST"`
	DbPort             string        `mapstructure:"POSTGRES_PORT"`
	DbUser             string        `mapstructure:"POSTGRES_USER"`
	DbPas              string        `mapstructure:"POSTGRES_PASSWORD"`
	PartnerCache       string        `mapstructure:"PARTNER_CACHE"`
	PartnerCacheTTL    time.Duration `mapstructure:"PARTNER_CACHE_TTL"`
	RedisAddr          string        `mapstructure:"REDIS_ADDR"`
	RedisPassword      string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB            int           `mapstructure:"REDIS_DB"`
	ChangeFeed         string        `mapstructure:"CHANGE_FEED"`
	KafkaBrokers       []string      `mapstructure:"KAFKA_BROKERS"`
	KafkaChangeTopic   string        `mapstructure:"KAFKA_CHANGE_TOPIC"`
	KafkaConsumerGroup string        `mapstructure:"KAFKA_CONSUMER_GROUP"`
	RendererURL        string        `mapstructure:"RENDERER_URL"`
	RendererTimeout    time.Duration `mapstructure:"RENDERER_TIMEOUT"`
	BulkWorkers        int           `mapstructure:"BULK_WORKERS"`
	BulkRatePS         float64       `mapstructure:"BULK_RATE_PS"`
	BulkRateBurst      int           `mapstructure:"BULK_RATE_BURST"`
	StrictTransitions  bool          `mapstructure:"ORDER_STRICT_TRANSITIONS"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	LogPretty          bool          `mapstructure:"LOG_PRETTY"`
	OtelExporterURL    string        `mapstructure:"OTEL_EXPORTER_URL"`
	OtelSampleRate     float64       `mapstructure:"OTEL_SAMPLE_RATE"`
}

// 每個 key 都要有預設值，AutomaticEnv 才能在 Unmarshal 時覆蓋
var defaults = map[string]any{
	"SERVICE_NAME":             "order-admin",
	"SERVER_PORT":              "8080",
	"ORDER_STORE":              OrderStorePostgres,
	"MEMORY_SEED_ORDERS":       25,
	"POSTGRES_DB":              "order_admin",
	"POSTGRES_HOST":            "localhost",
	"POSTGRES_PORT":            "5432",
	"POSTGRES_USER":            "postgres",
	"POSTGRES_PASSWORD":        "",
	"PARTNER_CACHE":            PartnerCacheRedis,
	"PARTNER_CACHE_TTL":        "10m",
	"REDIS_ADDR":               "localhost:6379",
	"REDIS_PASSWORD":           "",
	"REDIS_DB":                 0,
	"CHANGE_FEED":              ChangeFeedKafka,
	"KAFKA_BROKERS":            "localhost:9092",
	"KAFKA_CHANGE_TOPIC":       "order-changes",
	"KAFKA_CONSUMER_GROUP":     "order-admin",
	"RENDERER_URL":             "http://localhost:8090",
	"RENDERER_TIMEOUT":         "15s",
	"BULK_WORKERS":             1,
	"BULK_RATE_PS":             0.0,
	"BULK_RATE_BURST":          5,
	"ORDER_STRICT_TRANSITIONS": false,
	"LOG_LEVEL":                "info",
	"LOG_PRETTY":               false,
	"OTEL_EXPORTER_URL":        "",
	"OTEL_SAMPLE_RATE":         1.0,
}

func GetConfig() *Config {
	initConfig()
	configSingleton.mu.RLock()
	defer configSingleton.mu.RUnlock()
	return configSingleton.Config
}

func initConfig() {
	if configSingleton == nil {
		muonce.Do(func() {
			configSingleton = &ConfigSingleton{}
			path := configPath()
			v := viper.New()
			cf, err := loadConfig(v, path)
			if err != nil {
				log.Fatal().Err(err).Str("path", path).Msg("error read config")
			}
			configSingleton.Config = cf

			if !fileExists(path) {
				return
			}
			v.OnConfigChange(func(e fsnotify.Event) {
				cf, err := loadConfig(v, path)
				if err != nil {
					log.Error().Err(err).Str("file", e.Name).Msg("failed to reload config file, keep previous config")
					return
				}
				configSingleton.mu.Lock()
				configSingleton.Config = cf
				configSingleton.mu.Unlock()
				log.Info().Str("file", e.Name).Msg("config reloaded")
			})
			v.WatchConfig()
		})
	}
}

// Load 讀取指定路徑的設定，不使用 singleton
// 單純回傳錯誤  由外部決定要不要Fatal
func Load(path string) (*Config, error) {
	return loadConfig(viper.New(), path)
}

func loadConfig(v *viper.Viper, path string) (*Config, error) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if fileExists(path) {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cf := &Config{}
	if err := v.Unmarshal(cf); err != nil {
		return nil, err
	}
	if err := cf.Validate(); err != nil {
		return nil, err
	}
	return cf, nil
}

func (c *Config) Validate() error {
	switch c.OrderStore {
	case OrderStorePostgres, OrderStoreMemory:
	default:
		return fmt.Errorf("%w: ORDER_STORE %q", ErrInvalidConfig, c.OrderStore)
	}
	switch c.ChangeFeed {
	case ChangeFeedKafka, ChangeFeedLocal:
	default:
		return fmt.Errorf("%w: CHANGE_FEED %q", ErrInvalidConfig, c.ChangeFeed)
	}
	switch c.PartnerCache {
	case PartnerCacheRedis, PartnerCacheNone:
	default:
		return fmt.Errorf("%w: PARTNER_CACHE %q", ErrInvalidConfig, c.PartnerCache)
	}
	if c.BulkWorkers < 1 {
		return fmt.Errorf("%w: BULK_WORKERS must be >= 1", ErrInvalidConfig)
	}
	if c.BulkRatePS < 0 || (c.BulkRatePS > 0 && c.BulkRateBurst < 1) {
		return fmt.Errorf("%w: BULK_RATE_PS must be >= 0 and BULK_RATE_BURST >= 1 when limiting", ErrInvalidConfig)
	}
	if c.ChangeFeed == ChangeFeedKafka && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("%w: KAFKA_BROKERS is required for the kafka change feed", ErrInvalidConfig)
	}
	return nil
}

func configPath() string {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p
	}
	return "./.env"
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
