package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dujiao-next/cartflow/internal/logger"
	"github.com/dujiao-next/cartflow/internal/models"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Store     StoreConfig     `mapstructure:"store"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Queue     QueueConfig     `mapstructure:"queue"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Order     OrderConfig     `mapstructure:"order"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host                   string `mapstructure:"host"`
	Port                   string `mapstructure:"port"`
	Mode                   string `mapstructure:"mode"`    // debug / release
	Tracing                bool   `mapstructure:"tracing"` // 使用 otelhttp 包装 HTTP 处理器
	ReadTimeoutSeconds     int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `mapstructure:"write_timeout_seconds"`
	IdleTimeoutSeconds     int    `mapstructure:"idle_timeout_seconds"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds"`
}

// Addr 监听地址
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// ReadTimeout 读取请求超时（含请求头）
func (c ServerConfig) ReadTimeout() time.Duration {
	return secondsOr(c.ReadTimeoutSeconds, 15)
}

// WriteTimeout 写响应超时
func (c ServerConfig) WriteTimeout() time.Duration {
	return secondsOr(c.WriteTimeoutSeconds, 30)
}

// IdleTimeout keep-alive 空闲超时
func (c ServerConfig) IdleTimeout() time.Duration {
	return secondsOr(c.IdleTimeoutSeconds, 60)
}

// ShutdownTimeout 优雅停机等待时间
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return secondsOr(c.ShutdownTimeoutSeconds, 10)
}

func secondsOr(seconds, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
	Stdout     bool   `mapstructure:"stdout"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Level:      c.Level,
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
		Stdout:     c.Stdout,
	}
}

// PoolConfig SQL 连接池配置
type PoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// ToDBPoolConfig 转换为 models 连接池配置
func (c PoolConfig) ToDBPoolConfig() models.DBPoolConfig {
	return models.DBPoolConfig{
		MaxOpenConns:           c.MaxOpenConns,
		MaxIdleConns:           c.MaxIdleConns,
		ConnMaxLifetimeSeconds: c.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: c.ConnMaxIdleTimeSeconds,
	}
}

// MongoConfig MongoDB 配置
type MongoConfig struct {
	URI                   string `mapstructure:"uri"`
	Database              string `mapstructure:"database"`
	Transactions          bool   `mapstructure:"transactions"` // 需要副本集
	ConnectTimeoutSeconds int    `mapstructure:"connect_timeout_seconds"`
}

// ConnectTimeout 连接超时
func (c MongoConfig) ConnectTimeout() time.Duration {
	if c.ConnectTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ConnectTimeoutSeconds) * time.Second
}

// StoreConfig 存储配置
type StoreConfig struct {
	Driver  string      `mapstructure:"driver"`   // file / sqlite / postgres / mongo
	DataDir string      `mapstructure:"data_dir"` // 文件存储目录
	DSN     string      `mapstructure:"dsn"`      // SQL 连接串
	Pool    PoolConfig  `mapstructure:"pool"`
	Mongo   MongoConfig `mapstructure:"mongo"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	Password          string `mapstructure:"password"`
	DB                int    `mapstructure:"db"`
	Prefix            string `mapstructure:"prefix"`
	ProductTTLSeconds int    `mapstructure:"product_ttl_seconds"`
	PoolSize          int    `mapstructure:"pool_size"` // 0 使用客户端默认值
}

// ProductTTL 商品缓存时长
func (c RedisConfig) ProductTTL() time.Duration {
	if c.ProductTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.ProductTTLSeconds) * time.Second
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled             bool           `mapstructure:"enabled"`
	Host                string         `mapstructure:"host"`
	Port                int            `mapstructure:"port"`
	Password            string         `mapstructure:"password"`
	DB                  int            `mapstructure:"db"`
	Concurrency         int            `mapstructure:"concurrency"`
	Queues              map[string]int `mapstructure:"queues"`
	MaxRetry            int            `mapstructure:"max_retry"`             // 订单事件最大重试次数
	EventRetentionHours int            `mapstructure:"event_retention_hours"` // 已完成事件保留时长，0 表示不保留
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// RateLimitConfig 写接口限流配置（依赖 Redis，未启用时不限流）
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// OrderConfig 订单配置
type OrderConfig struct {
	RecoveryIntervalSeconds int `mapstructure:"recovery_interval_seconds"` // 暂存下单巡检间隔
	RecoveryDelaySeconds    int `mapstructure:"recovery_delay_seconds"`    // 清理失败后延迟修复
}

// RecoveryInterval 巡检间隔
func (c OrderConfig) RecoveryInterval() time.Duration {
	if c.RecoveryIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.RecoveryIntervalSeconds) * time.Second
}

// RecoveryDelay 修复任务延迟
func (c OrderConfig) RecoveryDelay() time.Duration {
	if c.RecoveryDelaySeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.RecoveryDelaySeconds) * time.Second
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.tracing", false)
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.idle_timeout_seconds", 60)
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("log.level", "")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("log.stdout", false)
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.data_dir", "./data")
	v.SetDefault("store.dsn", "./db/cartflow.db")
	v.SetDefault("store.pool.max_open_conns", 1)
	v.SetDefault("store.pool.max_idle_conns", 1)
	v.SetDefault("store.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("store.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("store.mongo.uri", "mongodb://127.0.0.1:27017")
	v.SetDefault("store.mongo.database", "cartflow")
	v.SetDefault("store.mongo.transactions", false)
	v.SetDefault("store.mongo.connect_timeout_seconds", 10)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "cf")
	v.SetDefault("redis.product_ttl_seconds", 300)
	v.SetDefault("redis.pool_size", 0)
	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.max_retry", 3)
	v.SetDefault("queue.event_retention_hours", 24)
	v.SetDefault("queue.queues", map[string]int{
		"critical": 6,
		"default":  3,
	})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Origin",
		"Content-Type",
		"Accept",
		"X-Request-ID",
	})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("rate_limit.window_seconds", 60)
	v.SetDefault("rate_limit.max_requests", 0)
	v.SetDefault("order.recovery_interval_seconds", 60)
	v.SetDefault("order.recovery_delay_seconds", 30)
}

// LoadFile 从指定文件加载配置，path 为空时按默认路径查找 config.yml
func LoadFile(path string) *Config {
	v := viper.GetViper()
	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")     // 从当前目录查找
		v.AddConfigPath("../")   // 如果从 cmd/server 运行
		v.AddConfigPath("./etc") // etc 文件夹
	}

	setDefaults(v)

	v.AutomaticEnv()                                   // 自动读取环境变量
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // 将 . 替换为 _ (例如 store.driver -> STORE_DRIVER)

	if err := v.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", v.ConfigFileUsed())
	}

	cfg, err := decode(v)
	if err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}
	return cfg
}

// Defaults 仅使用默认值构建配置（测试与工具使用）
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		panic(fmt.Errorf("默认配置解析失败: %w", err))
	}
	return cfg
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	return &cfg, nil
}
