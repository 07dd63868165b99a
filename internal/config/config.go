package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig 聚合运行时配置，尽量通过环境变量注入，避免硬编码。
// 业务参数（运费门槛、佣金费率等）不在这里：那些走 SiteSetting 热改。
type AppConfig struct {
	HTTPAddr string
	DBPath   string

	// 后台接口的简单管理员令牌（demo 级别保护）
	AdminToken string

	RedisAddr string
	RedisDB   int

	// Kafka 集群地址（逗号分隔）、Topic、消费者组
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// 通知 outbox（API 原子入流，Relay 异步转 Kafka）
	NotifyEventStream   string
	NotifyEventGroup    string
	NotifyEventConsumer string

	// 结算接口限流
	CheckoutRateLimit  int
	CheckoutRateWindow time.Duration

	// Razorpay 网关密钥，缺省时在线支付验签一律失败
	RazorpayKeyID     string
	RazorpayKeySecret string
}

// Load 读取并校验配置，缺失时使用默认值。
func Load() (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DBPath:              getEnv("DB_PATH", "agri_market.db"),
		AdminToken:          getEnv("ADMIN_TOKEN", "dev-admin-token"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:             0,
		KafkaBrokers:        splitCSV(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:          getEnv("KAFKA_TOPIC", "agri-market-notifications"),
		KafkaGroupID:        getEnv("KAFKA_GROUP_ID", "agri-market-notify-consumer"),
		NotifyEventStream:   getEnv("NOTIFY_EVENT_STREAM", "agri_market:notify_events"),
		NotifyEventGroup:    getEnv("NOTIFY_EVENT_GROUP", "agri-market-relay-group"),
		NotifyEventConsumer: getEnv("NOTIFY_EVENT_CONSUMER", "agri-market-relay-1"),
		CheckoutRateLimit:   30,
		CheckoutRateWindow:  time.Minute,
		RazorpayKeyID:       getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret:   getEnv("RAZORPAY_KEY_SECRET", ""),
	}

	redisDB, err := getEnvInt("REDIS_DB", cfg.RedisDB)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.RedisDB = redisDB

	rateLimit, err := getEnvInt("CHECKOUT_RATE_LIMIT", cfg.CheckoutRateLimit)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid CHECKOUT_RATE_LIMIT: %w", err)
	}
	if rateLimit <= 0 {
		return AppConfig{}, fmt.Errorf("CHECKOUT_RATE_LIMIT must be > 0")
	}
	cfg.CheckoutRateLimit = rateLimit

	rateWindowSec, err := getEnvInt("CHECKOUT_RATE_WINDOW_SEC", int(cfg.CheckoutRateWindow.Seconds()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid CHECKOUT_RATE_WINDOW_SEC: %w", err)
	}
	if rateWindowSec <= 0 {
		return AppConfig{}, fmt.Errorf("CHECKOUT_RATE_WINDOW_SEC must be > 0")
	}
	cfg.CheckoutRateWindow = time.Duration(rateWindowSec) * time.Second

	if len(cfg.KafkaBrokers) == 0 {
		return AppConfig{}, fmt.Errorf("KAFKA_BROKERS must not be empty")
	}
	if cfg.KafkaTopic == "" {
		return AppConfig{}, fmt.Errorf("KAFKA_TOPIC must not be empty")
	}
	if cfg.KafkaGroupID == "" {
		return AppConfig{}, fmt.Errorf("KAFKA_GROUP_ID must not be empty")
	}
	if cfg.NotifyEventStream == "" {
		return AppConfig{}, fmt.Errorf("NOTIFY_EVENT_STREAM must not be empty")
	}
	if cfg.NotifyEventGroup == "" {
		return AppConfig{}, fmt.Errorf("NOTIFY_EVENT_GROUP must not be empty")
	}
	if cfg.NotifyEventConsumer == "" {
		return AppConfig{}, fmt.Errorf("NOTIFY_EVENT_CONSUMER must not be empty")
	}

	return cfg, nil
}

// getEnv 读取字符串环境变量，若为空则返回默认值。
func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// getEnvInt 读取整数环境变量，若为空则返回默认值。
func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

// splitCSV 将逗号分隔字符串解析为字符串切片。
func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
