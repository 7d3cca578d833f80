package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config описывает настройки запуска приложения. Значения читаются из
// переменных окружения с префиксом LOMS_.
type Config struct {
	// HTTPAddr — адрес внешнего API.
	HTTPAddr string
	// MetricsAddr — адрес служебного сервера (/metrics, health probes).
	MetricsAddr string

	// Базовые URL внешних систем; пустой URL включает mock-клиент.
	CMSBaseURL string
	WMSBaseURL string
	ROSBaseURL string
	// IntegrationTimeout — дедлайн одного вызова внешней системы.
	IntegrationTimeout time.Duration

	// PostgresDSN включает долговременное хранилище; пустой DSN
	// оставляет документное хранилище в памяти.
	PostgresDSN string
	// KafkaBrokers включает ретрансляцию событий в Kafka.
	KafkaBrokers string

	// APIKey включает проверку X-API-Key на внешнем API.
	APIKey string
	// RateLimit — запросов в секунду на клиента; <=0 отключает лимитер.
	RateLimit float64

	// DrainSchedule — cron-расписание авто-drain (с полем секунд).
	DrainSchedule string
	// OutboxMaxAttempts — попыток на outbox-задачу до отбрасывания.
	OutboxMaxAttempts int
	// IdempotencyCleanupInterval — период очистки просроченных ключей.
	IdempotencyCleanupInterval time.Duration
}

// DefaultConfig возвращает конфигурацию для локального запуска.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:                   ":8080",
		MetricsAddr:                ":9090",
		IntegrationTimeout:         5 * time.Second,
		RateLimit:                  20,
		DrainSchedule:              "*/30 * * * * *",
		OutboxMaxAttempts:          5,
		IdempotencyCleanupInterval: 10 * time.Minute,
	}
}

// ReadConfig накладывает переменные окружения на DefaultConfig.
func ReadConfig() Config {
	cfg := DefaultConfig()

	setString(&cfg.HTTPAddr, "LOMS_HTTP_ADDR")
	setString(&cfg.MetricsAddr, "LOMS_METRICS_ADDR")
	setString(&cfg.CMSBaseURL, "LOMS_CMS_BASE_URL")
	setString(&cfg.WMSBaseURL, "LOMS_WMS_BASE_URL")
	setString(&cfg.ROSBaseURL, "LOMS_ROS_BASE_URL")
	setString(&cfg.PostgresDSN, "LOMS_POSTGRES_DSN")
	setString(&cfg.KafkaBrokers, "LOMS_KAFKA_BROKERS")
	setString(&cfg.APIKey, "LOMS_API_KEY")
	setString(&cfg.DrainSchedule, "LOMS_DRAIN_SCHEDULE")

	setDuration(&cfg.IntegrationTimeout, "LOMS_INTEGRATION_TIMEOUT")
	setDuration(&cfg.IdempotencyCleanupInterval, "LOMS_IDEMPOTENCY_CLEANUP_INTERVAL")
	setInt(&cfg.OutboxMaxAttempts, "LOMS_OUTBOX_MAX_ATTEMPTS")
	setFloat(&cfg.RateLimit, "LOMS_RATE_LIMIT")

	return cfg
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func setInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
