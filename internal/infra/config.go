package infra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config корневая структура конфигурации консоли.
type Config struct {
	Backend   BackendConfig   `mapstructure:"backend"`
	Server    ServerConfig    `mapstructure:"server"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// BackendConfig описывает подключение к бэкенду разрешения сущностей.
type BackendConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// 0: без собственного таймаута, как у окружения
	Timeout time.Duration `mapstructure:"timeout"`

	Breaker BreakerConfig `mapstructure:"breaker"`

	// Проба HEALTH при старте, 0 попыток отключает ее
	ReadyAttempts uint          `mapstructure:"ready_attempts"`
	ReadyDelay    time.Duration `mapstructure:"ready_delay"`
}

// BreakerConfig настройки Circuit Breaker перед транспортом.
type BreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxRequests uint32        `mapstructure:"max_requests"`
	Interval    time.Duration `mapstructure:"interval"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Failures    uint32        `mapstructure:"failures"`
}

// ServerConfig описывает локальный HTTP API (режим serve).
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// Лимит запуска операций через API (в секунду) и размер всплеска
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

func (s ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

// DashboardConfig параметры представлений.
type DashboardConfig struct {
	AuditLimit int    `mapstructure:"audit_limit"`
	TimeLayout string `mapstructure:"time_layout"`
	EntityID1  string `mapstructure:"entity_id1"`
	EntityID2  string `mapstructure:"entity_id2"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	File   string `mapstructure:"file"`   // пусто: stderr
}

// flagBindings связывает ключи конфига с флагами командной строки.
var flagBindings = map[string]string{
	"backend.base_url": "backend",
	"logger.level":     "log-level",
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла, ENV и флагов.
// Приоритет: флаг > ENV > файл > дефолт.
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Настройка поиска файла
	explicit := ""
	if flags != nil {
		if f := flags.Lookup("config"); f != nil {
			explicit = f.Value.String()
		}
	}
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("config")    // имя файла без расширения
		v.SetConfigType("yaml")      // формат
		v.AddConfigPath(".")         // ищем в корне
		v.AddConfigPath("./configs") // и в папке с конфигами
	}

	// 2. Настройка переменных окружения (ENV)
	// Позволяет перекрывать конфиг: BACKEND_BASE_URL=http://mdm:8080 перекроет backend.base_url
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Установка дефолтных значений
	setDefaults(v)

	// 4. Флаги (только явно заданные перекрывают остальное)
	if flags != nil {
		for key, name := range flagBindings {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	// 5. Чтение файла
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет, работаем на ENV и дефолтах
	}

	// 6. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.base_url", "http://localhost:8080")
	v.SetDefault("backend.timeout", 0)
	v.SetDefault("backend.breaker.enabled", false)
	v.SetDefault("backend.breaker.max_requests", 1)
	v.SetDefault("backend.breaker.interval", 0)
	v.SetDefault("backend.breaker.timeout", 30*time.Second)
	v.SetDefault("backend.breaker.failures", 5)
	v.SetDefault("backend.ready_attempts", 0)
	v.SetDefault("backend.ready_delay", 500*time.Millisecond)

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.rate_limit", 5)
	v.SetDefault("server.rate_burst", 5)

	v.SetDefault("dashboard.audit_limit", 20)
	v.SetDefault("dashboard.time_layout", time.DateTime)
	v.SetDefault("dashboard.entity_id1", "CRM_001")
	v.SetDefault("dashboard.entity_id2", "ERP_001")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return errors.New("config: backend.base_url is required")
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("config: backend.timeout must not be negative, got %s", c.Backend.Timeout)
	}
	if c.Dashboard.AuditLimit <= 0 {
		return fmt.Errorf("config: dashboard.audit_limit must be positive, got %d", c.Dashboard.AuditLimit)
	}
	return nil
}
