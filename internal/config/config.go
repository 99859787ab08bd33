package config

import (
	"errors"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	InitialAdmin struct {
		Username string `env:"USERNAME" envDefault:"admin"`
		Password string `env:"PASSWORD,required"`
		FullName string `env:"FULL_NAME" envDefault:"Administrator"`
		Email    string `env:"EMAIL,required"`
	} `envPrefix:"INITIAL_ADMIN_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"336"` // 小时，14 天
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Booking struct {
		SlotGranularity int `env:"SLOT_GRANULARITY" envDefault:"30"` // 分钟
		DefaultDuration int `env:"DEFAULT_DURATION" envDefault:"60"` // 分钟
		MinDuration     int `env:"MIN_DURATION" envDefault:"15"`     // 分钟
		LockTTL         int `env:"LOCK_TTL" envDefault:"35"`         // 秒，必须大于一次查询与一次事务的超时之和
		LockRetries     int `env:"LOCK_RETRIES" envDefault:"5"`
		LockRetryDelay  int `env:"LOCK_RETRY_DELAY" envDefault:"100"` // 毫秒
	} `envPrefix:"BOOKING_"`
	Seed struct {
		EmailDomain  string `env:"EMAIL_DOMAIN" envDefault:"nailsalon.gr"`
		UserPassword string `env:"USER_PASSWORD" envDefault:"nailsalon@2025"` // 随机员工账户的初始密码
	} `envPrefix:"SEED_"`
	Email struct {
		TemplateDir string `env:"TEMPLATE_DIR"` // 为空时使用内置模板
		SalonName   string `env:"SALON_NAME" envDefault:"Nail Salon"`
		SMTP        struct {
			Username    string `env:"USERNAME"`
			Password    string `env:"PASSWORD"`
			Host        string `env:"HOST"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		Queue          string `env:"QUEUE" envDefault:"email_queue"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host           string `env:"HOST" envDefault:"localhost"`
		Port           int    `env:"PORT" envDefault:"6379"`
		Password       string `env:"PASSWORD"`
		ConnectTimeout int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
	} `envPrefix:"REDIS_"`
	NewUser struct {
		PasswordLength int `env:"PASSWORD_LENGTH" envDefault:"12"`
	} `envPrefix:"NEW_USER_"`
}

var ErrLockTTLTooShort = errors.New("BOOKING_LOCK_TTL must be greater than DATABASE_QUERY_TIMEOUT + DATABASE_TRANSACTION_TIMEOUT")

func LoadConfig() (*Config, error) {
	// 本地开发时可以把环境变量写在 .env 中，已经存在的环境变量优先
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	// 锁内先查询当天的预约再写入事务，锁不能在写入完成之前过期
	if cfg.Booking.LockTTL <= cfg.Database.QueryTimeout+cfg.Database.TransactionTimeout {
		return nil, ErrLockTTLTooShort
	}

	return cfg, nil
}

// SlogLevel 解析 LOG_LEVEL，无法识别时使用 info
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
