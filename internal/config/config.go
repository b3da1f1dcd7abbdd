package config

import (
	"github.com/blues/livepay/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Billing    BillingConfig    `mapstructure:"billing"`
	Commission CommissionConfig `mapstructure:"commission"`
	Token      TokenConfig      `mapstructure:"token"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// BillingConfig 计费配置
type BillingConfig struct {
	TickInterval int `mapstructure:"tick_interval"` // 计费周期（秒）
	SettleRetry  int `mapstructure:"settle_retry"`  // 结算瞬时失败的重试次数
	IdleTimeout  int `mapstructure:"idle_timeout"`  // 空会话回收时间（秒）
}

// CommissionConfig 分成配置
type CommissionConfig struct {
	PlatformBps          int64 `mapstructure:"platform_bps"`           // 平台默认分成（基点，万分之一）
	ReferralBps          int64 `mapstructure:"referral_bps"`           // 推荐人分成（从主播份额中扣除）
	ReferralValidityDays int   `mapstructure:"referral_validity_days"` // 推荐关系有效期（天）
}

// TokenConfig 代币配置
type TokenConfig struct {
	ConversionRate int64 `mapstructure:"conversion_rate"` // 每代币折算的展示货币最小单位（分）
}

type SchedulerConfig struct {
	RecoveryInterval int `mapstructure:"recovery_interval"` // 结算恢复任务周期（秒）
	RecoveryGrace    int `mapstructure:"recovery_grace"`    // 认领后多久未结算才重驱动（秒）
	ReaperInterval   int `mapstructure:"reaper_interval"`   // 空会话回收任务周期（秒）
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/livepay")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "livepay")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("billing.tick_interval", 60)
	viper.SetDefault("billing.settle_retry", 1)
	viper.SetDefault("billing.idle_timeout", 300)
	viper.SetDefault("commission.platform_bps", 4000)
	viper.SetDefault("commission.referral_bps", 500)
	viper.SetDefault("commission.referral_validity_days", 365)
	viper.SetDefault("token.conversion_rate", 5)
	viper.SetDefault("scheduler.recovery_interval", 300)
	viper.SetDefault("scheduler.recovery_grace", 120)
	viper.SetDefault("scheduler.reaper_interval", 60)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
