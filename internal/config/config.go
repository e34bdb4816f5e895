package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/blues/ivs/internal/engine"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Chain     ChainConfig     `mapstructure:"chain"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Event     EventConfig     `mapstructure:"event"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port      string  `mapstructure:"port"`
	Mode      string  `mapstructure:"mode"`
	RateLimit float64 `mapstructure:"rate_limit"` // 每秒请求数，0 表示不限流
	Burst     int     `mapstructure:"burst"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres 或 sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"` // sqlite 文件路径
}

// DSN postgres 连接串
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		d.Host, d.User, d.Password, d.DBName, d.Port, d.SSLMode)
}

// EngineConfig 投票引擎配置
type EngineConfig struct {
	Admin string `mapstructure:"admin"` // 管理员地址
	Pool  string `mapstructure:"pool"`  // 资金池地址
}

func (e EngineConfig) AdminAddress() common.Address { return common.HexToAddress(e.Admin) }
func (e EngineConfig) PoolAddress() common.Address  { return common.HexToAddress(e.Pool) }

// ChainConfig 区块时间戳来源，关闭时使用本地时钟
type ChainConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ChainType string `mapstructure:"chain_type"` // 链类型 (ethereum, polygon, etc.)
	ChainId   int64  `mapstructure:"chain_id"`   // 链ID，0 表示不校验
	RpcUrl    string `mapstructure:"rpc_url"`    // RPC节点URL
	Timeout   int    `mapstructure:"timeout"`    // 秒
}

// SchedulerConfig 阶段截止时间，键为目标阶段名，值为 RFC3339 时间
type SchedulerConfig struct {
	Enabled   bool              `mapstructure:"enabled"`
	Interval  int               `mapstructure:"interval"` // 秒
	Deadlines map[string]string `mapstructure:"deadlines"`
}

// PhaseDeadlines 解析后的阶段截止时间
func (s SchedulerConfig) PhaseDeadlines() (map[engine.Phase]time.Time, error) {
	out := make(map[engine.Phase]time.Time, len(s.Deadlines))
	for name, value := range s.Deadlines {
		phase, err := engine.ParsePhase(name)
		if err != nil {
			return nil, fmt.Errorf("scheduler deadline: %w", err)
		}
		at, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return nil, fmt.Errorf("scheduler deadline for %s: %w", name, err)
		}
		out[phase] = at
	}
	return out, nil
}

type EventConfig struct {
	Workers          int `mapstructure:"workers"`           // 事件处理协程池大小
	RedeliverSeconds int `mapstructure:"redeliver_seconds"` // 未处理事件重投间隔
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.Config 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.Config 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.Config 接口
func (l LogConfig) GetFile() string {
	return l.File
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.rate_limit", 50)
	v.SetDefault("server.burst", 100)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "ivs")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "ivs.db")
	v.SetDefault("engine.admin", "")
	v.SetDefault("engine.pool", "")
	v.SetDefault("chain.enabled", false)
	v.SetDefault("chain.chain_type", "ethereum")
	v.SetDefault("chain.timeout", 10)
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.interval", 30)
	v.SetDefault("event.workers", 8)
	v.SetDefault("event.redeliver_seconds", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/app.log")
}

// Load 读取 .env、配置文件和 IVS_ 前缀的环境变量。path 为空时按默认目录查找
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/ivs")
	}
	setDefaults(v)

	// 自动读取环境变量，如 IVS_ENGINE_ADMIN
	v.SetEnvPrefix("IVS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验地址和枚举配置
func (c *Config) Validate() error {
	if !common.IsHexAddress(c.Engine.Admin) {
		return fmt.Errorf("engine.admin %q is not a valid address", c.Engine.Admin)
	}
	if !common.IsHexAddress(c.Engine.Pool) {
		return fmt.Errorf("engine.pool %q is not a valid address", c.Engine.Pool)
	}
	if c.Engine.AdminAddress() == c.Engine.PoolAddress() {
		return errors.New("engine.pool must differ from engine.admin")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	if c.Chain.Enabled && c.Chain.RpcUrl == "" {
		return errors.New("chain.rpc_url is required when chain is enabled")
	}
	if _, err := c.Scheduler.PhaseDeadlines(); err != nil {
		return err
	}
	if c.Event.Workers <= 0 {
		return errors.New("event.workers must be positive")
	}
	return nil
}
