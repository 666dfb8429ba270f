package config

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/saveblush/reraw-feeds/core/utils/logger"
)

var (
	CF = &Configs{}
)

var (
	filePath       = "./configs"
	fileExtension  = "yml"
	fileNameConfig = "config"
)

var (
	muListeners sync.Mutex
	listeners   []func(*Configs)
)

// Environment environment
type Environment string

const (
	Develop    Environment = "develop"
	Production Environment = "prod"
)

// Production check is production
func (e Environment) Production() bool {
	return e == Production
}

type DatabaseConfig struct {
	Enabled      bool          `mapstructure:"ENABLED"`
	Host         string        `mapstructure:"HOST"`
	Port         int           `mapstructure:"PORT"`
	Username     string        `mapstructure:"USERNAME"`
	Password     string        `mapstructure:"PASSWORD"`
	DatabaseName string        `mapstructure:"DATABASE_NAME"`
	Timeout      string        `mapstructure:"TIMEOUT"`
	MaxIdleConns int           `mapstructure:"MAX_IDLE_CONNS"`
	MaxOpenConns int           `mapstructure:"MAX_OPEN_CONNS"`
	MaxLifetime  time.Duration `mapstructure:"MAX_LIFE_TIME"`
}

// FeedConfig field names mirror feed.Options, they are copied across
type FeedConfig struct {
	Kinds             []int         `mapstructure:"KINDS"`
	RepostKinds       []int         `mapstructure:"REPOST_KINDS"`
	IncludeReposts    bool          `mapstructure:"INCLUDE_REPOSTS"`
	DefaultLimit      int           `mapstructure:"DEFAULT_LIMIT"`
	GracePeriod       time.Duration `mapstructure:"GRACE_PERIOD"`
	ReconnectDelay    time.Duration `mapstructure:"RECONNECT_DELAY"`
	MaxReconnectDelay time.Duration `mapstructure:"MAX_RECONNECT_DELAY"`
	RetryInterval     time.Duration `mapstructure:"RETRY_INTERVAL"`
	RetryAttempts     int           `mapstructure:"RETRY_ATTEMPTS"`
	IdleTimeout       time.Duration `mapstructure:"IDLE_TIMEOUT"`
	Gravity           float64       `mapstructure:"GRAVITY"`
}

type PolicyConfig struct {
	HideAdult bool     `mapstructure:"HIDE_ADULT"`
	Blocked   []string `mapstructure:"BLOCKED"`
}

type ProfileConfig struct {
	Cooldown     time.Duration `mapstructure:"COOLDOWN"`
	FetchTimeout time.Duration `mapstructure:"FETCH_TIMEOUT"`
	RatePerSec   float64       `mapstructure:"RATE_PER_SEC"`
	Burst        int           `mapstructure:"BURST"`
}

type ServerConfig struct {
	RatePerSec   float64       `mapstructure:"RATE_PER_SEC"`
	Burst        int           `mapstructure:"BURST"`
	MaxClients   int           `mapstructure:"MAX_CLIENTS"`
	PingInterval time.Duration `mapstructure:"PING_INTERVAL"`
}

type Configs struct {
	App struct {
		Port        int         `mapstructure:"PORT"`
		Environment Environment `mapstructure:"ENVIRONMENT"`
		Debug       bool        `mapstructure:"DEBUG"`
	} `mapstructure:"APP"`

	Database struct {
		CacheSQL DatabaseConfig `mapstructure:"CACHE_SQL"`
	} `mapstructure:"DATABASE"`

	Relays  []string      `mapstructure:"RELAYS"`
	Feed    FeedConfig    `mapstructure:"FEED"`
	Policy  PolicyConfig  `mapstructure:"POLICY"`
	Profile ProfileConfig `mapstructure:"PROFILE"`
	Server  ServerConfig  `mapstructure:"SERVER"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP.PORT", 8080)
	v.SetDefault("APP.ENVIRONMENT", string(Develop))
	v.SetDefault("RELAYS", []string{"wss://relay.damus.io", "wss://nos.lol"})

	v.SetDefault("FEED.KINDS", []int{21, 22, 34235, 34236})
	v.SetDefault("FEED.REPOST_KINDS", []int{6, 16})
	v.SetDefault("FEED.INCLUDE_REPOSTS", true)
	v.SetDefault("FEED.DEFAULT_LIMIT", 50)
	v.SetDefault("FEED.GRACE_PERIOD", "5s")
	v.SetDefault("FEED.RECONNECT_DELAY", "2s")
	v.SetDefault("FEED.MAX_RECONNECT_DELAY", "30s")
	v.SetDefault("FEED.RETRY_INTERVAL", "5s")
	v.SetDefault("FEED.RETRY_ATTEMPTS", 3)
	v.SetDefault("FEED.IDLE_TIMEOUT", "2s")
	v.SetDefault("FEED.GRAVITY", 1.5)

	v.SetDefault("POLICY.HIDE_ADULT", true)

	v.SetDefault("PROFILE.COOLDOWN", "5m")
	v.SetDefault("PROFILE.FETCH_TIMEOUT", "5s")
	v.SetDefault("PROFILE.RATE_PER_SEC", 10)
	v.SetDefault("PROFILE.BURST", 20)

	v.SetDefault("SERVER.RATE_PER_SEC", 20)
	v.SetDefault("SERVER.BURST", 40)
	v.SetDefault("SERVER.MAX_CLIENTS", 10000)
	v.SetDefault("SERVER.PING_INTERVAL", "30s")
}

// InitConfig init config
func InitConfig() error {
	v := viper.New()
	v.AddConfigPath(filePath)
	v.SetConfigName(fileNameConfig)
	v.SetConfigType(fileExtension)
	v.AutomaticEnv()

	// แปลง . dot เป็น _ underscore
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	watch := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			logger.Log.Errorf("read config file error: %s", err)
			return err
		}
		logger.Log.Warnf("config file not found, using defaults: %s", err)
		watch = false
	}

	if err := v.Unmarshal(CF); err != nil {
		logger.Log.Errorf("binding config error: %s", err)
		return err
	}

	if watch {
		v.OnConfigChange(func(e fsnotify.Event) {
			logger.Log.Infof("config file changed: %s", e.Name)
			if err := v.Unmarshal(CF); err != nil {
				logger.Log.Errorf("binding config error: %s", err)
				return
			}
			notify(CF)
		})
		v.WatchConfig()
	}

	return nil
}

// OnChange registers fn to run after the config file is reloaded
func OnChange(fn func(*Configs)) {
	muListeners.Lock()
	defer muListeners.Unlock()

	listeners = append(listeners, fn)
}

func notify(cf *Configs) {
	muListeners.Lock()
	fns := append([]func(*Configs){}, listeners...)
	muListeners.Unlock()

	for _, fn := range fns {
		fn(cf)
	}
}
