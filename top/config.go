package top

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/topnuomi/top/topservices/cache"
	"github.com/topnuomi/top/topservices/database"
)

type AppConfig struct {
	App        AppSection      `mapstructure:"app"`
	DB         DatabaseSection `mapstructure:"db"`
	Cache      CacheSection    `mapstructure:"cache"`
	Decorators []string        `mapstructure:"decorator"`
	Route      RouteSection    `mapstructure:"route"`
}

type AppSection struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	LogLevel string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
	Metrics  bool   `mapstructure:"metrics"`
}

type DatabaseSection struct {
	Driver  string `mapstructure:"driver" validate:"omitempty,oneof=mysql mysqli sqlite sqlite3"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	User    string `mapstructure:"user"`
	Passwd  string `mapstructure:"passwd"`
	DBName  string `mapstructure:"dbname"`
	Charset string `mapstructure:"charset"`
	Prefix  string `mapstructure:"prefix"`
	Path    string `mapstructure:"path"`
}

type CacheSection struct {
	Driver string       `mapstructure:"driver" validate:"omitempty,oneof=memory redis"`
	Redis  RedisSection `mapstructure:"redis"`
}

type RedisSection struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	User   string `mapstructure:"user"`
	Pass   string `mapstructure:"pass"`
	Number int    `mapstructure:"number" validate:"gte=0"`
}

type RouteSection struct {
	DefaultModule     string `mapstructure:"default_module" validate:"required"`
	DefaultController string `mapstructure:"default_controller" validate:"required"`
	DefaultAction     string `mapstructure:"default_action" validate:"required"`
}

var defaults = map[string]any{
	"app.host":                 "0.0.0.0",
	"app.port":                 2291,
	"app.log_level":            "info",
	"app.metrics":              false,
	"db.driver":                "mysql",
	"db.host":                  "127.0.0.1",
	"db.port":                  3306,
	"db.user":                  "",
	"db.passwd":                "",
	"db.dbname":                "",
	"db.charset":               "utf8mb4",
	"db.prefix":                "",
	"db.path":                  "database.sqlite",
	"cache.driver":             "memory",
	"cache.redis.host":         "127.0.0.1",
	"cache.redis.port":         6379,
	"cache.redis.user":         "",
	"cache.redis.pass":         "",
	"cache.redis.number":       0,
	"decorator":                []string{},
	"route.default_module":     "home",
	"route.default_controller": "index",
	"route.default_action":     "index",
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func NewConfig() AppConfig {
	config, _ := decodeConfig(newViper())
	return config
}

// LoadConfig reads path (any format viper understands) on top of the
// defaults. Variables from a .env file and TOP_ prefixed environment
// variables override the file, so db.host is read from TOP_DB_HOST.
func LoadConfig(path string) (AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return AppConfig{}, fmt.Errorf("loading .env: %w", err)
	}

	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return AppConfig{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	config, err := decodeConfig(v)
	if err != nil {
		return AppConfig{}, err
	}

	if err := config.Validate(); err != nil {
		return AppConfig{}, err
	}

	return config, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("TOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func decodeConfig(v *viper.Viper) (AppConfig, error) {
	config := AppConfig{}
	if err := v.Unmarshal(&config); err != nil {
		return AppConfig{}, fmt.Errorf("decoding config: %w", err)
	}

	return config, nil
}

func (config AppConfig) Validate() error {
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

func (config AppConfig) ListenAddr() string {
	return net.JoinHostPort(config.App.Host, strconv.Itoa(config.App.Port))
}

func (config AppConfig) LogLevel() slog.Level {
	level := slog.LevelInfo
	_ = level.UnmarshalText([]byte(config.App.LogLevel))

	return level
}

// Resolver builds the path resolver using the configured defaults.
func (config AppConfig) Resolver() PathResolver {
	return PathResolver{
		DefaultModule:     config.Route.DefaultModule,
		DefaultController: config.Route.DefaultController,
		DefaultAction:     config.Route.DefaultAction,
	}
}

func (config AppConfig) Database(configFuncs ...database.ServiceConfigFunc) (*database.Service, error) {
	driver, err := database.NewDriver(config.DB.Driver, database.DriverConfig{
		Host:    config.DB.Host,
		Port:    config.DB.Port,
		User:    config.DB.User,
		Pass:    config.DB.Passwd,
		Name:    config.DB.DBName,
		Charset: config.DB.Charset,
		Path:    config.DB.Path,
	})
	if err != nil {
		return nil, err
	}

	return database.New(
		driver,
		append([]database.ServiceConfigFunc{database.WithPrefix(config.DB.Prefix)}, configFuncs...)...,
	)
}

func (config AppConfig) CacheDriver() (cache.Driver, error) {
	switch config.Cache.Driver {
	case "", "memory":
		return cache.NewDriverMemory()
	case "redis":
		return cache.NewDriverRedis(cache.DriverRedisConfig{
			Host:   config.Cache.Redis.Host,
			Number: config.Cache.Redis.Number,
			Pass:   config.Cache.Redis.Pass,
			Port:   config.Cache.Redis.Port,
			User:   config.Cache.Redis.User,
		})
	}

	return nil, fmt.Errorf("invalid cache driver: %s", config.Cache.Driver)
}
