package config

import (
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	configFileENV     = "CONFIG_FILE"
	defaultConfigFile = "/config/burrow.yaml"

	EnvironmentDevelopment = "development"
	EnvironmentTest        = "test"
	EnvironmentProduction  = "production"
)

// Config is loaded from defaults, then the YAML file at CONFIG_FILE, then
// environment variables. Each env var is the upper-cased koanf key.
type Config struct {
	Environment string `koanf:"environment" json:"environment" default:"production" validate:"oneof=development test production"`
	Hostname    string `koanf:"-" json:"hostname"`

	RootPath     string `koanf:"root_path" json:"root_path" default:"./files" validate:"required"`
	HideDotfiles bool   `koanf:"hide_dotfiles" json:"hide_dotfiles"`
	// HidePatterns is a comma-separated list when set from the environment.
	HidePatterns []string `koanf:"hide_patterns" json:"hide_patterns" validate:"dive,glob"`
	// MaxFileSize defaults to the Telegram Bot API upload limit.
	MaxFileSize int64 `koanf:"max_file_size" json:"max_file_size" default:"52428800" validate:"min=1"`

	// TelegramToken is checked by New only. The migrations CLI runs without it.
	TelegramToken       string `koanf:"telegram_token" json:"-"`
	TelegramPollTimeout int    `koanf:"telegram_poll_timeout" json:"telegram_poll_timeout" default:"60" validate:"min=0"`
	TelegramDebug       bool   `koanf:"telegram_debug" json:"telegram_debug"`

	DatabaseFilePath          string        `koanf:"database_file_path" json:"database_file_path" validate:"required"`
	DatabaseDebug             bool          `koanf:"database_debug" json:"database_debug"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count" json:"database_connect_retry_count" default:"5" validate:"min=1"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay" json:"database_connect_retry_delay" default:"2s"`
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout" json:"database_busy_timeout" default:"5s"`

	ServerHost      string `koanf:"server_host" json:"server_host" default:"127.0.0.1"`
	ServerPort      int    `koanf:"server_port" json:"server_port" default:"3690" validate:"min=0,max=65535"`
	WorkerProcesses int    `koanf:"worker_processes" json:"worker_processes" default:"4" validate:"min=1"`
}

func New() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.TelegramToken == "" {
		return nil, errors.New("missing required config: TELEGRAM_TOKEN (telegram_token)")
	}
	return cfg, nil
}

// NewForMigrations loads the same sources as New but leaves out the bot
// settings.
func NewForMigrations() (*Config, error) {
	return load()
}

func load() (*Config, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.WithStack(err)
	}
	cfg.Hostname = hostname

	k := koanf.New(".")

	configFile := os.Getenv(configFileENV)
	if configFile == "" {
		configFile = defaultConfigFile
	}
	if _, err := os.Stat(configFile); err == nil {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file: %s", configFile)
		}
	}

	known := knownKeys()
	err = k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(key)
		// Empty values are treated as unset so they can't wipe out a
		// default or a value from the file.
		if _, ok := known[key]; !ok || value == "" {
			return "", nil
		}
		if key == "hide_patterns" {
			return key, strings.Split(value, ",")
		}
		return key, value
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if k.String("environment") == EnvironmentDevelopment {
		loadDevelopmentConfig(cfg)
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewForTest returns a valid config backed by an in-memory database.
func NewForTest() *Config {
	cfg := &Config{}
	_ = defaults.Set(cfg)
	cfg.Environment = EnvironmentTest
	cfg.Hostname = "test"
	cfg.RootPath = os.TempDir()
	cfg.TelegramToken = "test-token"
	cfg.DatabaseFilePath = ":memory:"
	cfg.DatabaseConnectRetryDelay = 10 * time.Millisecond
	cfg.ServerPort = 0
	cfg.WorkerProcesses = 2
	return cfg
}

// loadDevelopmentConfig only changes defaults. Anything set in the file or the
// environment still wins.
func loadDevelopmentConfig(cfg *Config) {
	cfg.DatabaseDebug = true
	cfg.TelegramDebug = true
}

func validate(cfg *Config) error {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("koanf")
	})
	err := v.RegisterValidation("glob", func(fl validator.FieldLevel) bool {
		return doublestar.ValidatePattern(fl.Field().String())
	})
	if err != nil {
		return errors.WithStack(err)
	}
	err = v.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errors.WithStack(err)
	}
	fe := verrs[0]
	key := fe.Field()
	if fe.Tag() == "required" {
		return errors.Errorf("missing required config: %s (%s)", strings.ToUpper(key), key)
	}
	return errors.Errorf("invalid config: %s (%s) failed %q validation", strings.ToUpper(key), key, fe.Tag())
}

func knownKeys() map[string]struct{} {
	keys := map[string]struct{}{}
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("koanf")
		if tag == "" || tag == "-" {
			continue
		}
		keys[tag] = struct{}{}
	}
	return keys
}
