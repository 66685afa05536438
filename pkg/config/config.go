package config

import (
	"io/fs"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/iancoleman/strcase"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

type Config struct {
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout" default:"5s"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count" default:"5"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay" default:"2s"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path" required:"true"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries" default:"5"`
	Environment               string        `koanf:"environment" default:"development"`
	FinePerDay                float64       `koanf:"fine_per_day" default:"0.5" validate:"gte=0"`
	FrontendURL               string        `koanf:"frontend_url" default:"http://localhost:5173"`
	Hostname                  string        `koanf:"-"`
	JWTSecret                 string        `koanf:"jwt_secret" required:"true"`
	LoanPeriodDays            int           `koanf:"loan_period_days" default:"14" validate:"min=1"`
	PasswordResetExpiry       time.Duration `koanf:"password_reset_expiry" default:"1h"`
	ServerHost                string        `koanf:"server_host" default:"0.0.0.0"`
	ServerPort                int           `koanf:"server_port" default:"3000"`
	SessionExpiry             time.Duration `koanf:"session_expiry" default:"1h"`
	TransactionMaxAttempts    int           `koanf:"transaction_max_attempts" default:"5" validate:"min=1"`
}

const (
	configFileENV      = "CONFIG_FILE"
	defaultConfigFile  = "/config/shelfwise.yaml"
	environmentDev     = "development"
	environmentTest    = "test"
	environmentProd    = "production"
	koanfDelimiter     = "."
	missingConfigError = "missing required config"
	invalidConfigError = "invalid config"
)

// New loads the config from struct defaults, then the YAML file named by
// CONFIG_FILE (if it exists), then environment variables. Environment
// variables are the upper snake case version of the YAML keys.
func New() (*Config, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	k := koanf.New(koanfDelimiter)

	configFile := os.Getenv(configFileENV)
	if configFile == "" {
		configFile = defaultConfigFile
	}
	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrapf(err, "failed to load config file %s", configFile)
	}

	keys := knownKeys()
	err = k.Load(env.Provider("", koanfDelimiter, func(s string) string {
		key := strings.ToLower(s)
		if _, ok := keys[key]; !ok {
			return ""
		}
		return key
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.WithStack(err)
	}
	cfg.Hostname = hostname

	if cfg.Environment == environmentDev {
		loadDevelopmentConfig(cfg)
	}

	if err := validateRequired(cfg); err != nil {
		return nil, err
	}
	if err := validateValues(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewForTest returns a config suitable for tests that use an in-memory
// database.
func NewForTest() *Config {
	cfg := &Config{}
	_ = defaults.Set(cfg)
	cfg.DatabaseFilePath = ":memory:"
	cfg.Environment = environmentTest
	cfg.JWTSecret = "test-secret"
	cfg.ServerHost = "127.0.0.1"
	return cfg
}

// IsProduction reports whether the server runs with production semantics.
func (cfg *Config) IsProduction() bool {
	return cfg.Environment == environmentProd
}

// IsTest reports whether the test-only routes should be registered.
func (cfg *Config) IsTest() bool {
	return cfg.Environment == environmentTest
}

// LoanPeriod is the default time between a loan starting and it being due.
func (cfg *Config) LoanPeriod() time.Duration {
	return time.Duration(cfg.LoanPeriodDays) * 24 * time.Hour
}

func validateRequired(cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get("required") != "true" {
			continue
		}
		if !v.Field(i).IsZero() {
			continue
		}
		key := toSnakeCase(field.Name)
		return errors.Errorf("%s: set %s env var or %s in config file", missingConfigError, strings.ToUpper(key), key)
	}
	return nil
}

// validateValues checks the validate tags, naming the offending key the way
// it's set in YAML and in the environment.
func validateValues(cfg *Config) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("koanf")
	})

	err := validate.Struct(cfg)
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return errors.WithStack(err)
	}
	fe := errs[0]
	return errors.Errorf("%s: %s (%s) fails %s=%s, got %v",
		invalidConfigError, fe.Field(), strings.ToUpper(fe.Field()), fe.Tag(), fe.Param(), fe.Value())
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

func toSnakeCase(s string) string {
	return strcase.ToSnake(s)
}
