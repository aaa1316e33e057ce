package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/validator.v2"
	"gopkg.in/yaml.v3"

	dserrors "github.com/systmms/vaultfetch/internal/errors"
	"github.com/systmms/vaultfetch/internal/logging"
)

// Environment variable prefixes for the two ways the tool is invoked
const (
	// ActionEnvPrefix is how a CI runner passes step inputs
	ActionEnvPrefix = "INPUT_"
	// CLIEnvPrefix is used when run from a terminal
	CLIEnvPrefix = "VAULTFETCH_"
)

// Config holds the runtime configuration
type Config struct {
	Path           string
	ConfigRequired bool // set when Path was given explicitly
	EnvFile        string
	MetricsFile    string
	Version        string
	Logger         *logging.Logger
}

// UserAgent identifies this build to the vault server
func (c *Config) UserAgent() string {
	version := c.Version
	if version == "" {
		version = "dev"
	}
	return "vaultfetch/" + version
}

// Inputs are the values a single retrieval needs
type Inputs struct {
	ServerURL      string        `yaml:"server_url" env:"SERVER_URL" validate:"nonzero"`
	AppKey         string        `yaml:"app_key" env:"APP_KEY" validate:"nonzero"`
	AppSecret      string        `yaml:"app_secret" env:"APP_SECRET" validate:"nonzero"`
	VaultName      string        `yaml:"vault_name" env:"VAULT_NAME" validate:"nonzero"`
	EntryName      string        `yaml:"entry_name" env:"ENTRY_NAME" validate:"nonzero"`
	OutputVariable string        `yaml:"output_variable" env:"OUTPUT_VARIABLE" validate:"nonzero"`
	SkipTLSVerify  bool          `yaml:"skip_tls_verify" env:"SKIP_TLS_VERIFY"`
	CAFile         string        `yaml:"ca_file" env:"CA_FILE"`
	Timeout        time.Duration `yaml:"timeout" env:"TIMEOUT" default:"30s"`
}

// NewInputs returns Inputs with defaults applied
func NewInputs() (*Inputs, error) {
	in := &Inputs{}
	if err := defaults.Set(in); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return in, nil
}

// LoadFile overlays values from a YAML file. A missing file is only an error
// when required is set.
func (in *Inputs) LoadFile(path string, required bool) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		if os.IsNotExist(err) {
			return dserrors.ConfigError{
				Field:      "config",
				Value:      path,
				Message:    "configuration file not found",
				Suggestion: "Check the --config path",
			}
		}
		return dserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	if err := yaml.Unmarshal(data, in); err != nil {
		return dserrors.ConfigError{
			Field:      "config",
			Value:      path,
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}

	return nil
}

// LoadEnv overlays values from environment variables carrying prefix.
// environ replaces the process environment when non-nil. Unset and empty
// variables leave the current value alone.
func (in *Inputs) LoadEnv(prefix string, environ map[string]string) error {
	opts := env.Options{
		Prefix:      prefix,
		Environment: environ,
	}
	if err := env.ParseWithOptions(in, opts); err != nil {
		return dserrors.ConfigError{
			Field:      "environment",
			Message:    err.Error(),
			Suggestion: fmt.Sprintf("Check the %s* variables", prefix),
		}
	}
	return nil
}

// Validate reports every missing required input at once
func (in *Inputs) Validate() error {
	err := validator.Validate(in)
	if err == nil {
		return nil
	}

	var errs validator.ErrorMap
	if !errors.As(err, &errs) {
		return dserrors.ConfigError{Message: err.Error()}
	}

	names := make([]string, 0, len(errs))
	for field := range errs {
		names = append(names, inputName(field))
	}
	sort.Strings(names)

	return dserrors.ConfigError{
		Field:      "inputs",
		Value:      strings.Join(names, ", "),
		Message:    "required inputs are missing",
		Suggestion: "Provide them as step inputs, VAULTFETCH_* variables, config file keys or flags",
	}
}

// inputName maps a Go field name to its YAML key
func inputName(field string) string {
	f, ok := reflect.TypeOf(Inputs{}).FieldByName(field)
	if !ok {
		return field
	}
	if tag := strings.Split(f.Tag.Get("yaml"), ",")[0]; tag != "" {
		return tag
	}
	return field
}

// LoadDotenv loads variables from a .env file into the process environment.
// Without an explicit path a missing ./.env is ignored.
func LoadDotenv(path string) error {
	if path == "" {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return dserrors.UserError{
			Message:    fmt.Sprintf("Failed to load env file '%s'", path),
			Details:    err.Error(),
			Suggestion: "Check the --env-file path",
			Err:        err,
		}
	}
	return nil
}
