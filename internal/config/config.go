// Copyright (c) 2026 The alepe-mcp Authors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package config contains the server configuration.  The configuration is
// read from the environment, optionally preloaded from .env files, and can
// be overridden by a TOML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/joho/godotenv"
	"github.com/rusq/osenv/v2"
	"github.com/spf13/cast"

	"github.com/dadosabertos/alepe-mcp/internal/alepe"
	"github.com/dadosabertos/alepe-mcp/internal/primitive"
)

// Environment variables.
const (
	EnvBaseURL    = "ALEPE_BASE_URL"
	EnvTimeout    = "ALEPE_TIMEOUT"
	EnvMaxRetries = "ALEPE_MAX_RETRIES"
	EnvRetryDelay = "ALEPE_RETRY_DELAY"
	EnvRateLimit  = "ALEPE_RATE_LIMIT_REQUESTS"
	EnvUserAgent  = "ALEPE_USER_AGENT"
	EnvLogLevel   = "ALEPE_LOG_LEVEL"
)

// DefaultLogLevel is the default log level.
const DefaultLogLevel = "INFO"

// ErrInvalid is returned when the configuration does not pass validation.
var ErrInvalid = errors.New("config validation failed")

// Config is the server configuration.  It is read-only once the server
// starts.
type Config struct {
	// BaseURL is the base URL of the ALEPE API.
	BaseURL string `toml:"base_url" validate:"required,http_url"`
	// Timeout is the timeout of a single HTTP request.
	Timeout time.Duration `toml:"timeout" validate:"gt=0"`
	// MaxRetries is the maximum number of attempts per request.
	MaxRetries int `toml:"max_retries" validate:"min=1,max=10"`
	// RetryDelay is the base delay between attempts, doubled after each
	// failed attempt.
	RetryDelay time.Duration `toml:"retry_delay" validate:"gt=0"`
	// RateLimit is the number of requests allowed per minute.
	RateLimit int    `toml:"rate_limit_requests" validate:"min=1"`
	UserAgent string `toml:"user_agent" validate:"required"`
	LogLevel  string `toml:"log_level" validate:"oneof=DEBUG INFO WARN ERROR"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		BaseURL:    alepe.DefaultBaseURL,
		Timeout:    alepe.DefaultTimeout,
		MaxRetries: alepe.DefaultMaxRetries,
		RetryDelay: alepe.DefaultRetryDelay,
		RateLimit:  alepe.DefaultRateLimit,
		UserAgent:  alepe.DefaultUserAgent,
		LogLevel:   DefaultLogLevel,
	}
}

// Load returns the configuration built from the defaults, the environment
// and the TOML file, if filename is not empty, in that order.  The result is
// validated.
func Load(filename string) (Config, error) {
	c := Default()
	if err := c.ApplyEnv(); err != nil {
		return c, err
	}
	if filename != "" {
		if err := c.ApplyFile(filename); err != nil {
			return c, err
		}
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// LoadDotEnv loads the environment variables from the .env files, the
// variables that are already set are not overwritten.  Missing files are
// ignored.  If no files given, it loads .env in the current directory.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error loading %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides the values with the environment variables that are set.
// Durations are given in seconds, i.e. ALEPE_TIMEOUT=30 or ALEPE_TIMEOUT=0.5,
// or as Go durations, i.e. ALEPE_TIMEOUT=1m30s.
func (c *Config) ApplyEnv() error {
	var err error
	c.BaseURL = primitive.Coalesce(env(EnvBaseURL), c.BaseURL)
	c.UserAgent = primitive.Coalesce(env(EnvUserAgent), c.UserAgent)
	c.LogLevel = strings.ToUpper(primitive.Coalesce(env(EnvLogLevel), c.LogLevel))
	if c.Timeout, err = envDuration(EnvTimeout, c.Timeout); err != nil {
		return err
	}
	if c.RetryDelay, err = envDuration(EnvRetryDelay, c.RetryDelay); err != nil {
		return err
	}
	if c.MaxRetries, err = envInt(EnvMaxRetries, c.MaxRetries); err != nil {
		return err
	}
	if c.RateLimit, err = envInt(EnvRateLimit, c.RateLimit); err != nil {
		return err
	}
	return nil
}

func env(name string) string {
	return strings.TrimSpace(osenv.Value(name, ""))
}

func envInt(name string, def int) (int, error) {
	v := env(name)
	if v == "" {
		return def, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return def, fmt.Errorf("%w: %s: invalid integer %q", ErrInvalid, name, v)
	}
	return n, nil
}

func envDuration(name string, def time.Duration) (time.Duration, error) {
	v := env(name)
	if v == "" {
		return def, nil
	}
	d, err := ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%w: %s: %s", ErrInvalid, name, err)
	}
	return d, nil
}

// maxSeconds is the largest number of seconds that fits in time.Duration.
const maxSeconds = math.MaxInt64 / float64(time.Second)

// ParseDuration parses the number of seconds, or the Go duration string.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.Abs(f) > maxSeconds {
			return 0, fmt.Errorf("duration %q out of range", s)
		}
		return time.Duration(f * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

// ApplyFile overrides the values with the ones set in the TOML file.  Keys
// that are not known are an error.
func (c *Config) ApplyFile(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return c.apply(f)
}

func (c *Config) apply(r io.Reader) error {
	md, err := toml.NewDecoder(r).Decode(c)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return &Error{Problems: []string{"unknown keys: " + strings.Join(keys, ", ")}}
	}
	return nil
}

// Save writes the configuration in TOML format.
func (c Config) Save(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Error is the validation error.  It matches ErrInvalid.
type Error struct {
	// Problems are human readable descriptions of the invalid values.
	Problems []string
}

func (e *Error) Error() string {
	return ErrInvalid.Error() + ": " + strings.Join(e.Problems, "; ")
}

func (e *Error) Is(target error) bool {
	return target == ErrInvalid
}

// Validate validates the configuration.  The returned error is *Error.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var vErr validator.ValidationErrors
	if !errors.As(err, &vErr) {
		return fmt.Errorf("%w: %s", ErrInvalid, err)
	}
	problems := make([]string, 0, len(vErr))
	for _, entry := range vErr {
		problems = append(problems, entry.Translate(ErrTranslations))
	}
	return &Error{Problems: problems}
}

var (
	validate *validator.Validate
	// ErrTranslations contains the English translations of the validation
	// errors.
	ErrTranslations ut.Translator
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	ErrTranslations, _ = uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, ErrTranslations); err != nil {
		panic(err)
	}
	if err := validate.RegisterTranslation("http_url", ErrTranslations,
		func(ut ut.Translator) error {
			return ut.Add("http_url", "{0} must be an http or https URL", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T("http_url", fe.Field())
			return t
		},
	); err != nil {
		panic(err)
	}
}
