package lark

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the YAML client configuration.
//
//	base_url: https://open.feishu.cn
//	app_id: ${LARK_APP_ID}
//	app_secret: ${LARK_APP_SECRET}
//	connect_timeout: 3s
//	timeout: 7s
//	request_id: true
type Config struct {
	BaseURL        string        `yaml:"base_url" validate:"required,url"`
	AppID          string        `yaml:"app_id" validate:"required_with=AppSecret"`
	AppSecret      string        `yaml:"app_secret" validate:"required_with=AppID"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" validate:"gt=0"`
	Timeout        time.Duration `yaml:"timeout" validate:"gt=0,gtefield=ConnectTimeout"`
	RequestID      bool          `yaml:"request_id"`
}

// DefaultConfig returns the configuration used for omitted keys
func DefaultConfig() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		ConnectTimeout: DefaultConnectTimeout,
		Timeout:        DefaultTimeout,
	}
}

// LoadConfig reads a YAML configuration file. ${VAR} references are
// expanded from the environment before parsing.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := ParseConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes a YAML configuration. Unknown keys are rejected.
func ParseConfig(r io.Reader) (*Config, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(raw)))))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("invalid config: %s is %s", yamlKey(verrs[0].StructField()), describeTag(verrs[0]))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Options converts the configuration into client options
func (c *Config) Options() []Option {
	opts := []Option{
		WithBaseURL(c.BaseURL),
		WithTimeouts(c.ConnectTimeout, c.Timeout),
	}
	if c.RequestID {
		opts = append(opts, WithRequestID())
	}
	return opts
}

// NewClientFromConfig validates cfg and creates a client. When app
// credentials are configured the client authenticates with a tenant token.
func NewClientFromConfig(cfg *Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := NewClient(append(cfg.Options(), opts...)...)
	if cfg.AppID != "" {
		c = c.With(WithTokenSource(NewTenantTokenSource(c, cfg.AppID, cfg.AppSecret)))
	}
	return c, nil
}

func yamlKey(field string) string {
	switch field {
	case "BaseURL":
		return "base_url"
	case "AppID":
		return "app_id"
	case "AppSecret":
		return "app_secret"
	case "ConnectTimeout":
		return "connect_timeout"
	case "Timeout":
		return "timeout"
	default:
		return field
	}
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "url":
		return "not a valid URL"
	case "required_with":
		return "required with " + yamlKey(fe.Param())
	case "gt":
		return "not positive"
	case "gtefield":
		return "shorter than " + yamlKey(fe.Param())
	default:
		return "invalid (" + fe.Tag() + ")"
	}
}
