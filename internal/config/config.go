package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/skatelens-cli/internal/utils"
)

// Global configuration structure.
type Global struct {
	DataRoot string `mapstructure:"data_root" yaml:"data_root" validate:"required"`

	// Explainer
	APIKey          string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL         string `mapstructure:"base_url" yaml:"base_url" validate:"omitempty,url"`
	DefaultModel    string `mapstructure:"default_model" yaml:"default_model" validate:"required"`
	DefaultProvider string `mapstructure:"default_provider" yaml:"default_provider" validate:"oneof=dashscope openai ollama local"`
	SystemPrompt    string `mapstructure:"system_prompt" yaml:"system_prompt"`
	TriggerPhrase   string `mapstructure:"trigger_phrase" yaml:"trigger_phrase" validate:"required"`
	SummaryRows     int    `mapstructure:"summary_rows" yaml:"summary_rows" validate:"min=1,max=100"`
	MaxPromptTokens int    `mapstructure:"max_prompt_tokens" yaml:"max_prompt_tokens" validate:"min=0"`

	// Insights
	TopN int `mapstructure:"top_n" yaml:"top_n" validate:"min=1,max=1000"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec" validate:"min=1"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts" validate:"min=1,max=10"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms" validate:"min=0"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms" validate:"min=0"`

	// Local runtimes (Ollama)
	OllamaHost string `mapstructure:"ollama_host" yaml:"ollama_host" validate:"omitempty,url"`

	// Dashboard server and logging
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr" validate:"required,hostname_port"`
	LogLevel   string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat  string `mapstructure:"log_format" yaml:"log_format" validate:"oneof=console json"`
}

var defaults = map[string]any{
	"data_root":           "data",
	"api_key":             "",
	"base_url":            "https://dashscope-intl.aliyuncs.com/compatible-mode/v1",
	"default_model":       "qwen-plus",
	"default_provider":    "dashscope",
	"system_prompt":       "You are a helpful sports analytics assistant who explains speed skating results clearly and engagingly.",
	"trigger_phrase":      "explain results",
	"summary_rows":        10,
	"max_prompt_tokens":   0,
	"top_n":               10,
	"http_timeout_sec":    60,
	"retry_max_attempts":  1,
	"retry_base_delay_ms": 500,
	"retry_max_delay_ms":  4000,
	"ollama_host":         "http://127.0.0.1:11434",
	"listen_addr":         "127.0.0.1:8080",
	"log_level":           "info",
	"log_format":          "console",
}

// DefaultPath returns ~/.skatelens/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".skatelens", "config.yaml"), nil
}

// Save writes c as YAML to cfgFile, or to DefaultPath when cfgFile is empty.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
// The API key also falls back to DASHSCOPE_API_KEY.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SKATELENS")
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	if err := v.BindEnv("api_key", "SKATELENS_API_KEY", "DASHSCOPE_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".skatelens"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every field constraint and reports all violations at once.
func (c *Global) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: must satisfy %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: must satisfy %s (got %v)", fe.Field(), fe.Tag(), fe.Value()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Keys lists the settable keys in declaration order.
func Keys() []string {
	t := reflect.TypeOf(Global{})
	out := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		out = append(out, t.Field(i).Tag.Get("yaml"))
	}
	return out
}

// Set assigns a value by YAML key, parsing integers, then validates the
// whole configuration. On failure c is left unchanged.
func (c *Global) Set(key, val string) error {
	next := *c
	rv := reflect.ValueOf(&next).Elem()
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("yaml") != key {
			continue
		}
		f := rv.Field(i)
		switch f.Kind() {
		case reflect.String:
			if key == "default_provider" {
				val = strings.ToLower(strings.TrimSpace(val))
			}
			f.SetString(val)
		case reflect.Int:
			n, err := strconv.Atoi(strings.TrimSpace(val))
			if err != nil {
				return fmt.Errorf("invalid int for %s: %q", key, val)
			}
			f.SetInt(int64(n))
		default:
			return fmt.Errorf("unsupported type for %s", key)
		}
		if err := next.Validate(); err != nil {
			return err
		}
		*c = next
		return nil
	}
	return fmt.Errorf("unknown key: %s", key)
}
