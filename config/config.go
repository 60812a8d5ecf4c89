// Package config loads and validates the proxy monitor's JSON config file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/AmirGHaghighi/kuma-proxy-checker/monitor"
)

const defaultPushTimeout = 10 * time.Second

// Config is the loaded, validated configuration.
type Config struct {
	Probe       monitor.ProbeConfig
	Targets     []monitor.ProxyTarget
	PushTimeout time.Duration
	LogLevel    monitor.LogLevel
	LogFile     string
	Listen      string
}

// file mirrors the JSON document. Pointers distinguish absent from zero.
type file struct {
	TestURL            *string  `json:"test_url" validate:"required,url"`
	ExpectedStatus     *int     `json:"expected_status" validate:"required,gte=100,lte=599"`
	Retries            *int     `json:"retries" validate:"required,gte=1"`
	TimeoutSeconds     *float64 `json:"timeout_seconds" validate:"required,gt=0"`
	RetryDelaySeconds  *float64 `json:"retry_delay_seconds" validate:"required,gte=0"`
	IntervalMinutes    *int     `json:"interval_minutes" validate:"required"`
	Targets            []target `json:"targets" validate:"required,min=1,dive"`
	PushTimeoutSeconds *float64 `json:"push_timeout_seconds" validate:"omitempty,gt=0"`
	LogLevel           string   `json:"log_level" validate:"omitempty,oneof=debug info error none"`
	LogFile            string   `json:"log_file"`
	Listen             string   `json:"listen"`
}

type target struct {
	Proxy   string  `json:"proxy" validate:"required,proxyscheme"`
	PushURL string  `json:"push_url" validate:"required,url"`
	Remark  *string `json:"remark"`
}

// Error reports an invalid or incomplete config document.
type Error struct {
	Field string
	Msg   string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return "config: " + e.Msg
	}
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("proxyscheme", func(fl validator.FieldLevel) bool {
		return validProxyScheme(fl.Field().String())
	})
	return v
}

func validProxyScheme(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	_, ok := monitor.AllowedProxySchemes[strings.ToLower(u.Scheme)]
	return ok
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse validates a JSON config document.
func Parse(data []byte) (*Config, error) {
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &Error{Msg: "invalid json: " + err.Error()}
	}
	if err := validate.Struct(&f); err != nil {
		return nil, translate(err)
	}

	cfg := &Config{
		Probe: monitor.ProbeConfig{
			TestURL:        *f.TestURL,
			ExpectedStatus: *f.ExpectedStatus,
			Timeout:        seconds(*f.TimeoutSeconds),
			Retries:        *f.Retries,
			RetryDelay:     seconds(*f.RetryDelaySeconds),
			Interval:       time.Duration(*f.IntervalMinutes) * time.Minute,
		},
		PushTimeout: defaultPushTimeout,
		LogLevel:    parseLogLevel(f.LogLevel),
		LogFile:     f.LogFile,
		Listen:      f.Listen,
	}
	if f.PushTimeoutSeconds != nil {
		cfg.PushTimeout = seconds(*f.PushTimeoutSeconds)
	}

	for _, t := range f.Targets {
		remark := ""
		if t.Remark != nil && strings.TrimSpace(*t.Remark) != "" {
			remark = *t.Remark
		}
		cfg.Targets = append(cfg.Targets, monitor.ProxyTarget{
			ID:      TargetID(t.Proxy, t.PushURL),
			Proxy:   t.Proxy,
			PushURL: t.PushURL,
			Remark:  remark,
		})
	}
	return cfg, nil
}

// TargetID derives a stable identifier from a target's proxy and push URL.
func TargetID(proxy, pushURL string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(proxy+"\n"+pushURL)).String()
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func parseLogLevel(s string) monitor.LogLevel {
	switch s {
	case "debug":
		return monitor.LogDebug
	case "error":
		return monitor.LogError
	case "none":
		return monitor.LogNone
	default:
		return monitor.LogInfo
	}
}

func translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &Error{Msg: err.Error()}
	}
	fe := verrs[0]
	field := strings.TrimPrefix(fe.Namespace(), "file.")

	switch fe.Tag() {
	case "required":
		return &Error{Field: field, Msg: "missing config field"}
	case "min":
		return &Error{Field: field, Msg: "no targets defined"}
	case "proxyscheme":
		return &Error{Field: field, Msg: fmt.Sprintf("unsupported proxy scheme: %v", fe.Value())}
	case "url":
		return &Error{Field: field, Msg: fmt.Sprintf("invalid url: %v", fe.Value())}
	case "oneof":
		return &Error{Field: field, Msg: fmt.Sprintf("must be one of %s", fe.Param())}
	default:
		return &Error{Field: field, Msg: fmt.Sprintf("must satisfy %s=%s", fe.Tag(), fe.Param())}
	}
}
