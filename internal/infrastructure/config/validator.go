package config

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// structValidator returns the shared validator. Field names in errors are the
// configuration keys (mapstructure tags), not the Go field names.
func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// reloadableKeys defines the whitelist of configuration keys that can be hot-reloaded.
var reloadableKeys = map[string]bool{
	"logging.level":                    true,
	"logging.format":                   true,
	"conversation.system_prompt":       true,
	"conversation.max_thread_messages": true,
	"moderation.fail_policy":           true,
	"slack.mrkdwn_conversion":          true,
	"messages":                         true,
}

// staticKeys defines configuration sections that require application restart.
var staticKeys = map[string]string{
	"server":     "HTTP listener restart required",
	"slack":      "Slack client recreation required",
	"completion": "Completion client recreation required",
	"moderation": "Moderation gate recreation required",
	"storage":    "Database connection recreation required",
	"pipeline":   "Use case recreation required",
	"pagerduty":  "Reporter recreation required",
}

// IsReloadable returns true if the given config key can be hot-reloaded.
func IsReloadable(key string) bool {
	return reloadableKeys[key]
}

// getRestartReason returns the reason why a static config key requires restart.
func getRestartReason(key string) string {
	if reason, ok := staticKeys[key]; ok {
		return reason
	}
	return "unknown configuration requires restart"
}

// ValidateLogLevel checks if the log level is valid.
func ValidateLogLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", level)
}

// ValidateNonEmpty checks if a string is non-empty.
func ValidateNonEmpty(value string, fieldName string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}

// ValidateDuration checks if a duration is greater than zero.
func ValidateDuration(duration time.Duration, fieldName string) error {
	if duration <= 0 {
		return fmt.Errorf("%s must be greater than 0", fieldName)
	}
	return nil
}

// Validate performs comprehensive validation on the configuration.
// Struct tags cover single fields; the checks below cover constraints that
// span several fields. Returns an error listing every failure.
func (c *Config) Validate() error {
	var errs []string

	if err := structValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("configuration validation failed: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, describeFieldError(fe))
		}
	}

	// Logical constraint: RequestTimeout should be less than WriteTimeout
	if c.Server.RequestTimeout >= c.Server.WriteTimeout {
		errs = append(errs, "server.request_timeout must be less than server.write_timeout")
	}

	// Mentions are processed after the request is acknowledged, so only the
	// pipeline bounds the completion call
	if c.Completion.Timeout > c.Pipeline.Timeout {
		errs = append(errs, "completion.timeout must not exceed pipeline.timeout")
	}

	// Completion protocol specifics
	if c.Completion.Protocol == "retrieval" && c.Completion.APIKey == "" {
		errs = append(errs, "completion.api_key is required for the retrieval protocol")
	}

	// Moderation source specifics
	switch c.Moderation.Source {
	case "file":
		if err := ValidateNonEmpty(c.Moderation.File.Path, "moderation.file.path"); err != nil {
			errs = append(errs, err.Error())
		}
	case "sqlite":
		if err := ValidateNonEmpty(c.Storage.SQLite.Path, "storage.sqlite.path"); err != nil {
			errs = append(errs, err.Error())
		}
	case "mysql":
		mysql := c.Storage.MySQL
		for field, value := range map[string]string{
			"storage.mysql.primary.host":     mysql.Primary.Host,
			"storage.mysql.primary.database": mysql.Primary.Database,
			"storage.mysql.primary.username": mysql.Primary.Username,
			"storage.mysql.primary.password": mysql.Primary.Password,
		} {
			if err := ValidateNonEmpty(value, field); err != nil {
				errs = append(errs, err.Error())
			}
		}
		if mysql.Primary.Port < 1 || mysql.Primary.Port > 65535 {
			errs = append(errs, fmt.Sprintf("storage.mysql.primary.port must be between 1 and 65535, got %d", mysql.Primary.Port))
		}
		if mysql.Pool.MaxOpenConns < 1 {
			errs = append(errs, "storage.mysql.pool.max_open_conns must be at least 1")
		}
		if mysql.Pool.MaxIdleConns > mysql.Pool.MaxOpenConns {
			errs = append(errs, "storage.mysql.pool.max_idle_conns cannot exceed max_open_conns")
		}
		if err := ValidateDuration(mysql.Timeout, "storage.mysql.timeout"); err != nil {
			errs = append(errs, err.Error())
		}
	}

	// PagerDuty validation
	if c.IsPagerDutyEnabled() {
		if err := ValidateNonEmpty(c.PagerDuty.RoutingKey, "pagerduty.routing_key"); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		slices.Sort(errs)
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// describeFieldError renders a validator error using the configuration key.
func describeFieldError(fe validator.FieldError) string {
	key := fe.Namespace()
	if _, rest, ok := strings.Cut(key, "."); ok {
		key = rest
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", key)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", key, fe.Param(), fmt.Sprint(fe.Value()))
	case "url":
		return fmt.Sprintf("%s must be a valid URL", key)
	case "gt", "gte", "lt", "lte", "min", "max":
		return fmt.Sprintf("%s must be %s %s, got %v", key, fe.Tag(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", key, fe.Tag())
	}
}
