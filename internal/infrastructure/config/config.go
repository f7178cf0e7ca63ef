package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Slack        SlackConfig        `mapstructure:"slack"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Completion   CompletionConfig   `mapstructure:"completion"`
	Moderation   ModerationConfig   `mapstructure:"moderation"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Pipeline     PipelineConfig     `mapstructure:"pipeline"`
	Messages     MessagesConfig     `mapstructure:"messages"`
	PagerDuty    PagerDutyConfig    `mapstructure:"pagerduty"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// SlackConfig holds Slack integration settings.
type SlackConfig struct {
	BotToken      string `mapstructure:"bot_token" validate:"required"`
	SigningSecret string `mapstructure:"signing_secret"` // empty disables request signature verification
	BotUserID     string `mapstructure:"bot_user_id"`
	APIURL        string `mapstructure:"api_url" validate:"omitempty,url"`

	// MrkdwnConversion rewrites Markdown answers into Slack mrkdwn before posting.
	MrkdwnConversion bool `mapstructure:"mrkdwn_conversion"`
}

// ConversationConfig controls how a thread becomes a conversation.
type ConversationConfig struct {
	SystemPrompt      string `mapstructure:"system_prompt"`
	MaxThreadMessages int    `mapstructure:"max_thread_messages"` // <= 0 keeps the whole thread
}

// CompletionConfig holds completion service settings.
type CompletionConfig struct {
	Protocol   string `mapstructure:"protocol" validate:"oneof=chat retrieval"`
	Endpoint   string `mapstructure:"endpoint" validate:"required,url"`
	APIKey     string `mapstructure:"api_key"`
	Deployment string `mapstructure:"deployment"`
	APIVersion string `mapstructure:"api_version"`
	Model      string `mapstructure:"model"`
	AuthScheme string `mapstructure:"auth_scheme" validate:"oneof=api-key bearer"`

	MaxTokens        int     `mapstructure:"max_tokens" validate:"gt=0"`
	Temperature      float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	FrequencyPenalty float64 `mapstructure:"frequency_penalty" validate:"gte=-2,lte=2"`
	PresencePenalty  float64 `mapstructure:"presence_penalty" validate:"gte=-2,lte=2"`
	TopP             float64 `mapstructure:"top_p" validate:"gte=0,lte=1"`

	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`

	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// CircuitBreakerConfig guards the completion service.
type CircuitBreakerConfig struct {
	MaxFailures int           `mapstructure:"max_failures" validate:"gte=0"` // 0 disables the breaker
	OpenTimeout time.Duration `mapstructure:"open_timeout" validate:"gte=0"`
}

// ModerationConfig selects and configures the moderation gate.
type ModerationConfig struct {
	Source     string                 `mapstructure:"source" validate:"oneof=blob file sqlite mysql static none"`
	FailPolicy string                 `mapstructure:"fail_policy" validate:"oneof=open closed"`
	Blob       BlobModerationConfig   `mapstructure:"blob"`
	File       FileModerationConfig   `mapstructure:"file"`
	Static     StaticModerationConfig `mapstructure:"static"`
}

// BlobModerationConfig locates the word list in Azure Blob Storage.
type BlobModerationConfig struct {
	ConnectionString string `mapstructure:"connection_string"`
	Container        string `mapstructure:"container"`
	Blob             string `mapstructure:"blob"`
}

// FileModerationConfig locates the word list on the local filesystem.
type FileModerationConfig struct {
	Path string `mapstructure:"path"`
}

// StaticModerationConfig configures the static gate.
type StaticModerationConfig struct {
	PatternsFile string `mapstructure:"patterns_file"` // YAML file replacing the built-in literals
}

// StorageConfig holds settings for the SQL word-list stores.
type StorageConfig struct {
	SQLite SQLiteConfig `mapstructure:"sqlite"`
	MySQL  MySQLConfig  `mapstructure:"mysql"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `mapstructure:"path"` // Database file path, use ":memory:" for in-memory
}

// MySQLConfig holds MySQL-specific settings.
type MySQLConfig struct {
	Primary   MySQLInstanceConfig `mapstructure:"primary"`
	Pool      MySQLPoolConfig     `mapstructure:"pool"`
	Timeout   time.Duration       `mapstructure:"timeout"`
	ParseTime bool                `mapstructure:"parse_time"`
	Charset   string              `mapstructure:"charset"`
}

// MySQLInstanceConfig holds MySQL instance connection settings.
type MySQLInstanceConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// MySQLPoolConfig holds MySQL connection pool settings.
type MySQLPoolConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// PipelineConfig bounds the time spent on one mention.
type PipelineConfig struct {
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
	ReplyTimeout time.Duration `mapstructure:"reply_timeout" validate:"gt=0"`
}

// MessagesConfig holds the canned replies.
type MessagesConfig struct {
	Rejected          string `mapstructure:"rejected" validate:"required"`
	ThreadFetchFailed string `mapstructure:"thread_fetch_failed" validate:"required"`
	NoQuestion        string `mapstructure:"no_question" validate:"required"`
	NoAnswer          string `mapstructure:"no_answer" validate:"required"`
	ErrorPrefix       string `mapstructure:"error_prefix" validate:"required"`
}

// PagerDutyConfig holds dependency-failure reporting settings.
type PagerDutyConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	RoutingKey   string        `mapstructure:"routing_key"`
	Severity     string        `mapstructure:"severity" validate:"oneof=critical error warning info"`
	Source       string        `mapstructure:"source"`
	EventsAPIURL string        `mapstructure:"events_api_url" validate:"omitempty,url"`
	Cooldown     time.Duration `mapstructure:"cooldown" validate:"gte=0"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// envBindings maps configuration keys to the environment variables that set them.
// Earlier names take precedence; the trailing names are the ones the original
// Azure Functions deployment used.
var envBindings = map[string][]string{
	"server.port":                       {"SERVER_PORT"},
	"slack.bot_token":                   {"SLACK_BOT_TOKEN"},
	"slack.signing_secret":              {"SLACK_SIGNING_SECRET"},
	"slack.api_url":                     {"SLACK_API_URL"},
	"logging.level":                     {"LOG_LEVEL"},
	"logging.format":                    {"LOG_FORMAT"},
	"storage.sqlite.path":               {"SQLITE_DATABASE_PATH"},
	"storage.mysql.primary.host":        {"MYSQL_HOST"},
	"storage.mysql.primary.port":        {"MYSQL_PORT"},
	"storage.mysql.primary.database":    {"MYSQL_DATABASE"},
	"storage.mysql.primary.username":    {"MYSQL_USERNAME"},
	"storage.mysql.primary.password":    {"MYSQL_PASSWORD"},
	"pagerduty.enabled":                 {"PAGERDUTY_ENABLED"},
	"pagerduty.routing_key":             {"PAGERDUTY_ROUTING_KEY"},
	"slack.bot_user_id":                 {"SLACK_BOT_USER_ID", "GPT_BOT_USER_ID"},
	"conversation.system_prompt":        {"CONVERSATION_SYSTEM_PROMPT", "CHAT_GPT_SYSTEM_PROMPT"},
	"conversation.max_thread_messages":  {"CONVERSATION_MAX_THREAD_MESSAGES", "GPT_THREAD_MAX_COUNT"},
	"moderation.blob.connection_string": {"MODERATION_BLOB_CONNECTION_STRING", "AZURE_STORAGE_CONNECTION_STRING"},
	"completion.endpoint":               {"COMPLETION_ENDPOINT", "OPENAI_API_URL"},
	"completion.api_key":                {"COMPLETION_API_KEY", "OPENAI_API_KEY"},
	"completion.deployment":             {"COMPLETION_DEPLOYMENT", "OPENAI_DEPLOY_NAME"},
}

// setDefaults registers a default for every key so environment overrides
// reach keys that are absent from the config file.
func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 3*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	// Slack
	v.SetDefault("slack.bot_token", "")
	v.SetDefault("slack.signing_secret", "")
	v.SetDefault("slack.bot_user_id", "")
	v.SetDefault("slack.api_url", "")
	v.SetDefault("slack.mrkdwn_conversion", false)

	// Conversation
	v.SetDefault("conversation.system_prompt", "You are a helpful assistant.")
	v.SetDefault("conversation.max_thread_messages", 20)

	// Completion
	v.SetDefault("completion.protocol", "chat")
	v.SetDefault("completion.endpoint", "")
	v.SetDefault("completion.api_key", "")
	v.SetDefault("completion.deployment", "")
	v.SetDefault("completion.api_version", "2023-03-15-preview")
	v.SetDefault("completion.model", "")
	v.SetDefault("completion.auth_scheme", "api-key")
	v.SetDefault("completion.max_tokens", 800)
	v.SetDefault("completion.temperature", 0.7)
	v.SetDefault("completion.frequency_penalty", 0.0)
	v.SetDefault("completion.presence_penalty", 0.0)
	v.SetDefault("completion.top_p", 0.95)
	v.SetDefault("completion.timeout", 20*time.Second)
	v.SetDefault("completion.circuit_breaker.max_failures", 5)
	v.SetDefault("completion.circuit_breaker.open_timeout", 30*time.Second)

	// Moderation
	v.SetDefault("moderation.source", "static")
	v.SetDefault("moderation.fail_policy", "open")
	v.SetDefault("moderation.blob.connection_string", "")
	v.SetDefault("moderation.blob.container", "ngwordcontainer")
	v.SetDefault("moderation.blob.blob", "ngwords.txt")
	v.SetDefault("moderation.file.path", "")
	v.SetDefault("moderation.static.patterns_file", "")

	// Storage
	v.SetDefault("storage.sqlite.path", "./data/mention-bridge.db")
	v.SetDefault("storage.mysql.primary.host", "")
	v.SetDefault("storage.mysql.primary.port", 3306)
	v.SetDefault("storage.mysql.primary.database", "")
	v.SetDefault("storage.mysql.primary.username", "")
	v.SetDefault("storage.mysql.primary.password", "")
	v.SetDefault("storage.mysql.pool.max_open_conns", 25)
	v.SetDefault("storage.mysql.pool.max_idle_conns", 5)
	v.SetDefault("storage.mysql.pool.conn_max_lifetime", 3*time.Minute)
	v.SetDefault("storage.mysql.pool.conn_max_idle_time", 1*time.Minute)
	v.SetDefault("storage.mysql.timeout", 5*time.Second)
	v.SetDefault("storage.mysql.parse_time", true)
	v.SetDefault("storage.mysql.charset", "utf8mb4")

	// Pipeline
	v.SetDefault("pipeline.timeout", 25*time.Second)
	v.SetDefault("pipeline.reply_timeout", 10*time.Second)

	// Messages
	v.SetDefault("messages.rejected", "不適切な言葉が含まれています。")
	v.SetDefault("messages.thread_fetch_failed", "[Bot]メッセージの取得に失敗しました。")
	v.SetDefault("messages.no_question", "[Bot]質問メッセージが見つかりませんでした。メンションを付けて質問してみて下さい。")
	v.SetDefault("messages.no_answer", "[Bot]ChatGPTから返信がありませんでした。この症状は、ChatGPTのサーバーの調子が悪い時に起こります。少し待って再度試してみて下さい。")
	v.SetDefault("messages.error_prefix", "Error happened: ")

	// PagerDuty
	v.SetDefault("pagerduty.enabled", false)
	v.SetDefault("pagerduty.routing_key", "")
	v.SetDefault("pagerduty.severity", "error")
	v.SetDefault("pagerduty.source", "mention-bridge")
	v.SetDefault("pagerduty.events_api_url", "")
	v.SetDefault("pagerduty.cooldown", 5*time.Minute)
	v.SetDefault("pagerduty.timeout", 10*time.Second)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// newViper creates a viper instance with defaults, environment bindings and,
// when path names an existing file, the file's contents.
func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envBindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	if path == "" {
		return v, nil
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return v, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return v, nil
}

// Read loads configuration from file and environment without validating it.
func Read(path string) (*Config, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}
	return decode(v)
}

// Load reads configuration from file and environment and validates it.
// A missing file is not an error: defaults and environment variables apply.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// IsPagerDutyEnabled returns true if dependency-failure reporting is enabled.
func (c *Config) IsPagerDutyEnabled() bool {
	return c.PagerDuty.Enabled
}

// IsSignatureVerificationEnabled returns true if Slack request signatures are checked.
func (c *Config) IsSignatureVerificationEnabled() bool {
	return c.Slack.SigningSecret != ""
}
