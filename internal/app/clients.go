package app

import (
	"fmt"

	"github.com/qj0r9j0vc2/mention-bridge/internal/adapter/presenter"
	"github.com/qj0r9j0vc2/mention-bridge/internal/domain/repository"
	"github.com/qj0r9j0vc2/mention-bridge/internal/infrastructure/completion"
	"github.com/qj0r9j0vc2/mention-bridge/internal/infrastructure/config"
	"github.com/qj0r9j0vc2/mention-bridge/internal/infrastructure/pagerduty"
	"github.com/qj0r9j0vc2/mention-bridge/internal/infrastructure/resilience"
	"github.com/qj0r9j0vc2/mention-bridge/internal/infrastructure/slack"
	"github.com/qj0r9j0vc2/mention-bridge/internal/infrastructure/wordlist"
	"github.com/qj0r9j0vc2/mention-bridge/internal/usecase/mention"
	"github.com/qj0r9j0vc2/mention-bridge/internal/usecase/moderation"
)

// Clients holds the infrastructure clients of the mention pipeline.
type Clients struct {
	Slack     *slack.Client
	Completer mention.Completer
	Moderator mention.Moderator
	Formatter *presenter.MrkdwnFormatter
	Reporter  *pagerduty.Reporter // nil when PagerDuty is disabled
}

func (app *Application) initializeClients() error {
	log := app.logger.Get()
	app.clients = &Clients{}

	// Slack client
	app.clients.Slack = slack.NewClient(app.config.Slack.BotToken, app.config.Slack.APIURL)
	log.Info("slack client initialized", "custom_api_url", app.config.Slack.APIURL != "")

	// Completion client
	completer, err := NewCompleter(app.config.Completion)
	if err != nil {
		return err
	}
	app.clients.Completer = completer
	log.Info("completion client initialized",
		"protocol", completer.Protocol(),
		"circuit_breaker", app.config.Completion.CircuitBreaker.MaxFailures > 0,
	)

	// Moderation gate
	moderator, err := NewModerator(app.config, app.patternRepo, app.logAdapter())
	if err != nil {
		return err
	}
	app.clients.Moderator = moderator
	log.Info("moderation gate initialized",
		"source", app.config.Moderation.Source,
		"fail_policy", app.config.Moderation.FailPolicy,
	)

	// Reply formatter reads the reloadable setting on every reply
	app.clients.Formatter = presenter.NewMrkdwnFormatter(func() bool {
		return app.configManager.Get().Slack.MrkdwnConversion
	})

	// PagerDuty reporter (optional)
	if app.config.IsPagerDutyEnabled() {
		app.clients.Reporter = pagerduty.NewReporter(pagerduty.Config{
			RoutingKey:   app.config.PagerDuty.RoutingKey,
			Severity:     app.config.PagerDuty.Severity,
			Source:       app.config.PagerDuty.Source,
			EventsAPIURL: app.config.PagerDuty.EventsAPIURL,
			Cooldown:     app.config.PagerDuty.Cooldown,
			Timeout:      app.config.PagerDuty.Timeout,
		}, app.logAdapter())
		log.Info("pagerduty reporter initialized",
			"severity", app.config.PagerDuty.Severity,
			"cooldown", app.config.PagerDuty.Cooldown,
		)
	}

	return nil
}

// NewCompleter creates the completion client selected by cfg.Protocol,
// wrapped in a circuit breaker unless cfg.CircuitBreaker.MaxFailures is zero.
func NewCompleter(cfg config.CompletionConfig) (mention.Completer, error) {
	var client completion.Client

	switch cfg.Protocol {
	case "retrieval":
		rc, err := completion.NewRetrievalClient(completion.RetrievalConfig{
			Endpoint:   cfg.Endpoint,
			APIKey:     cfg.APIKey,
			Deployment: cfg.Deployment,
			Timeout:    cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("creating retrieval client: %w", err)
		}
		client = rc

	default:
		cc, err := completion.NewChatClient(completion.ChatConfig{
			Endpoint:         cfg.Endpoint,
			APIKey:           cfg.APIKey,
			Deployment:       cfg.Deployment,
			APIVersion:       cfg.APIVersion,
			Model:            cfg.Model,
			AuthScheme:       cfg.AuthScheme,
			MaxTokens:        cfg.MaxTokens,
			Temperature:      cfg.Temperature,
			FrequencyPenalty: cfg.FrequencyPenalty,
			PresencePenalty:  cfg.PresencePenalty,
			TopP:             cfg.TopP,
			Timeout:          cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("creating chat client: %w", err)
		}
		client = cc
	}

	if cfg.CircuitBreaker.MaxFailures <= 0 {
		return client, nil
	}

	breaker := resilience.NewCircuitBreaker("completion", cfg.CircuitBreaker.MaxFailures, cfg.CircuitBreaker.OpenTimeout)
	return completion.WithCircuitBreaker(client, breaker), nil
}

// NewModerator creates the moderation gate selected by moderation.source.
// repo must be non-nil for the sqlite and mysql sources.
func NewModerator(cfg *config.Config, repo repository.PatternRepository, logger moderation.Logger) (mention.Moderator, error) {
	switch cfg.Moderation.Source {
	case "none":
		return moderation.Disabled{}, nil

	case "static":
		literals := moderation.DefaultBannedLiterals
		if path := cfg.Moderation.Static.PatternsFile; path != "" {
			loaded, err := moderation.LoadStaticPatterns(path)
			if err != nil {
				return nil, err
			}
			literals = loaded
		}
		return moderation.NewStaticGate(literals), nil

	case "blob":
		source, err := wordlist.NewBlobSource(wordlist.BlobConfig{
			ConnectionString: cfg.Moderation.Blob.ConnectionString,
			Container:        cfg.Moderation.Blob.Container,
			Blob:             cfg.Moderation.Blob.Blob,
		})
		if err != nil {
			return nil, err
		}
		return moderation.NewDynamicGate(source, logger), nil

	case "file":
		return moderation.NewDynamicGate(wordlist.NewFileSource(cfg.Moderation.File.Path), logger), nil

	case "sqlite", "mysql":
		if repo == nil {
			return nil, fmt.Errorf("moderation source %q requires a pattern database", cfg.Moderation.Source)
		}
		return moderation.NewDynamicGate(wordlist.NewRepositorySource(repo, cfg.Moderation.Source), logger), nil

	default:
		return nil, fmt.Errorf("unknown moderation source %q", cfg.Moderation.Source)
	}
}
