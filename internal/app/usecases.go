package app

import (
	"github.com/qj0r9j0vc2/mention-bridge/internal/usecase/mention"
	"github.com/qj0r9j0vc2/mention-bridge/internal/usecase/moderation"
)

// UseCases holds all application use cases.
type UseCases struct {
	HandleMention *mention.HandleMentionUseCase
}

func (app *Application) initializeUseCases() {
	deps := mention.Dependencies{
		Moderator: app.clients.Moderator,
		Threads:   app.clients.Slack,
		Completer: app.clients.Completer,
		Responder: app.clients.Slack,
		Formatter: app.clients.Formatter,
		Metrics:   app.telemetry.Metrics,
		Logger:    app.logAdapter(),
	}
	if app.clients.Reporter != nil {
		deps.Reporter = app.clients.Reporter
	}

	app.useCases = &UseCases{
		HandleMention: mention.NewHandleMentionUseCase(deps, app.currentSettings, mention.Options{
			PipelineTimeout: app.config.Pipeline.Timeout,
			ReplyTimeout:    app.config.Pipeline.ReplyTimeout,
		}),
	}
}

// currentSettings maps the current configuration snapshot onto pipeline settings.
func (app *Application) currentSettings() mention.Settings {
	cfg := app.configManager.Get()

	policy, err := moderation.ParseFailPolicy(cfg.Moderation.FailPolicy)
	if err != nil {
		policy = moderation.FailOpen
	}

	return mention.Settings{
		SystemPrompt:      cfg.Conversation.SystemPrompt,
		MaxThreadMessages: cfg.Conversation.MaxThreadMessages,
		FailPolicy:        policy,
		Messages: mention.Messages{
			Rejected:          cfg.Messages.Rejected,
			ThreadFetchFailed: cfg.Messages.ThreadFetchFailed,
			NoQuestion:        cfg.Messages.NoQuestion,
			NoAnswer:          cfg.Messages.NoAnswer,
			ErrorPrefix:       cfg.Messages.ErrorPrefix,
		},
	}
}
