package mention

import "github.com/qj0r9j0vc2/mention-bridge/internal/usecase/moderation"

// Messages holds the canned replies posted when the pipeline stops early.
type Messages struct {
	Rejected          string
	ThreadFetchFailed string
	NoQuestion        string
	NoAnswer          string
	ErrorPrefix       string
}

// DefaultMessages returns the canned replies of the original deployment.
func DefaultMessages() Messages {
	return Messages{
		Rejected:          "不適切な言葉が含まれています。",
		ThreadFetchFailed: "[Bot]メッセージの取得に失敗しました。",
		NoQuestion:        "[Bot]質問メッセージが見つかりませんでした。メンションを付けて質問してみて下さい。",
		NoAnswer:          "[Bot]ChatGPTから返信がありませんでした。この症状は、ChatGPTのサーバーの調子が悪い時に起こります。少し待って再度試してみて下さい。",
		ErrorPrefix:       "Error happened: ",
	}
}

// Settings are the reloadable parameters of the pipeline.
type Settings struct {
	SystemPrompt      string
	MaxThreadMessages int // <= 0 disables truncation
	FailPolicy        moderation.FailPolicy
	Messages          Messages
}

// SettingsFunc returns the current settings. It is called once per mention so
// configuration reloads take effect on the next event.
type SettingsFunc func() Settings

// StaticSettings returns a SettingsFunc that always yields s.
func StaticSettings(s Settings) SettingsFunc {
	return func() Settings { return s }
}
