package bus

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// SettingsUpdate is the payload of SubjectSettingsUpdated.
type SettingsUpdate struct {
	APIKey string `json:"api_key"`
}

// settingsHandler decodes settings updates and passes the new API key to
// apply. Malformed payloads are logged and dropped.
func settingsHandler(apply func(apiKey string), logger *slog.Logger) nats.MsgHandler {
	return func(msg *nats.Msg) {
		var upd SettingsUpdate
		if err := json.Unmarshal(msg.Data, &upd); err != nil {
			logger.Error("failed to parse settings update", "subject", msg.Subject, "error", err)
			return
		}
		if upd.APIKey == "" {
			logger.Warn("OpenAI key not set. Please set it in the settings.")
		}
		apply(upd.APIKey)
		logger.Info("settings updated", "subject", msg.Subject)
	}
}
