// Package reporter pushes run results to the candidate over Telegram.
package reporter

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"go-ronin-automation/internal/models"
	"go-ronin-automation/internal/orchestrator"
)

type TelegramReporter struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramReporter(token string, chatID int64) (*TelegramReporter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &TelegramReporter{bot: bot, chatID: chatID}, nil
}

func (t *TelegramReporter) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = "HTML" //use HTML for bold/italic
	_, err := t.bot.Send(msg)
	return err
}

// SendRunSummary reports how an application run went, listing any postings
// that need human attention.
func (t *TelegramReporter) SendRunSummary(s *orchestrator.RunSummary) error {
	text := fmt.Sprintf(
		"🏁 <b>Application run finished</b>\n"+
			"✅ Submitted: %d\n"+
			"🔁 Will retry: %d\n"+
			"❌ Permanently failed: %d\n"+
			"⏭ Skipped: %d",
		s.Submitted, s.Retried, s.PermanentlyFailed, s.Skipped)

	if len(s.Failures) > 0 {
		text += "\n\n<b>Needs attention:</b>"
		for url, reason := range s.Failures {
			text += fmt.Sprintf("\n• <a href=\"%s\">%s</a>", url, reason)
		}
	}
	return t.SendMessage(text)
}

// SendPosting announces one freshly discovered posting.
func (t *TelegramReporter) SendPosting(p models.JobPosting) error {
	text := fmt.Sprintf(
		"🔥 <b>%s</b>\n"+
			"🏢 %s\n"+
			"💰 %s\n"+
			"📍 %s\n"+
			"⭐ Score: %d (%s)\n"+
			"🔗 <a href=\"%s\">View posting</a>",
		p.Title,
		p.Company,
		orDefault(p.Salary, "Not listed"),
		orDefault(p.Location, "Not listed"),
		p.MatchScore,
		p.MatchRationale,
		p.URL,
	)
	return t.SendMessage(text)
}

func (t *TelegramReporter) SendError(errReq error) error {
	text := fmt.Sprintf("⚠️ <b>Ronin Error</b>:\n%v", errReq)
	return t.SendMessage(text)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
