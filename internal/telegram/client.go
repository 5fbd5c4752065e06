// Package telegram provides a client for sending notifications via Telegram Bot API.
// It formats reports on newly ready analyses into MarkdownV2 messages and
// retries delivery on failure.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/vtanalysis/internal/models"
)

// sender is the subset of the bot API used by Client.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client handles Telegram notifications
type Client struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	return newClient(bot, chatID, maxRetries, retryDelayBase)
}

func newClient(bot sender, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// Send sends a notification listing the given reports
func (c *Client) Send(reports []models.Report) error {
	if len(reports) == 0 {
		return nil
	}
	return c.send(formatMessage(reports))
}

// SendError notifies the chat that a polling cycle failed
func (c *Client) SendError(err error) error {
	message := "⚠️ *Analysis polling failed*\n\n" + escapeMarkdownV2(err.Error())
	return c.send(message)
}

func (c *Client) send(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatMessage formats reports into a Telegram message
func formatMessage(reports []models.Report) string {
	var b strings.Builder
	b.WriteString("🧬 *Analyses Ready*\n\n")

	for i, r := range reports {
		title := escapeMarkdownV2(r.AnalysisID)
		if r.SampleName != "" {
			title = escapeMarkdownV2(r.SampleName) + " \\(" + title + "\\)"
		}
		fmt.Fprintf(&b, "%d\\. %s\n", i+1, title)
		fmt.Fprintf(&b, "   Workflow: %s\n", escapeMarkdownV2(string(r.Workflow)))

		if r.TotalHits == 0 {
			b.WriteString("   No hits\n\n")
			continue
		}

		fmt.Fprintf(&b, "   Hits: %d\n", r.TotalHits)
		for _, h := range r.TopHits {
			fmt.Fprintf(&b, "   • %s: %s\n", escapeMarkdownV2(h.Name), escapeMarkdownV2(formatMetric(h)))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// formatMetric renders a hit metric in the unit people read it in
func formatMetric(h models.HitSummary) string {
	switch h.Metric {
	case models.MetricE:
		return fmt.Sprintf("E = %.2e", h.Value)
	case models.MetricIdentity:
		return fmt.Sprintf("identity %.1f%%", h.Value*100)
	default:
		return fmt.Sprintf("pi %.3f", h.Value)
	}
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
