package telegram

import (
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/vtanalysis/internal/models"
)

type fakeBot struct {
	failures int
	sent     []tgbotapi.MessageConfig
	attempts int
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.attempts++
	if f.attempts <= f.failures {
		return tgbotapi.Message{}, errors.New("rate limited")
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"plain", "plain"},
		{"a.b", "a\\.b"},
		{"Field_12 (run-2)!", "Field\\_12 \\(run\\-2\\)\\!"},
		{"1.5e-03", "1\\.5e\\-03"},
	}

	for _, tt := range tests {
		result := escapeMarkdownV2(tt.input)
		if result != tt.expected {
			t.Errorf("escapeMarkdownV2(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}

func TestFormatMetric(t *testing.T) {
	tests := []struct {
		hit      models.HitSummary
		expected string
	}{
		{models.HitSummary{Metric: models.MetricPi, Value: 0.25}, "pi 0.250"},
		{models.HitSummary{Metric: models.MetricE, Value: 0.00015}, "E = 1.50e-04"},
		{models.HitSummary{Metric: models.MetricIdentity, Value: 0.98}, "identity 98.0%"},
	}

	for _, tt := range tests {
		if result := formatMetric(tt.hit); result != tt.expected {
			t.Errorf("formatMetric(%+v) = %q, expected %q", tt.hit, result, tt.expected)
		}
	}
}

func TestFormatMessage(t *testing.T) {
	reports := []models.Report{
		{
			AnalysisID: "abc123",
			Workflow:   models.WorkflowPathoscopeBowtie,
			SampleName: "Field 12",
			TotalHits:  4,
			TopHits:    []models.HitSummary{{Name: "Tobacco mosaic virus", Metric: models.MetricPi, Value: 0.5}},
		},
		{AnalysisID: "def456", Workflow: models.WorkflowIimi},
	}

	message := formatMessage(reports)

	for _, want := range []string{
		"1\\. Field 12 \\(abc123\\)",
		"Workflow: pathoscope\\_bowtie",
		"Hits: 4",
		"Tobacco mosaic virus: pi 0\\.500",
		"2\\. def456",
		"No hits",
	} {
		if !strings.Contains(message, want) {
			t.Errorf("Expected message to contain %q, got:\n%s", want, message)
		}
	}
}

func TestSendRetries(t *testing.T) {
	bot := &fakeBot{failures: 2}
	client, err := newClient(bot, "42", 3, time.Millisecond)
	if err != nil {
		t.Fatalf("newClient failed: %v", err)
	}

	if err := client.Send([]models.Report{{AnalysisID: "a1", Workflow: models.WorkflowNuVs}}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if bot.attempts != 3 || len(bot.sent) != 1 {
		t.Errorf("Expected 3 attempts and 1 message, got %d and %d", bot.attempts, len(bot.sent))
	}
	if bot.sent[0].ChatID != 42 || bot.sent[0].ParseMode != tgbotapi.ModeMarkdownV2 {
		t.Errorf("Unexpected message config: %+v", bot.sent[0])
	}
}

func TestSendGivesUp(t *testing.T) {
	bot := &fakeBot{failures: 10}
	client, err := newClient(bot, "42", 2, time.Millisecond)
	if err != nil {
		t.Fatalf("newClient failed: %v", err)
	}

	if err := client.SendError(errors.New("api down")); err == nil {
		t.Error("Expected error after exhausting retries")
	}
	if bot.attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", bot.attempts)
	}
}

func TestSendNothing(t *testing.T) {
	bot := &fakeBot{}
	client, err := newClient(bot, "42", 1, time.Millisecond)
	if err != nil {
		t.Fatalf("newClient failed: %v", err)
	}
	if err := client.Send(nil); err != nil || bot.attempts != 0 {
		t.Errorf("Expected no send for empty reports, got err %v after %d attempts", err, bot.attempts)
	}
}

func TestInvalidChatID(t *testing.T) {
	if _, err := newClient(&fakeBot{}, "not-a-number", 1, time.Second); err == nil {
		t.Error("Expected error for invalid chat ID")
	}
}
