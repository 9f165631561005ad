package hosting

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"jukebox/src/features/config"
)

// TelegramBot is a read-mostly status bot for the kiosk operator: what is
// playing, what comes next, the credit balance and the play statistics.
type TelegramBot struct {
	bot      *tgbotapi.BotAPI
	config   *config.Manager
	services Services
	updates  tgbotapi.UpdatesChannel
	stopChan chan struct{}
}

// NewTelegramBot creates a new Telegram bot instance.
func NewTelegramBot(cfg *config.Manager, svc Services) (*TelegramBot, error) {
	telegramConfig := cfg.Get().Telegram

	if !telegramConfig.Enabled {
		return nil, fmt.Errorf("telegram bot is disabled in configuration")
	}
	if telegramConfig.Token == "" {
		return nil, fmt.Errorf("telegram bot token is not configured")
	}

	bot, err := tgbotapi.NewBotAPI(telegramConfig.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	slog.Info("Telegram bot initialized", "username", bot.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30

	return &TelegramBot{
		bot:      bot,
		config:   cfg,
		services: svc,
		updates:  bot.GetUpdatesChan(updateConfig),
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins listening for Telegram updates.
func (t *TelegramBot) Start() {
	slog.Info("Starting Telegram bot listener")

	for {
		select {
		case update := <-t.updates:
			if update.Message != nil {
				go t.handleMessage(update)
			}
		case <-t.stopChan:
			slog.Info("Stopping Telegram bot listener")
			return
		}
	}
}

// Stop gracefully stops the bot.
func (t *TelegramBot) Stop() {
	close(t.stopChan)
}

// handleMessage processes one incoming message.
func (t *TelegramBot) handleMessage(update tgbotapi.Update) {
	message := update.Message
	chatID := message.Chat.ID

	if !t.authorized(message.From.UserName, chatID) {
		return
	}
	if !message.IsCommand() {
		t.sendMessage(chatID, "Send a command. Try /help")
		return
	}

	switch message.Command() {
	case "start", "help":
		t.sendMessage(chatID, t.helpText())
	case "nowplaying":
		t.sendMessage(chatID, t.nowPlayingText())
	case "upcoming":
		t.sendMessage(chatID, t.upcomingText())
	case "credits":
		t.sendMessage(chatID, fmt.Sprintf("💰 Balance: %.2f (%.2f per song)",
			t.services.Credits.Balance(), t.services.Credits.CostPerSong()))
	case "stats":
		t.sendMessage(chatID, t.statsText())
	default:
		t.sendMessage(chatID, "Unknown command. Try /help")
	}
}

// authorized checks the allow-list; demo mode bypasses it.
func (t *TelegramBot) authorized(username string, chatID int64) bool {
	cfg := t.config.Get()
	if cfg.Demo {
		return true
	}
	allowedUsers := cfg.Telegram.AllowedUsers
	if len(allowedUsers) == 0 {
		slog.Warn("No allowed users configured", "chat_id", chatID)
		t.sendMessage(chatID, "❌ Access denied: no users configured.")
		return false
	}
	if !slices.Contains(allowedUsers, username) {
		slog.Warn("Unauthorized telegram user", "username", username, "chat_id", chatID)
		t.sendMessage(chatID, "Unknown user, please add your user to the config")
		return false
	}
	return true
}

func (t *TelegramBot) helpText() string {
	return strings.Join([]string{
		"🎵 Jukebox status bot",
		"/nowplaying - current track",
		"/upcoming - next tracks",
		"/credits - credit balance",
		"/stats - most played songs",
	}, "\n")
}

func (t *TelegramBot) nowPlayingText() string {
	track, ok := t.services.Playback.CurrentlyPlaying()
	if !ok {
		return fmt.Sprintf("Nothing playing (state: %s)", t.services.Playback.State())
	}
	return fmt.Sprintf("▶️ %s (%s)", track.Display(), track.Duration)
}

func (t *TelegramBot) upcomingText() string {
	upcoming := t.services.Queue.Upcoming(10)
	if len(upcoming) == 0 {
		return "Queue is empty"
	}
	var b strings.Builder
	b.WriteString("🎶 Up next:\n")
	for i, name := range upcoming {
		fmt.Fprintf(&b, "%d. %s\n", i+1, name)
	}
	return b.String()
}

func (t *TelegramBot) statsText() string {
	if t.services.Stats == nil {
		return "Statistics are not enabled"
	}
	top, err := t.services.Stats.TopSongs(context.Background(), 10)
	if err != nil {
		slog.Error("Failed to query top songs for telegram", "error", err)
		return "Could not load statistics"
	}
	if len(top) == 0 {
		return "No plays recorded yet"
	}
	var b strings.Builder
	b.WriteString("📊 Most played:\n")
	for i, song := range top {
		fmt.Fprintf(&b, "%d. %s - %s (%d plays)\n", i+1, song.Artist, song.Title, song.PlayCount)
	}
	return b.String()
}

func (t *TelegramBot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		slog.Error("Failed to send telegram message", "error", err)
	}
}
