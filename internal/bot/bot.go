package bot

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/sheetbot/internal/catalog"
	"github.com/example/sheetbot/internal/database"
	"github.com/example/sheetbot/internal/eventlog"
	"github.com/example/sheetbot/internal/ledger"
	"github.com/example/sheetbot/internal/mirror"
)

// Deps collects everything the bot needs. Mirror may be nil when no
// remote credentials are configured.
type Deps struct {
	Token   string
	Store   *ledger.Store
	Events  *eventlog.Log
	Mirror  *mirror.Client
	Catalog *catalog.Catalog
	Users   *database.UserRepository
}

// Bot hosts the Telegram command surface over the progress ledger.
type Bot struct {
	api     *tgbotapi.BotAPI
	token   string
	store   *ledger.Store
	events  *eventlog.Log
	mirror  *mirror.Client
	catalog *catalog.Catalog
	users   *database.UserRepository
}

// New creates a new bot instance
func New(deps Deps) (*Bot, error) {
	if deps.Token == "" {
		return nil, fmt.Errorf("telegram bot token is not set")
	}
	if deps.Store == nil || deps.Events == nil || deps.Catalog == nil || deps.Users == nil {
		return nil, fmt.Errorf("bot dependencies are incomplete")
	}
	return &Bot{
		token:   deps.Token,
		store:   deps.Store,
		events:  deps.Events,
		mirror:  deps.Mirror,
		catalog: deps.Catalog,
		users:   deps.Users,
	}, nil
}

// Start connects to Telegram and handles updates until the context is
// canceled.
func (b *Bot) Start(ctx context.Context) error {
	botAPI, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return fmt.Errorf("unable to create bot: %v", err)
	}
	b.api = botAPI
	log.Printf("Authorized on account %s", botAPI.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if err := b.HandleCommand(ctx, update.Message); err != nil {
				log.Printf("Error handling /%s: %v", update.Message.Command(), err)
			}
		}
	}
}

// Stop gracefully stops the bot
func (b *Bot) Stop() {
	if b.api != nil {
		b.api.StopReceivingUpdates()
	}
	log.Println("Bot stopped")
}

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	if message.From == nil || message.Chat == nil {
		return fmt.Errorf("invalid message: required fields are missing")
	}

	var err error
	switch message.Command() {
	case "start":
		err = b.handleStart(ctx, message)
	case "help":
		err = b.handleHelp(message)
	case "modules":
		err = b.handleModules(message)
	case "log":
		err = b.handleLog(ctx, message)
	case "leaderboard":
		err = b.handleLeaderboard(ctx, message)
	case "myprogress":
		err = b.handleMyProgress(message)
	case "export":
		err = b.handleExport(message)
	case "alllogs":
		err = b.handleAllLogs(message)
	case "race":
		err = b.handleRace(ctx, message)
	default:
		err = b.reply(message.Chat.ID, "Unknown command. Use /help to see what I can do.")
	}
	return err
}

func (b *Bot) reply(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	return err
}

// replyCode sends text as a monospace block so tables line up.
func (b *Bot) replyCode(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, "```\n"+text+"```")
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendDocument(chatID int64, name string, data []byte) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	_, err := b.api.Send(doc)
	return err
}

func (b *Bot) sendPhoto(chatID int64, name string, data []byte) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	_, err := b.api.Send(photo)
	return err
}
