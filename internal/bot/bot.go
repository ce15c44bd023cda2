// Package bot реализует административного телеграм-бота: фиксированный
// набор команд управления подписками поверх длинного опроса Telegram API.
//
// Каждая команда сначала проверяет отправителя по списку администраторов
// и отвечает единообразным отказом до любых побочных эффектов. Ошибка
// обработки одного обновления не роняет цикл опроса: обработчик закрыт
// recover-ом и завершает отказ ответом администратору.
package bot

import (
	"context"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/magabrotheeeer/subscription-admin/internal/config"
	"github.com/magabrotheeeer/subscription-admin/internal/health"
	"github.com/magabrotheeeer/subscription-admin/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-admin/internal/models"
	subservice "github.com/magabrotheeeer/subscription-admin/internal/services/subscription"
)

const usersPageSize = 10

// Service описывает интерфейс бизнес-логики, используемый ботом.
type Service interface {
	AddUser(ctx context.Context, id int64, username, firstName, lastName string) bool
	GetUser(ctx context.Context, id int64) (*models.User, bool)
	GrantSubscription(ctx context.Context, p subservice.GrantParams) (time.Time, bool)
	ExpireSubscription(ctx context.Context, id int64) bool
	IsSubscribed(ctx context.Context, id int64) bool
	UserStats(ctx context.Context, id int64) (*models.UserStats, bool)
	ListAllUsers(ctx context.Context) []*models.User
	ListActiveUsers(ctx context.Context) []*models.User
	Stats(ctx context.Context) *models.Stats
}

// Sender — минимальная часть Telegram API, нужная боту для ответов.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot инкапсулирует Telegram API, бизнес-логику и настройки администраторов.
type Bot struct {
	api     *tgbotapi.BotAPI
	sender  Sender
	service Service
	admin   config.Admin
	status  health.StatusFunc
	log     *slog.Logger
}

// New создает административного бота с длинным опросом Telegram API.
func New(token string, service Service, admin config.Admin, status health.StatusFunc, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:     api,
		sender:  api,
		service: service,
		admin:   admin,
		status:  status,
		log:     log,
	}, nil
}

// Run запускает цикл длинного опроса и блокируется до отмены контекста.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("telegram bot polling started", slog.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info("telegram bot polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate обрабатывает одно обновление. Паника внутри обработчика
// гасится на уровне обновления и завершается общим ответом об ошибке.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			b.log.Error("panic while handling update", slog.Any("panic", rec))
			if update.Message != nil {
				b.reply(update.Message.Chat.ID,
					"❌ An error occurred while processing your admin request. Please try again later.")
			}
		}
	}()

	switch {
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	const op = "bot.handleCommand"
	log := b.log.With(
		slog.String("op", op),
		slog.String("command", msg.Command()),
		slog.Int64("from", msg.From.ID),
	)

	if !b.admin.IsAdmin(msg.From.ID) {
		log.Warn("access denied")
		b.reply(msg.Chat.ID, "🚫 Access denied. This bot is for administrators only.")
		return
	}

	args := strings.Fields(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		b.handleStart(msg)
	case "help":
		b.handleHelp(msg)
	case "stats":
		b.handleStats(ctx, msg)
	case "grant":
		b.handleGrant(ctx, msg, args)
	case "revoke":
		b.handleRevoke(ctx, msg, args)
	case "userinfo":
		b.handleUserInfo(ctx, msg, args)
	case "users":
		b.handleUsers(ctx, msg, args)
	case "active":
		b.handleActive(ctx, msg)
	case "health":
		b.handleHealth(msg)
	default:
		b.reply(msg.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

// reply отправляет текстовый ответ в HTML-разметке. Сбой отправки только
// логируется: повторять нечем, цикл опроса должен жить дальше.
func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.sender.Send(msg); err != nil {
		b.log.Error("failed to send reply", sl.Err(err))
	}
}

// replyWithKeyboard отправляет ответ с инлайн-клавиатурой.
func (b *Bot) replyWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = keyboard
	if _, err := b.sender.Send(msg); err != nil {
		b.log.Error("failed to send reply", sl.Err(err))
	}
}

// editWithKeyboard заменяет текст и клавиатуру существующего сообщения.
func (b *Bot) editWithKeyboard(chatID int64, messageID int, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.ReplyMarkup = &keyboard
	if _, err := b.sender.Send(edit); err != nil {
		b.log.Error("failed to edit message", sl.Err(err))
	}
}
