package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	subservice "github.com/magabrotheeeer/subscription-admin/internal/services/subscription"
)

// Данные кнопок. Суффикс после последнего подчёркивания несёт параметр:
// номер страницы либо идентификатор пользователя.
const (
	cbStats       = "stats"
	cbRevenue     = "revenue"
	cbActiveUsers = "active_users"
	cbUsersPage   = "users_page"
	cbGrant       = "grant"
	cbRevoke      = "revoke"
	cbUserInfo    = "userinfo"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	const op = "bot.handleCallback"
	log := b.log.With(
		slog.String("op", op),
		slog.String("data", cb.Data),
		slog.Int64("from", cb.From.ID),
	)

	if !b.admin.IsAdmin(cb.From.ID) {
		log.Warn("access denied")
		b.answerCallback(cb.ID, "Access denied")
		return
	}
	if cb.Message == nil {
		b.answerCallback(cb.ID, "")
		return
	}

	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID

	switch {
	case cb.Data == cbStats:
		b.editWithKeyboard(chatID, messageID, formatStats(b.service.Stats(ctx)), statsKeyboard())

	case cb.Data == cbRevenue:
		b.editWithKeyboard(chatID, messageID,
			formatRevenueReport(b.service.Stats(ctx), b.admin.SubscriptionDays), statsKeyboard())

	case cb.Data == cbActiveUsers:
		users := b.service.ListActiveUsers(ctx)
		text, keyboard := formatUsersPage(users, 1, "✅ Active subscribers")
		b.editWithKeyboard(chatID, messageID, text, keyboard)

	case strings.HasPrefix(cb.Data, cbUsersPage+"_"):
		page, err := strconv.Atoi(strings.TrimPrefix(cb.Data, cbUsersPage+"_"))
		if err != nil || page <= 0 {
			page = 1
		}
		users := b.service.ListAllUsers(ctx)
		text, keyboard := formatUsersPage(users, page, "👥 All users")
		b.editWithKeyboard(chatID, messageID, text, keyboard)

	case strings.HasPrefix(cb.Data, cbGrant+"_"):
		b.callbackGrant(ctx, cb, chatID)

	case strings.HasPrefix(cb.Data, cbRevoke+"_"):
		b.callbackRevoke(ctx, cb, chatID)

	case strings.HasPrefix(cb.Data, cbUserInfo+"_"):
		userID, err := strconv.ParseInt(strings.TrimPrefix(cb.Data, cbUserInfo+"_"), 10, 64)
		if err != nil {
			break
		}
		user, ok := b.service.GetUser(ctx, userID)
		if !ok {
			b.answerCallback(cb.ID, "User not found")
			return
		}
		stats, _ := b.service.UserStats(ctx, userID)
		subscribed := b.service.IsSubscribed(ctx, userID)
		b.editWithKeyboard(chatID, messageID, formatUserInfo(user, stats, subscribed), userActionsKeyboard(userID))
	}

	b.answerCallback(cb.ID, "")
}

// callbackGrant выдаёт подписку по кнопке с настройками по умолчанию.
func (b *Bot) callbackGrant(ctx context.Context, cb *tgbotapi.CallbackQuery, chatID int64) {
	userID, err := strconv.ParseInt(strings.TrimPrefix(cb.Data, cbGrant+"_"), 10, 64)
	if err != nil {
		return
	}
	expiresAt, ok := b.service.GrantSubscription(ctx, subservice.GrantParams{
		UserID:  userID,
		AdminID: cb.From.ID,
	})
	if !ok {
		b.answerCallback(cb.ID, "Grant failed")
		return
	}
	b.log.Info("subscription granted via callback",
		slog.Int64("user_id", userID), slog.Int64("admin_id", cb.From.ID))
	b.reply(chatID, fmt.Sprintf(
		"✅ Subscription granted to user <code>%d</code>.\nExpires: <b>%s</b>",
		userID, expiresAt.Format("2006-01-02 15:04 MST")))
}

// callbackRevoke отзывает подписку по кнопке.
func (b *Bot) callbackRevoke(ctx context.Context, cb *tgbotapi.CallbackQuery, chatID int64) {
	userID, err := strconv.ParseInt(strings.TrimPrefix(cb.Data, cbRevoke+"_"), 10, 64)
	if err != nil {
		return
	}
	if _, ok := b.service.GetUser(ctx, userID); !ok {
		b.answerCallback(cb.ID, "User not found")
		return
	}
	if !b.service.ExpireSubscription(ctx, userID) {
		b.answerCallback(cb.ID, "Revoke failed")
		return
	}
	b.log.Info("subscription revoked via callback",
		slog.Int64("user_id", userID), slog.Int64("admin_id", cb.From.ID))
	b.reply(chatID, fmt.Sprintf("✅ Subscription revoked for user <code>%d</code>.", userID))
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.sender.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.log.Error("failed to answer callback", slog.String("error", err.Error()))
	}
}

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Statistics", cbStats),
			tgbotapi.NewInlineKeyboardButtonData("✅ Active", cbActiveUsers),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👥 All users", cbUsersPage+"_1"),
			tgbotapi.NewInlineKeyboardButtonData("💰 Revenue", cbRevenue),
		),
	)
}

func statsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", cbStats),
			tgbotapi.NewInlineKeyboardButtonData("✅ Active", cbActiveUsers),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💰 Revenue report", cbRevenue),
		),
	)
}

func userActionsKeyboard(userID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Grant", fmt.Sprintf("%s_%d", cbGrant, userID)),
			tgbotapi.NewInlineKeyboardButtonData("➖ Revoke", fmt.Sprintf("%s_%d", cbRevoke, userID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", fmt.Sprintf("%s_%d", cbUserInfo, userID)),
		),
	)
}

// usersPageKeyboard строит навигацию по страницам списка пользователей.
func usersPageKeyboard(page, totalPages int) tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	if page > 1 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			"⬅️ Prev", fmt.Sprintf("%s_%d", cbUsersPage, page-1)))
	}
	if page < totalPages {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			"Next ➡️", fmt.Sprintf("%s_%d", cbUsersPage, page+1)))
	}
	if len(row) == 0 {
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📊 Statistics", cbStats)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(row...))
}
