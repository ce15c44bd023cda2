package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/magabrotheeeer/subscription-admin/internal/models"
	subservice "github.com/magabrotheeeer/subscription-admin/internal/services/subscription"
)

// GrantArgs — разобранные аргументы команды /grant.
type GrantArgs struct {
	UserID     int64
	Days       int
	PaymentRef string
}

// ParseGrantArgs разбирает аргументы /grant: обязательный идентификатор
// пользователя и необязательный второй аргумент. Числовой второй аргумент
// трактуется как срок в днях, любой другой как ссылка на платёж.
func ParseGrantArgs(args []string) (GrantArgs, error) {
	if len(args) == 0 {
		return GrantArgs{}, fmt.Errorf("user id is required")
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return GrantArgs{}, fmt.Errorf("user id must be numeric")
	}
	parsed := GrantArgs{UserID: userID}
	if len(args) > 1 {
		if days, err := strconv.Atoi(args[1]); err == nil {
			if days <= 0 {
				return GrantArgs{}, fmt.Errorf("days must be positive")
			}
			parsed.Days = days
		} else {
			parsed.PaymentRef = args[1]
		}
	}
	return parsed, nil
}

// ParseUserID разбирает единственный аргумент-идентификатор пользователя.
func ParseUserID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("user id is required")
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("user id must be numeric")
	}
	return userID, nil
}

func (b *Bot) handleStart(msg *tgbotapi.Message) {
	text := fmt.Sprintf(
		"👋 Welcome, <b>%s</b>!\n\n"+
			"This is the subscription admin panel for @%s.\n"+
			"Use the buttons below or /help for the command list.",
		msg.From.FirstName, b.admin.ServiceBotUsername)
	b.replyWithKeyboard(msg.Chat.ID, text, mainMenuKeyboard())
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) {
	text := "📖 <b>Admin commands</b>\n\n" +
		"/stats — subscription statistics\n" +
		"/grant &lt;user_id&gt; [days|payment_ref] — grant a subscription\n" +
		"/revoke &lt;user_id&gt; — revoke a subscription\n" +
		"/userinfo &lt;user_id&gt; — user details\n" +
		"/users [page] — list all users\n" +
		"/active — list active subscribers\n" +
		"/health — bot health status"
	b.reply(msg.Chat.ID, text)
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	stats := b.service.Stats(ctx)
	b.replyWithKeyboard(msg.Chat.ID, formatStats(stats), statsKeyboard())
}

func (b *Bot) handleGrant(ctx context.Context, msg *tgbotapi.Message, args []string) {
	parsed, err := ParseGrantArgs(args)
	if err != nil {
		b.reply(msg.Chat.ID, "Usage: /grant &lt;user_id&gt; [days|payment_ref]\n"+err.Error())
		return
	}

	if _, ok := b.service.GetUser(ctx, parsed.UserID); !ok {
		if !b.service.AddUser(ctx, parsed.UserID, fmt.Sprintf("user_%d", parsed.UserID), "Admin Created", "") {
			b.reply(msg.Chat.ID, "❌ Failed to create the user record. Please try again.")
			return
		}
	}

	expiresAt, ok := b.service.GrantSubscription(ctx, subservice.GrantParams{
		UserID:     parsed.UserID,
		Days:       parsed.Days,
		AdminID:    msg.From.ID,
		PaymentRef: parsed.PaymentRef,
	})
	if !ok {
		b.reply(msg.Chat.ID, "❌ Failed to grant the subscription. Please try again.")
		return
	}

	b.log.Info("subscription granted via bot",
		slog.Int64("user_id", parsed.UserID), slog.Int64("admin_id", msg.From.ID))
	b.replyWithKeyboard(msg.Chat.ID, fmt.Sprintf(
		"✅ Subscription granted to user <code>%d</code>.\nExpires: <b>%s</b>",
		parsed.UserID, expiresAt.Format("2006-01-02 15:04 MST")),
		userActionsKeyboard(parsed.UserID))
}

func (b *Bot) handleRevoke(ctx context.Context, msg *tgbotapi.Message, args []string) {
	userID, err := ParseUserID(args)
	if err != nil {
		b.reply(msg.Chat.ID, "Usage: /revoke &lt;user_id&gt;\n"+err.Error())
		return
	}

	if _, ok := b.service.GetUser(ctx, userID); !ok {
		b.reply(msg.Chat.ID, fmt.Sprintf("User <code>%d</code> not found.", userID))
		return
	}
	if !b.service.ExpireSubscription(ctx, userID) {
		b.reply(msg.Chat.ID, "❌ Failed to revoke the subscription. Please try again.")
		return
	}

	b.log.Info("subscription revoked via bot",
		slog.Int64("user_id", userID), slog.Int64("admin_id", msg.From.ID))
	b.reply(msg.Chat.ID, fmt.Sprintf("✅ Subscription revoked for user <code>%d</code>.", userID))
}

func (b *Bot) handleUserInfo(ctx context.Context, msg *tgbotapi.Message, args []string) {
	userID, err := ParseUserID(args)
	if err != nil {
		b.reply(msg.Chat.ID, "Usage: /userinfo &lt;user_id&gt;\n"+err.Error())
		return
	}

	user, ok := b.service.GetUser(ctx, userID)
	if !ok {
		b.reply(msg.Chat.ID, fmt.Sprintf("User <code>%d</code> not found.", userID))
		return
	}
	stats, _ := b.service.UserStats(ctx, userID)
	subscribed := b.service.IsSubscribed(ctx, userID)

	b.replyWithKeyboard(msg.Chat.ID, formatUserInfo(user, stats, subscribed), userActionsKeyboard(userID))
}

func (b *Bot) handleUsers(ctx context.Context, msg *tgbotapi.Message, args []string) {
	page := 1
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			page = n
		}
	}
	users := b.service.ListAllUsers(ctx)
	text, keyboard := formatUsersPage(users, page, "👥 All users")
	b.replyWithKeyboard(msg.Chat.ID, text, keyboard)
}

func (b *Bot) handleActive(ctx context.Context, msg *tgbotapi.Message) {
	users := b.service.ListActiveUsers(ctx)
	if len(users) == 0 {
		b.reply(msg.Chat.ID, "No active subscribers.")
		return
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("✅ <b>Active subscribers</b> (%d)\n\n", len(users)))
	for _, u := range users {
		sb.WriteString(formatUserLine(u))
	}
	b.reply(msg.Chat.ID, sb.String())
}

func (b *Bot) handleHealth(msg *tgbotapi.Message) {
	status := b.status()
	icon := "✅"
	label := "healthy"
	if !status.Healthy {
		icon = "❌"
		label = "unhealthy"
	}
	b.reply(msg.Chat.ID, fmt.Sprintf(
		"%s Bot is <b>%s</b>\nUptime: %s",
		icon, label, (time.Duration(status.Uptime)*time.Second).String()))
}

func formatStats(stats *models.Stats) string {
	if stats == nil {
		return "❌ Failed to load statistics. Please try again."
	}
	return fmt.Sprintf(
		"📊 <b>Subscription statistics</b>\n\n"+
			"👥 Total users: <b>%d</b>\n"+
			"✅ Active subscriptions: <b>%d</b>\n"+
			"💰 Estimated revenue: <b>%.2f PKR</b>\n"+
			"📈 Conversion rate: <b>%.2f%%</b>",
		stats.TotalUsers, stats.ActiveSubscriptions, stats.TotalRevenue, stats.ConversionRate)
}

// formatRevenueReport строит отчёт о выручке по текущему снимку статистики.
func formatRevenueReport(stats *models.Stats, days int) string {
	if stats == nil {
		return "❌ Failed to load the revenue report. Please try again."
	}
	return fmt.Sprintf(
		"💰 <b>Revenue report</b>\n\n"+
			"✅ Active subscriptions: <b>%d</b>\n"+
			"💳 Active revenue: <b>%.2f PKR</b>\n\n"+
			"📈 Price per subscription: %.2f PKR\n"+
			"📅 Subscription duration: %d days\n"+
			"👥 Total users: %d (conversion %.2f%%)\n\n"+
			"Generated: %s",
		stats.ActiveSubscriptions, stats.TotalRevenue,
		stats.SubscriptionPrice, days,
		stats.TotalUsers, stats.ConversionRate,
		time.Now().Format("02 Jan 2006 at 15:04"))
}

func formatUserInfo(user *models.User, stats *models.UserStats, subscribed bool) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👤 <b>User %d</b>\n\n", user.UserID))
	if user.Username != "" {
		sb.WriteString(fmt.Sprintf("Username: @%s\n", user.Username))
	}
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name != "" {
		sb.WriteString(fmt.Sprintf("Name: %s\n", name))
	}
	sb.WriteString(fmt.Sprintf("Status: <b>%s</b>\n", user.Status))
	if subscribed {
		sb.WriteString("Subscription: ✅ active\n")
	} else {
		sb.WriteString("Subscription: ❌ not active\n")
	}
	if stats != nil {
		if stats.SubscriptionEnd != nil {
			sb.WriteString(fmt.Sprintf("Expires: %s\n", stats.SubscriptionEnd.Format("2006-01-02 15:04 MST")))
			sb.WriteString(fmt.Sprintf("Days remaining: %d\n", stats.DaysRemaining))
		}
		sb.WriteString(fmt.Sprintf("Queries used: %d\n", stats.QueriesUsed))
		if stats.PaymentReference != "" {
			sb.WriteString(fmt.Sprintf("Last payment: %.2f (%s)\n", stats.PaymentAmount, stats.PaymentReference))
		}
	}
	return sb.String()
}

func formatUserLine(u *models.User) string {
	label := fmt.Sprintf("%d", u.UserID)
	if u.Username != "" {
		label = "@" + u.Username
	}
	line := fmt.Sprintf("• <code>%d</code> %s — %s", u.UserID, label, u.Status)
	if u.EndDate != nil {
		line += fmt.Sprintf(" (until %s)", u.EndDate.Format("2006-01-02"))
	}
	return line + "\n"
}

// formatUsersPage строит текст страницы списка и клавиатуру навигации.
func formatUsersPage(users []*models.User, page int, title string) (string, tgbotapi.InlineKeyboardMarkup) {
	totalPages := (len(users) + usersPageSize - 1) / usersPageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * usersPageSize
	end := start + usersPageSize
	if end > len(users) {
		end = len(users)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s (%d), page %d/%d\n\n", title, len(users), page, totalPages))
	if len(users) == 0 {
		sb.WriteString("No users yet.")
	}
	for _, u := range users[start:end] {
		sb.WriteString(formatUserLine(u))
	}
	return sb.String(), usersPageKeyboard(page, totalPages)
}
