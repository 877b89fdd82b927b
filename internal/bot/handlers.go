package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/omarshaarawi/draftboard/internal/service"
)

const refreshCallback = "refresh"

const helpText = "Available commands:\n" +
	"/leaderboard - Drafters ranked by average win percentage\n" +
	"/person <name> - A drafter's teams, records, streaks and next games\n" +
	"/standings - Records of every drafted team\n" +
	"/refresh - Fetch the latest results now\n" +
	"/issues - Drafted teams missing from the feed"

// Reporter is the subset of the draft service the bot talks to.
type Reporter interface {
	GetLeaderboard(ctx context.Context) (string, error)
	RefreshLeaderboard(ctx context.Context) (string, error)
	GetPerson(ctx context.Context, query string) (string, error)
	GetStandings(ctx context.Context) (string, error)
	GetIssues(ctx context.Context) (string, error)
}

var _ Reporter = (*service.DraftService)(nil)

type Handler struct {
	draftService Reporter
}

func NewHandler(draftService Reporter) *Handler {
	return &Handler{draftService: draftService}
}

func (h *Handler) HandleCommand(ctx context.Context, update tgbotapi.Update) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(update.Message.Chat.ID, "")
	msg.ParseMode = "Markdown"

	command := strings.ToLower(update.Message.Command())
	args := strings.TrimSpace(update.Message.CommandArguments())

	msg.Text = h.Respond(ctx, command, args)
	if command == "leaderboard" || command == "refresh" {
		msg.ReplyMarkup = refreshKeyboard()
	}
	return msg
}

// HandleCallback answers the inline Refresh button by editing the message it
// was pressed on.
func (h *Handler) HandleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) (tgbotapi.CallbackConfig, *tgbotapi.EditMessageTextConfig) {
	if query.Data != refreshCallback || query.Message == nil {
		return tgbotapi.NewCallback(query.ID, "Unknown action"), nil
	}

	text := h.Respond(ctx, "refresh", "")
	edit := tgbotapi.NewEditMessageTextAndMarkup(query.Message.Chat.ID, query.Message.MessageID, text, refreshKeyboard())
	edit.ParseMode = "Markdown"
	return tgbotapi.NewCallback(query.ID, "Refreshed"), &edit
}

func (h *Handler) Respond(ctx context.Context, command, args string) string {
	switch command {
	case "start":
		return "Welcome to the CBB draft leaderboard! Use /help to see available commands."
	case "help":
		return helpText
	case "leaderboard":
		return reply(h.draftService.GetLeaderboard(ctx))
	case "refresh":
		return reply(h.draftService.RefreshLeaderboard(ctx))
	case "person":
		if args == "" {
			return "Please provide a drafter name. Usage: /person <name>"
		}
		return reply(h.draftService.GetPerson(ctx, args))
	case "standings":
		return reply(h.draftService.GetStandings(ctx))
	case "issues":
		return reply(h.draftService.GetIssues(ctx))
	default:
		return "Unknown command. Use /help to see available commands."
	}
}

func reply(text string, err error) string {
	if err != nil {
		return fmt.Sprintf("⚠️ %v", err)
	}
	return text
}

func refreshKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", refreshCallback),
		),
	)
}
