package telegram

import (
	"errors"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/PoluyanbIch/GoQuizBot/internal/service"
)

const menuText = "Welcome to the SSC Quiz Bot! Choose a quiz type:"

func optionLetter(i int) string {
	if i < 0 || i >= 26 {
		return "?"
	}
	return string(rune('A' + i))
}

func quizCommandsHint() string {
	cmds := lo.Map(service.Categories(), func(spec service.CategorySpec, _ int) string {
		return "/quiz " + string(spec.Category)
	})
	if len(cmds) < 2 {
		return strings.Join(cmds, "")
	}
	return strings.Join(cmds[:len(cmds)-1], ", ") + ", or " + cmds[len(cmds)-1]
}

// errorText maps dispatcher errors to what the player sees.
func errorText(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidCategory):
		return fmt.Sprintf("Invalid quiz type. Please use %s.", quizCommandsHint())
	case errors.Is(err, service.ErrGenerationInProgress):
		return "Your quiz is still being generated. Please wait a moment."
	case errors.Is(err, service.ErrMalformedResponse), errors.Is(err, service.ErrGenerationFailed):
		return "Sorry, I couldn't generate the quiz right now. Please try again later."
	case errors.Is(err, service.ErrNoActiveSession):
		return fmt.Sprintf("No active quiz for you! Please start one with %s.", quizCommandsHint())
	case errors.Is(err, service.ErrQuizAlreadyEnded):
		return "This quiz has already ended."
	default:
		return "Something went wrong. Please try again later."
	}
}

func menuKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := lo.Map(service.Categories(), func(spec service.CategorySpec, _ int) []tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("SSC %s Quiz", spec.Category.Label()), startQuizData(spec.Category)),
		)
	})
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🏆 Leaderboard", leaderboardData),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func questionKeyboard(turn service.Turn) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, option := range turn.Question.Options {
		text := fmt.Sprintf("%s. %s", optionLetter(i), option)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(text, answerData(turn.SessionID, turn.Index, i)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⏹️ Stop Quiz", stopQuizData),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func questionText(turn service.Turn) string {
	return fmt.Sprintf("<b>Q%d/%d:</b> %s", turn.Ordinal(), turn.Total, html.EscapeString(turn.Question.Question))
}

func feedbackText(original string, fb service.Feedback) string {
	var sb strings.Builder
	if original != "" {
		sb.WriteString(html.EscapeString(original))
		sb.WriteString("\n\n")
	}

	if fb.Correct {
		sb.WriteString("<b>✅ Correct!</b>")
	} else {
		fmt.Fprintf(&sb, "<b>❌ Incorrect. The correct answer was: %s. %s</b>",
			optionLetter(fb.CorrectIndex), html.EscapeString(fb.CorrectText))
	}
	if fb.Explanation != "" {
		sb.WriteString("\n\n")
		sb.WriteString(html.EscapeString(fb.Explanation))
	}

	if fb.Finished {
		sb.WriteString("\n\n<i>That was the last question...</i>")
	} else {
		sb.WriteString("\n\n<i>Moving to next question...</i>")
	}
	return sb.String()
}

func summaryText(s service.Summary) string {
	text := fmt.Sprintf("🏁 <b>Quiz finished!</b> Your score: %d out of %d. (%d%%)", s.Score, s.Total, s.Percentage())
	if s.NewBest && s.Position > 0 {
		text += fmt.Sprintf("\n\n🎉 <b>New personal best!</b> You are #%d on the leaderboard.", s.Position)
	}
	return text
}

func leaderboardText(entries []service.LeaderboardEntry) string {
	if len(entries) == 0 {
		return "🏆 <b>Leaderboard</b>\n\nNo results yet. Be the first! 🎯"
	}

	var sb strings.Builder
	sb.WriteString("🏆 <b>Top players</b>\n\n")
	for i, entry := range entries {
		name := entry.FirstName
		if entry.Username != "" {
			name = "@" + entry.Username
		}

		medal := "🔸"
		switch i {
		case 0:
			medal = "🥇"
		case 1:
			medal = "🥈"
		case 2:
			medal = "🥉"
		}

		fmt.Fprintf(&sb, "%s %d. %s - %d%% (%d/%d) %s\n   📅 %s\n\n",
			medal, i+1, html.EscapeString(name), entry.Percentage, entry.Score, entry.Total,
			entry.Category.Label(), entry.Date)
	}
	return sb.String()
}

func (b *Bot) RenderMenu(key service.SessionKey) {
	msg := tgbotapi.NewMessage(int64(key), menuText)
	msg.ReplyMarkup = menuKeyboard()
	b.send(key, "menu", msg)
}

func (b *Bot) RenderGenerating(key service.SessionKey, spec service.CategorySpec) {
	text := fmt.Sprintf("Generating a %s quiz for you... This might take a moment.", spec.Category.Label())
	b.send(key, "generating", tgbotapi.NewMessage(int64(key), text))
}

func (b *Bot) RenderQuestion(key service.SessionKey, turn service.Turn) {
	msg := tgbotapi.NewMessage(int64(key), questionText(turn))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = questionKeyboard(turn)
	b.send(key, "question", msg)
}

// RenderFeedback rewrites the answered question message, which also drops its buttons.
func (b *Bot) RenderFeedback(key service.SessionKey, ref service.MessageRef, fb service.Feedback) {
	text := feedbackText(ref.Text, fb)
	if ref.MessageID == 0 {
		msg := tgbotapi.NewMessage(int64(key), text)
		msg.ParseMode = tgbotapi.ModeHTML
		b.send(key, "feedback", msg)
		return
	}

	edit := tgbotapi.NewEditMessageText(int64(key), ref.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	b.send(key, "feedback", edit)
}

func (b *Bot) RenderSummary(key service.SessionKey, summary service.Summary) {
	msg := tgbotapi.NewMessage(int64(key), summaryText(summary))
	msg.ParseMode = tgbotapi.ModeHTML
	b.send(key, "summary", msg)
}

func (b *Bot) RenderStopped(key service.SessionKey, ref service.MessageRef) {
	const text = "Quiz stopped. Returning to main menu."
	if ref.MessageID == 0 {
		b.send(key, "stopped", tgbotapi.NewMessage(int64(key), text))
		return
	}
	b.send(key, "stopped", tgbotapi.NewEditMessageText(int64(key), ref.MessageID, text))
}

func (b *Bot) RenderLeaderboard(key service.SessionKey, entries []service.LeaderboardEntry) {
	msg := tgbotapi.NewMessage(int64(key), leaderboardText(entries))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Main menu", backToMenuData),
		),
	)
	b.send(key, "leaderboard", msg)
}

func (b *Bot) RenderError(key service.SessionKey, err error) {
	b.send(key, "error", tgbotapi.NewMessage(int64(key), errorText(err)))
}

// send delivers c and logs failures; delivery errors never reach the caller.
func (b *Bot) send(key service.SessionKey, op string, c tgbotapi.Chattable) {
	if _, err := b.out.Send(c); err != nil {
		b.logger.Error("telegram send failed",
			zap.Int64("chat_id", int64(key)),
			zap.String("op", op),
			zap.Error(err))
	}
}
