package telegram

import (
	"errors"
	"fmt"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"github.com/PoluyanbIch/GoQuizBot/internal/service"
)

func sampleTurn() service.Turn {
	return service.Turn{
		SessionID: "0f8fad5b-d9cb-469f-a165-70867728950e",
		Title:     "SSC CGL General Awareness Quiz",
		Index:     1,
		Total:     5,
		Question: service.QuizQuestion{
			ID:       2,
			Question: "Which is larger: 3 < 5 or 5 > 3?",
			Options:  []string{"one", "two", "three", "four"},
			Correct:  2,
		},
	}
}

func TestQuestionTextAndKeyboard(t *testing.T) {
	turn := sampleTurn()
	require.Equal(t, "<b>Q2/5:</b> Which is larger: 3 &lt; 5 or 5 &gt; 3?", questionText(turn))

	kb := questionKeyboard(turn)
	require.Len(t, kb.InlineKeyboard, 5)
	for i, row := range kb.InlineKeyboard[:4] {
		require.Len(t, row, 1)
		require.Equal(t, fmt.Sprintf("%s. %s", optionLetter(i), turn.Question.Options[i]), row[0].Text)
		require.Equal(t, fmt.Sprintf("answer_0f8fad5b_1_%d", i), *row[0].CallbackData)
	}
	require.Equal(t, stopQuizData, *kb.InlineKeyboard[4][0].CallbackData)
}

func TestMenuKeyboard(t *testing.T) {
	kb := menuKeyboard()
	require.Len(t, kb.InlineKeyboard, 4)
	require.Equal(t, "SSC CGL Quiz", kb.InlineKeyboard[0][0].Text)
	require.Equal(t, "start_quiz_cgl", *kb.InlineKeyboard[0][0].CallbackData)
	require.Equal(t, "start_quiz_cpo", *kb.InlineKeyboard[1][0].CallbackData)
	require.Equal(t, "start_quiz_chsl", *kb.InlineKeyboard[2][0].CallbackData)
	require.Equal(t, leaderboardData, *kb.InlineKeyboard[3][0].CallbackData)
}

func TestFeedbackText(t *testing.T) {
	correct := feedbackText("Q1/5: question", service.Feedback{Correct: true, Explanation: "Because."})
	require.Equal(t, "Q1/5: question\n\n<b>✅ Correct!</b>\n\nBecause.\n\n<i>Moving to next question...</i>", correct)

	wrong := feedbackText("", service.Feedback{CorrectIndex: 1, CorrectText: "B&B", Finished: true})
	require.Equal(t, "<b>❌ Incorrect. The correct answer was: B. B&amp;B</b>\n\n<i>That was the last question...</i>", wrong)
}

func TestSummaryText(t *testing.T) {
	require.Equal(t,
		"🏁 <b>Quiz finished!</b> Your score: 3 out of 5. (60%)",
		summaryText(service.Summary{Score: 3, Total: 5}))

	best := summaryText(service.Summary{Score: 5, Total: 5, NewBest: true, Position: 2})
	require.Contains(t, best, "(100%)")
	require.Contains(t, best, "You are #2 on the leaderboard.")
}

func TestLeaderboardText(t *testing.T) {
	require.Contains(t, leaderboardText(nil), "No results yet")

	text := leaderboardText([]service.LeaderboardEntry{
		{Username: "alice", Category: service.CategoryCGL, Score: 5, Total: 5, Percentage: 100, Date: "01.03.2025 10:30"},
		{FirstName: "<Bob>", Category: service.CategoryCPO, Score: 3, Total: 5, Percentage: 60, Date: "02.03.2025 11:00"},
	})
	require.Contains(t, text, "🥇 1. @alice - 100% (5/5) CGL")
	require.Contains(t, text, "🥈 2. &lt;Bob&gt; - 60% (3/5) CPO")
}

func TestErrorText(t *testing.T) {
	require.Equal(t,
		"Invalid quiz type. Please use /quiz cgl, /quiz cpo, or /quiz chsl.",
		errorText(fmt.Errorf("%w: %q", service.ErrInvalidCategory, "upsc")))
	require.Equal(t, "This quiz has already ended.", errorText(service.ErrQuizAlreadyEnded))
	require.Contains(t, errorText(service.ErrNoActiveSession), "No active quiz for you!")
	require.Contains(t, errorText(service.ErrMalformedResponse), "couldn't generate")
	require.Contains(t, errorText(errors.New("other")), "Something went wrong")
}

func TestRenderFeedbackEditsAnsweredMessage(t *testing.T) {
	out := &fakeSender{}
	b := newBot(out, nil)

	b.RenderFeedback(42, service.MessageRef{MessageID: 9, Text: "Q1/5: q"}, service.Feedback{Correct: true})
	edit, ok := out.last().(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	require.Equal(t, int64(42), edit.ChatID)
	require.Equal(t, 9, edit.MessageID)
	require.Equal(t, tgbotapi.ModeHTML, edit.ParseMode)
	require.Nil(t, edit.ReplyMarkup)

	b.RenderFeedback(42, service.MessageRef{}, service.Feedback{Correct: true})
	_, ok = out.last().(tgbotapi.MessageConfig)
	require.True(t, ok)
}

func TestRenderQuestionAndMenu(t *testing.T) {
	out := &fakeSender{}
	b := newBot(out, nil)

	b.RenderQuestion(7, sampleTurn())
	msg := out.last().(tgbotapi.MessageConfig)
	require.Equal(t, int64(7), msg.ChatID)
	require.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	require.IsType(t, tgbotapi.InlineKeyboardMarkup{}, msg.ReplyMarkup)

	b.RenderMenu(7)
	msg = out.last().(tgbotapi.MessageConfig)
	require.Equal(t, menuText, msg.Text)

	b.RenderGenerating(7, service.Categories()[2])
	msg = out.last().(tgbotapi.MessageConfig)
	require.Equal(t, "Generating a CHSL quiz for you... This might take a moment.", msg.Text)
}

func TestSendFailureIsSwallowed(t *testing.T) {
	out := &fakeSender{sendErr: errors.New("forbidden: bot was blocked by the user")}
	b := newBot(out, nil)

	b.RenderStopped(7, service.MessageRef{MessageID: 3})
	require.Len(t, out.sent(), 1)
}
