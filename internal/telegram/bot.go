// Package telegram connects the quiz dispatcher to the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/PoluyanbIch/GoQuizBot/internal/service"
)

// Dispatcher is the quiz side of the bot; *service.Dispatcher implements it.
type Dispatcher interface {
	Menu(key service.SessionKey)
	Start(ctx context.Context, ev service.StartSessionRequested) error
	Answer(ctx context.Context, ev service.AnswerSelected) error
	Stop(ctx context.Context, ev service.StopRequested) error
	Leaderboard(ctx context.Context, key service.SessionKey) error
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot receives updates and renders quiz output. It implements service.Renderer.
type Bot struct {
	api    *tgbotapi.BotAPI
	out    sender
	logger *zap.Logger
	debug  bool
}

func NewBot(token string, debug bool, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	b := newBot(api, logger)
	b.api = api
	b.debug = debug
	return b, nil
}

func newBot(out sender, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{out: out, logger: logger}
}

// Run polls for updates until ctx is done. Each update is handled on its own
// goroutine; the engine serializes work per chat.
func (b *Bot) Run(ctx context.Context, d Dispatcher) error {
	b.api.Debug = b.debug
	b.logger.Info("authorised on account", zap.String("username", b.api.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("bot stopped receiving updates")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.handleUpdate(ctx, d, update)
			}()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, d Dispatcher, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("update handler panicked", zap.Int("update_id", update.UpdateID), zap.Any("panic", r))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, d, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, d, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, d Dispatcher, msg *tgbotapi.Message) {
	key := service.SessionKey(msg.Chat.ID)

	if !msg.IsCommand() {
		b.sendText(key, "Use /start to see the quiz menu.")
		return
	}

	switch msg.Command() {
	case "start":
		d.Menu(key)
	case "quiz":
		b.logResult(key, "start", d.Start(ctx, service.StartSessionRequested{Key: key, Category: msg.CommandArguments()}))
	case "stop":
		b.logResult(key, "stop", d.Stop(ctx, service.StopRequested{Key: key}))
	case "leaderboard":
		b.logResult(key, "leaderboard", d.Leaderboard(ctx, key))
	default:
		b.sendText(key, "Unknown command. Use /start to see the quiz menu.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, d Dispatcher, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		b.answerCallback(cb.ID, "")
		return
	}

	key := service.SessionKey(cb.Message.Chat.ID)
	ref := service.MessageRef{MessageID: cb.Message.MessageID, Text: cb.Message.Text}
	parsed := parseCallback(cb.Data)

	if parsed.kind == callbackAnswer {
		ev := service.AnswerSelected{
			Key:           key,
			SessionID:     parsed.sessionID,
			QuestionIndex: parsed.question,
			Option:        parsed.option,
			Message:       ref,
			Player:        playerOf(cb.From),
		}
		err := d.Answer(ctx, ev)
		if errors.Is(err, service.ErrStaleAnswer) {
			b.answerCallback(cb.ID, "This question was already answered.")
			return
		}
		b.answerCallback(cb.ID, "")
		b.logResult(key, "answer", err)
		return
	}

	// generation can take longer than Telegram waits for an acknowledgement
	b.answerCallback(cb.ID, callbackToast(parsed.kind))

	switch parsed.kind {
	case callbackStartQuiz:
		b.logResult(key, "start", d.Start(ctx, service.StartSessionRequested{Key: key, Category: parsed.category}))
	case callbackStop:
		b.logResult(key, "stop", d.Stop(ctx, service.StopRequested{Key: key, Message: ref}))
	case callbackLeaderboard:
		b.logResult(key, "leaderboard", d.Leaderboard(ctx, key))
	case callbackMenu:
		d.Menu(key)
	default:
		b.sendText(key, "I'm not sure what you meant by that. Please use the commands or quiz options.")
	}
}

func callbackToast(kind callbackKind) string {
	if kind == callbackUnknown {
		return "Unknown action."
	}
	return ""
}

func playerOf(u *tgbotapi.User) service.Player {
	if u == nil {
		return service.Player{}
	}
	return service.Player{UserID: u.ID, Username: u.UserName, FirstName: u.FirstName}
}

// logResult records a failed dispatcher call. The player has already been shown the
// error by the dispatcher.
func (b *Bot) logResult(key service.SessionKey, op string, err error) {
	if err == nil {
		return
	}
	b.logger.Debug("dispatcher returned error",
		zap.Int64("chat_id", int64(key)),
		zap.String("op", op),
		zap.Error(err))
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.out.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.logger.Warn("answer callback failed", zap.String("callback_id", id), zap.Error(err))
	}
}

func (b *Bot) sendText(key service.SessionKey, text string) {
	b.send(key, "text", tgbotapi.NewMessage(int64(key), text))
}
