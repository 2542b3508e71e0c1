package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultNextQuestionDelay = 3 * time.Second
	DefaultGenerationTimeout = 60 * time.Second
	leaderboardTopSize       = 10
	leaderboardWriteTimeout  = 5 * time.Second
)

type DispatcherConfig struct {
	NextQuestionDelay time.Duration
	GenerationTimeout time.Duration
}

// Dispatcher routes inbound events to the Engine and the Renderer. It owns the
// pacing between feedback and the next question.
type Dispatcher struct {
	engine      *Engine
	renderer    Renderer
	scheduler   Scheduler
	leaderboard LeaderboardService
	cfg         DispatcherConfig
	logger      *zap.Logger
}

func NewDispatcher(engine *Engine, renderer Renderer, scheduler Scheduler, leaderboard LeaderboardService, cfg DispatcherConfig, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.NextQuestionDelay < 0 {
		cfg.NextQuestionDelay = 0
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = DefaultGenerationTimeout
	}
	if leaderboard == nil {
		leaderboard = NewMemoryLeaderboardService()
	}
	return &Dispatcher{
		engine:      engine,
		renderer:    renderer,
		scheduler:   scheduler,
		leaderboard: leaderboard,
		cfg:         cfg,
		logger:      logger,
	}
}

func (d *Dispatcher) Menu(key SessionKey) {
	d.renderer.RenderMenu(key)
}

// Start generates a quiz and sends its first question.
func (d *Dispatcher) Start(ctx context.Context, ev StartSessionRequested) error {
	spec, err := ParseCategory(ev.Category)
	if err != nil {
		d.renderer.RenderError(ev.Key, err)
		return err
	}

	if d.engine.Generating(ev.Key) {
		d.renderer.RenderError(ev.Key, ErrGenerationInProgress)
		return ErrGenerationInProgress
	}
	d.renderer.RenderGenerating(ev.Key, spec)

	genCtx, cancel := context.WithTimeout(ctx, d.cfg.GenerationTimeout)
	defer cancel()

	turn, err := d.engine.StartSession(genCtx, ev.Key, string(spec.Category))
	if err != nil {
		d.logger.Warn("start quiz failed",
			zap.Int64("chat_id", int64(ev.Key)),
			zap.String("op", "start"),
			zap.String("category", string(spec.Category)),
			zap.Error(err))
		d.renderer.RenderError(ev.Key, err)
		return err
	}

	// whatever was pending belonged to the replaced session
	d.scheduler.Cancel(ev.Key)
	d.renderer.RenderQuestion(ev.Key, turn)
	return nil
}

// Answer applies the selected option, shows feedback on the answered message and
// schedules either the next question or the summary.
func (d *Dispatcher) Answer(ctx context.Context, ev AnswerSelected) error {
	var (
		fb  Feedback
		err error
	)
	if ev.SessionID == "" {
		fb, err = d.engine.ApplyAnswer(ev.Key, ev.Option)
	} else {
		fb, err = d.engine.ApplyAnswerAt(ev.Key, ev.SessionID, ev.QuestionIndex, ev.Option)
	}
	if err != nil {
		if errors.Is(err, ErrStaleAnswer) {
			d.logger.Debug("ignoring stale answer", zap.Int64("chat_id", int64(ev.Key)), zap.Error(err))
			return err
		}
		d.renderer.RenderError(ev.Key, err)
		return err
	}

	d.renderer.RenderFeedback(ev.Key, ev.Message, fb)

	if !fb.Finished {
		d.scheduler.Schedule(ev.Key, d.cfg.NextQuestionDelay, func() {
			d.sendNext(ev.Key, fb.SessionID)
		})
		return nil
	}

	summary := d.record(ctx, ev.Key, ev.Player, fb)
	d.scheduler.Schedule(ev.Key, d.cfg.NextQuestionDelay, func() {
		d.renderer.RenderSummary(ev.Key, summary)
		d.renderer.RenderMenu(ev.Key)
	})
	return nil
}

// Stop ends the session, if any, and goes back to the menu.
func (d *Dispatcher) Stop(_ context.Context, ev StopRequested) error {
	d.scheduler.Cancel(ev.Key)
	if d.engine.StopSession(ev.Key) {
		d.renderer.RenderStopped(ev.Key, ev.Message)
	}
	d.renderer.RenderMenu(ev.Key)
	return nil
}

func (d *Dispatcher) Leaderboard(ctx context.Context, key SessionKey) error {
	top, err := d.leaderboard.Top(ctx, leaderboardTopSize)
	if err != nil {
		d.logger.Error("load leaderboard", zap.Int64("chat_id", int64(key)), zap.Error(err))
		d.renderer.RenderError(key, err)
		return err
	}
	d.renderer.RenderLeaderboard(key, top)
	return nil
}

// sendNext runs after the feedback delay. The session may have been stopped or
// replaced in the meantime; then there is nothing to send.
func (d *Dispatcher) sendNext(key SessionKey, sessionID string) {
	turn, err := d.engine.CurrentQuestion(key)
	if err != nil {
		d.logger.Debug("skipping next question", zap.Int64("chat_id", int64(key)), zap.Error(err))
		return
	}
	if turn.SessionID != sessionID {
		return
	}
	d.renderer.RenderQuestion(key, turn)
}

func (d *Dispatcher) record(ctx context.Context, key SessionKey, player Player, fb Feedback) Summary {
	summary := Summary{
		Category: fb.Category,
		Title:    fb.Title,
		Score:    fb.Score,
		Total:    fb.Total,
	}
	if player.UserID == 0 {
		return summary
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), leaderboardWriteTimeout)
	defer cancel()

	isNewBest, err := d.leaderboard.AddEntry(ctx, player, fb.Category, fb.Score, fb.Total)
	if err != nil {
		d.logger.Error("record leaderboard entry",
			zap.Int64("chat_id", int64(key)),
			zap.Int64("user_id", player.UserID),
			zap.Error(err))
		return summary
	}
	if !isNewBest {
		return summary
	}

	summary.NewBest = true
	position, _, err := d.leaderboard.Position(ctx, player.UserID)
	if err != nil {
		d.logger.Warn("leaderboard position", zap.Int64("user_id", player.UserID), zap.Error(err))
		return summary
	}
	summary.Position = position
	return summary
}
