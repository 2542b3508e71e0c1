package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine is the quiz session state machine. It is the only thing that mutates the
// session store. Every operation on a key runs under that key's lock; the question
// provider is called without any lock held.
type Engine struct {
	provider QuestionProvider
	store    *SessionStore
	locks    *keyLocks
	logger   *zap.Logger

	count   int
	shuffle bool
	rng     *rand.Rand
	rngMu   sync.Mutex
	newID   func() string
	now     func() time.Time

	startMu  sync.Mutex
	starting map[SessionKey]struct{}
}

type EngineOption func(*Engine)

// WithQuestionCount sets how many questions each quiz asks for.
func WithQuestionCount(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.count = n
		}
	}
}

// WithOptionShuffle permutes the options of every generated question using r.
func WithOptionShuffle(r *rand.Rand) EngineOption {
	return func(e *Engine) {
		e.shuffle = true
		e.rng = r
	}
}

func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithStore(store *SessionStore) EngineOption {
	return func(e *Engine) {
		if store != nil {
			e.store = store
		}
	}
}

func NewEngine(provider QuestionProvider, opts ...EngineOption) *Engine {
	e := &Engine{
		provider: provider,
		store:    NewSessionStore(),
		locks:    newKeyLocks(),
		logger:   zap.NewNop(),
		count:    DefaultQuestionCount,
		newID:    uuid.NewString,
		now:      time.Now,
		starting: make(map[SessionKey]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.shuffle && e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e
}

// QuestionCount is the number of questions requested per quiz.
func (e *Engine) QuestionCount() int {
	return e.count
}

// ActiveSessions counts sessions currently awaiting an answer.
func (e *Engine) ActiveSessions() int {
	return e.store.Len()
}

// StartSession generates a new quiz for the key and replaces any existing session.
// On failure the previous session, if any, is left as it was.
func (e *Engine) StartSession(ctx context.Context, key SessionKey, category string) (Turn, error) {
	spec, err := ParseCategory(category)
	if err != nil {
		return Turn{}, err
	}

	if !e.claimStart(key) {
		return Turn{}, ErrGenerationInProgress
	}
	defer e.releaseStart(key)

	questions, err := e.provider.Generate(ctx, spec, e.count)
	if err != nil {
		e.logger.Warn("question generation failed",
			zap.Int64("chat_id", int64(key)),
			zap.String("category", string(spec.Category)),
			zap.Error(err))
		if !errors.Is(err, ErrGenerationFailed) && !errors.Is(err, ErrMalformedResponse) {
			err = fmt.Errorf("%w: %w", ErrGenerationFailed, err)
		}
		return Turn{}, err
	}

	questions, err = ValidateQuestions(questions, e.count)
	if err != nil {
		e.logger.Warn("rejected provider response",
			zap.Int64("chat_id", int64(key)),
			zap.String("category", string(spec.Category)),
			zap.Error(err))
		return Turn{}, err
	}

	if e.shuffle {
		e.rngMu.Lock()
		questions = ShuffleOptions(questions, e.rng)
		e.rngMu.Unlock()
	}

	session := &QuizSession{
		ID:  e.newID(),
		Key: key,
		Quiz: Quiz{
			Category:  spec.Category,
			Title:     spec.Title,
			Questions: questions,
		},
		StartedAt: e.now(),
	}

	unlock := e.locks.Lock(key)
	defer unlock()

	e.store.Put(key, session)
	e.logger.Info("quiz session started",
		zap.Int64("chat_id", int64(key)),
		zap.String("session_id", session.ID),
		zap.String("category", string(spec.Category)),
		zap.Int("questions", len(questions)))

	return turnOf(session), nil
}

// CurrentQuestion returns the question the session is waiting on.
func (e *Engine) CurrentQuestion(key SessionKey) (Turn, error) {
	unlock := e.locks.Lock(key)
	defer unlock()

	session, err := e.liveSession(key, "current_question")
	if err != nil {
		return Turn{}, err
	}
	return turnOf(session), nil
}

// ApplyAnswer scores the selected option against the current question and advances
// the session by exactly one question. An option outside the valid range is simply
// wrong. The session is removed once its last question has been answered.
func (e *Engine) ApplyAnswer(key SessionKey, option int) (Feedback, error) {
	unlock := e.locks.Lock(key)
	defer unlock()

	session, err := e.liveSession(key, "apply_answer")
	if err != nil {
		return Feedback{}, err
	}
	return e.advance(key, session, option), nil
}

// ApplyAnswerAt is ApplyAnswer guarded against answers given on an outdated message:
// sessionID (full or short form) and questionIndex must match the live session.
func (e *Engine) ApplyAnswerAt(key SessionKey, sessionID string, questionIndex, option int) (Feedback, error) {
	unlock := e.locks.Lock(key)
	defer unlock()

	session, err := e.liveSession(key, "apply_answer")
	if err != nil {
		return Feedback{}, err
	}
	if sessionID != session.ID && sessionID != session.ShortID() {
		return Feedback{}, fmt.Errorf("%w: session %s is not current", ErrStaleAnswer, sessionID)
	}
	if questionIndex != session.CurrentQuestion {
		return Feedback{}, fmt.Errorf("%w: question %d answered, waiting on %d",
			ErrStaleAnswer, questionIndex, session.CurrentQuestion)
	}
	return e.advance(key, session, option), nil
}

// StopSession drops the session for the key. Stopping a key without a session is
// not an error; the result tells whether one existed.
func (e *Engine) StopSession(key SessionKey) bool {
	unlock := e.locks.Lock(key)
	defer unlock()

	existed := e.store.Delete(key)
	if existed {
		e.logger.Info("quiz session stopped", zap.Int64("chat_id", int64(key)))
	}
	return existed
}

func (e *Engine) liveSession(key SessionKey, op string) (*QuizSession, error) {
	session, ok := e.store.Get(key)
	if !ok {
		if e.store.Ended(key) {
			return nil, ErrQuizAlreadyEnded
		}
		return nil, ErrNoActiveSession
	}
	if session.IsExhausted() {
		e.logger.Error("exhausted session found in store",
			zap.Int64("chat_id", int64(key)),
			zap.String("session_id", session.ID),
			zap.String("op", op))
		e.store.MarkEnded(key)
		return nil, ErrQuizAlreadyEnded
	}
	return session, nil
}

// advance must be called with the key lock held on a live session.
func (e *Engine) advance(key SessionKey, session *QuizSession, option int) Feedback {
	idx := session.CurrentQuestion
	question := session.Quiz.Questions[idx]

	correct := option == question.Correct
	if correct {
		session.Score++
	}

	var correctText string
	if question.Correct >= 0 && question.Correct < len(question.Options) {
		correctText = question.Options[question.Correct]
	}

	session.CurrentQuestion++
	finished := session.IsExhausted()
	if finished {
		e.store.MarkEnded(key)
		e.logger.Info("quiz session finished",
			zap.Int64("chat_id", int64(key)),
			zap.String("session_id", session.ID),
			zap.Int("score", session.Score),
			zap.Int("total", len(session.Quiz.Questions)))
	}

	return Feedback{
		SessionID:     session.ID,
		Category:      session.Quiz.Category,
		Title:         session.Quiz.Title,
		QuestionIndex: idx,
		Selected:      option,
		Correct:       correct,
		CorrectIndex:  question.Correct,
		CorrectText:   correctText,
		Explanation:   question.Explanation,
		Score:         session.Score,
		Total:         len(session.Quiz.Questions),
		Finished:      finished,
	}
}

// Generating reports whether a StartSession for the key is waiting on the provider.
func (e *Engine) Generating(key SessionKey) bool {
	e.startMu.Lock()
	defer e.startMu.Unlock()

	_, busy := e.starting[key]
	return busy
}

func (e *Engine) claimStart(key SessionKey) bool {
	e.startMu.Lock()
	defer e.startMu.Unlock()

	if _, busy := e.starting[key]; busy {
		return false
	}
	e.starting[key] = struct{}{}
	return true
}

func (e *Engine) releaseStart(key SessionKey) {
	e.startMu.Lock()
	defer e.startMu.Unlock()

	delete(e.starting, key)
}

func turnOf(session *QuizSession) Turn {
	return Turn{
		SessionID: session.ID,
		Title:     session.Quiz.Title,
		Index:     session.CurrentQuestion,
		Total:     len(session.Quiz.Questions),
		Question:  session.Quiz.Questions[session.CurrentQuestion],
	}
}
