package service

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type fakeProvider struct {
	mu        sync.Mutex
	questions []QuizQuestion
	err       error
	calls     int
	gate      chan struct{}
	entered   chan struct{}
}

func (f *fakeProvider) Generate(ctx context.Context, _ CategorySpec, _ int) ([]QuizQuestion, error) {
	f.mu.Lock()
	f.calls++
	questions := append([]QuizQuestion(nil), f.questions...)
	err := f.err
	gate, entered := f.gate, f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return questions, err
}

func (f *fakeProvider) set(questions []QuizQuestion, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.questions = questions
	f.err = err
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// sampleQuestions builds n valid questions whose correct option is i%4.
func sampleQuestions(prefix string, n int) []QuizQuestion {
	out := make([]QuizQuestion, n)
	for i := range out {
		out[i] = QuizQuestion{
			ID:          i + 1,
			Question:    fmt.Sprintf("%s question %d", prefix, i+1),
			Options:     []string{"alpha", "beta", "gamma", "delta"},
			Correct:     i % OptionCount,
			Explanation: fmt.Sprintf("%s explanation %d", prefix, i+1),
		}
	}
	return out
}

type renderCall struct {
	kind     string
	key      SessionKey
	turn     Turn
	ref      MessageRef
	feedback Feedback
	summary  Summary
	entries  []LeaderboardEntry
	spec     CategorySpec
	err      error
}

type fakeRenderer struct {
	mu    sync.Mutex
	calls []renderCall
}

func (r *fakeRenderer) add(c renderCall) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

func (r *fakeRenderer) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.kind
	}
	return out
}

func (r *fakeRenderer) last() renderCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return renderCall{}
	}
	return r.calls[len(r.calls)-1]
}

func (r *fakeRenderer) find(kind string) (renderCall, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.calls) - 1; i >= 0; i-- {
		if r.calls[i].kind == kind {
			return r.calls[i], true
		}
	}
	return renderCall{}, false
}

func (r *fakeRenderer) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *fakeRenderer) RenderMenu(key SessionKey) {
	r.add(renderCall{kind: "menu", key: key})
}

func (r *fakeRenderer) RenderGenerating(key SessionKey, spec CategorySpec) {
	r.add(renderCall{kind: "generating", key: key, spec: spec})
}

func (r *fakeRenderer) RenderQuestion(key SessionKey, turn Turn) {
	r.add(renderCall{kind: "question", key: key, turn: turn})
}

func (r *fakeRenderer) RenderFeedback(key SessionKey, ref MessageRef, fb Feedback) {
	r.add(renderCall{kind: "feedback", key: key, ref: ref, feedback: fb})
}

func (r *fakeRenderer) RenderSummary(key SessionKey, summary Summary) {
	r.add(renderCall{kind: "summary", key: key, summary: summary})
}

func (r *fakeRenderer) RenderStopped(key SessionKey, ref MessageRef) {
	r.add(renderCall{kind: "stopped", key: key, ref: ref})
}

func (r *fakeRenderer) RenderLeaderboard(key SessionKey, entries []LeaderboardEntry) {
	r.add(renderCall{kind: "leaderboard", key: key, entries: entries})
}

func (r *fakeRenderer) RenderError(key SessionKey, err error) {
	r.add(renderCall{kind: "error", key: key, err: err})
}

// manualScheduler holds deferred tasks until the test runs them.
type manualScheduler struct {
	mu    sync.Mutex
	tasks map[SessionKey]func()
	delay time.Duration
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{tasks: make(map[SessionKey]func())}
}

func (s *manualScheduler) Schedule(key SessionKey, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[key] = fn
	s.delay = delay
}

func (s *manualScheduler) Cancel(key SessionKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, key)
}

func (s *manualScheduler) pending(key SessionKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[key]
	return ok
}

// fire runs and removes the pending task for key; it reports whether there was one.
func (s *manualScheduler) fire(key SessionKey) bool {
	s.mu.Lock()
	fn, ok := s.tasks[key]
	delete(s.tasks, key)
	s.mu.Unlock()

	if ok {
		fn()
	}
	return ok
}
