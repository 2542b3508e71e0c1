package service

import "time"

// Inbound events produced by the transport.

type StartSessionRequested struct {
	Key      SessionKey
	Category string
}

type AnswerSelected struct {
	Key           SessionKey
	SessionID     string
	QuestionIndex int
	Option        int
	Message       MessageRef
	Player        Player
}

type StopRequested struct {
	Key     SessionKey
	Message MessageRef
}

// Renderer turns state machine output into user visible messages. Calls are fire and
// forget: delivery failures are the renderer's to log.
type Renderer interface {
	RenderMenu(key SessionKey)
	RenderGenerating(key SessionKey, spec CategorySpec)
	RenderQuestion(key SessionKey, turn Turn)
	RenderFeedback(key SessionKey, ref MessageRef, feedback Feedback)
	RenderSummary(key SessionKey, summary Summary)
	RenderStopped(key SessionKey, ref MessageRef)
	RenderLeaderboard(key SessionKey, entries []LeaderboardEntry)
	RenderError(key SessionKey, err error)
}

// Scheduler runs deferred work per key. Scheduling replaces the pending task for
// that key.
type Scheduler interface {
	Schedule(key SessionKey, delay time.Duration, fn func())
	Cancel(key SessionKey)
}
