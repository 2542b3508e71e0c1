package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PoluyanbIch/GoQuizBot/internal/service"
)

const (
	startQuizPrefix = "start_quiz_"
	answerPrefix    = "answer_"
	stopQuizData    = "stop_quiz"
	leaderboardData = "leaderboard"
	backToMenuData  = "back_to_menu"
)

type callbackKind int

const (
	callbackUnknown callbackKind = iota
	callbackStartQuiz
	callbackAnswer
	callbackStop
	callbackLeaderboard
	callbackMenu
)

type callback struct {
	kind      callbackKind
	category  string
	sessionID string
	question  int
	option    int
}

func startQuizData(category service.Category) string {
	return startQuizPrefix + string(category)
}

// answerData encodes an answer button: answer_<session>_<question>_<option>.
func answerData(sessionID string, question, option int) string {
	return fmt.Sprintf("%s%s_%d_%d", answerPrefix, service.ShortSessionID(sessionID), question, option)
}

func parseCallback(data string) callback {
	switch {
	case data == stopQuizData:
		return callback{kind: callbackStop}
	case data == leaderboardData:
		return callback{kind: callbackLeaderboard}
	case data == backToMenuData:
		return callback{kind: callbackMenu}
	case strings.HasPrefix(data, startQuizPrefix):
		category := strings.TrimPrefix(data, startQuizPrefix)
		if category == "" {
			return callback{}
		}
		return callback{kind: callbackStartQuiz, category: category}
	case strings.HasPrefix(data, answerPrefix):
		return parseAnswer(strings.TrimPrefix(data, answerPrefix))
	default:
		return callback{}
	}
}

func parseAnswer(rest string) callback {
	parts := strings.Split(rest, "_")
	switch len(parts) {
	case 1:
		// answer_<option>, no staleness information
		option, err := strconv.Atoi(parts[0])
		if err != nil {
			return callback{}
		}
		return callback{kind: callbackAnswer, option: option}
	case 3:
		question, err := strconv.Atoi(parts[1])
		if err != nil {
			return callback{}
		}
		option, err := strconv.Atoi(parts[2])
		if err != nil || parts[0] == "" {
			return callback{}
		}
		return callback{kind: callbackAnswer, sessionID: parts[0], question: question, option: option}
	default:
		return callback{}
	}
}
