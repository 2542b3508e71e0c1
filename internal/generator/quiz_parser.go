package generator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/PoluyanbIch/GoQuizBot/internal/service"
)

// ParseQuizQuestions decodes model output into questions. It accepts a bare JSON
// array or an object with a "questions" array, optionally wrapped in a Markdown code
// fence. Range checks are left to service.ValidateQuestions.
func ParseQuizQuestions(raw string) ([]service.QuizQuestion, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty response", service.ErrMalformedResponse)
	}
	if !gjson.Valid(body) {
		return nil, fmt.Errorf("%w: response is not valid JSON", service.ErrMalformedResponse)
	}

	root := gjson.Parse(body)
	list := root
	if root.IsObject() {
		list = questionArray(root)
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: no question array in response", service.ErrMalformedResponse)
	}

	items := list.Array()
	questions := make([]service.QuizQuestion, 0, len(items))
	for i, item := range items {
		q, err := parseQuestion(item)
		if err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", service.ErrMalformedResponse, i+1, err)
		}
		if q.ID == 0 {
			q.ID = i + 1
		}
		questions = append(questions, q)
	}

	return questions, nil
}

// questionArray finds the question list inside a wrapping object: "questions" first,
// otherwise the first array valued field.
func questionArray(obj gjson.Result) gjson.Result {
	if q := obj.Get("questions"); q.IsArray() {
		return q
	}
	var found gjson.Result
	obj.ForEach(func(_, value gjson.Result) bool {
		if value.IsArray() {
			found = value
			return false
		}
		return true
	})
	return found
}

func parseQuestion(item gjson.Result) (service.QuizQuestion, error) {
	if !item.IsObject() {
		return service.QuizQuestion{}, fmt.Errorf("not an object")
	}

	text := strings.TrimSpace(item.Get("question").String())
	if text == "" {
		return service.QuizQuestion{}, fmt.Errorf("missing question text")
	}

	opts := item.Get("options")
	if !opts.IsArray() {
		return service.QuizQuestion{}, fmt.Errorf("options is not an array")
	}
	var options []string
	for _, o := range opts.Array() {
		options = append(options, strings.TrimSpace(o.String()))
	}

	correct, err := parseIndex(item)
	if err != nil {
		return service.QuizQuestion{}, err
	}

	return service.QuizQuestion{
		ID:          int(item.Get("id").Int()),
		Question:    text,
		Options:     options,
		Correct:     correct,
		Explanation: strings.TrimSpace(item.Get("explanation").String()),
	}, nil
}

func parseIndex(item gjson.Result) (int, error) {
	idx := item.Get("correct_answer_index")
	if !idx.Exists() {
		idx = item.Get("correctAnswerIndex")
	}

	switch idx.Type {
	case gjson.Number:
		if idx.Num != math.Trunc(idx.Num) {
			return 0, fmt.Errorf("correct_answer_index %s is not a whole number", idx.Raw)
		}
		return int(idx.Num), nil
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(idx.Str))
		if err != nil {
			return 0, fmt.Errorf("correct_answer_index %q is not a number", idx.Str)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("missing correct_answer_index")
	}
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
