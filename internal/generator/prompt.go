package generator

import (
	"fmt"

	"github.com/PoluyanbIch/GoQuizBot/internal/service"
)

// BuildPrompt renders the generation request for a category.
func BuildPrompt(spec service.CategorySpec, count int) string {
	return fmt.Sprintf(
		"Generate %d multiple-choice quiz questions for the %s exam focusing on %s. "+
			"Each question should have exactly %d options, and one correct answer. "+
			"Provide the output in a JSON array format, where each object has 'id', 'question', "+
			"'options' (an array of strings), 'correct_answer_index' (0-indexed integer), "+
			"and 'explanation' fields. %s",
		count, spec.Category.Label(), spec.Topic, service.OptionCount, spec.Instructions)
}
