package history

import "supportpilot/internal/model"

// A turn is one customer message plus the agent reply that follows it.
// Trim keeps at most maxTurns turns and at most charBudget total
// characters, evicting oldest first. The newest message always
// survives, even when it alone exceeds the budget, so the generator is
// never handed an empty window for an active conversation.
func Trim(messages []model.Message, maxTurns, charBudget int) []model.Message {
	if len(messages) == 0 {
		return messages
	}

	if maxTurns > 0 {
		turns := 0
		start := len(messages)
		for i := len(messages) - 1; i >= 0; i-- {
			if messages[i].Role == model.RoleCustomer {
				turns++
				if turns > maxTurns {
					break
				}
			}
			start = i
		}
		messages = messages[start:]
	}

	if charBudget > 0 {
		total := 0
		for _, m := range messages {
			total += len([]rune(m.Content))
		}
		for total > charBudget && len(messages) > 1 {
			total -= len([]rune(messages[0].Content))
			messages = messages[1:]
		}
	}
	return messages
}
