package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// CategoryOption is one eligible classification target.
type CategoryOption struct {
	Name        string
	Description string
}

// Classification is the raw fast-classifier output before any threshold
// policy is applied. Category may be empty when the model declines to pick.
type Classification struct {
	Category   string  `json:"category"`
	Sentiment  float64 `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}

const classifySystemPrompt = "You tag customer-support messages. " +
	"Reply with a single JSON object and nothing else: " +
	`{"category": "<one of the listed categories or empty string>", ` +
	`"sentiment": <number between -1.0 and 1.0>, ` +
	`"confidence": <number between 0.0 and 1.0>}`

// Classify tags a message against the given category set using the fast
// model. It is a separate, lower-latency path than Complete: the classify
// config carries a smaller model and a shorter timeout so tagging never
// competes with answer generation.
func (c *Client) Classify(ctx context.Context, cfg ChatConfig, text string, categories []CategoryOption) (Classification, error) {
	var sb strings.Builder
	for _, cat := range categories {
		sb.WriteString("- ")
		sb.WriteString(cat.Name)
		if cat.Description != "" {
			sb.WriteString(": ")
			sb.WriteString(cat.Description)
		}
		sb.WriteString("\n")
	}

	userContent := "Categories:\n" + sb.String() + "\nMessage: " + strings.TrimSpace(text)
	messages := []ChatMessage{
		{Role: "system", Content: classifySystemPrompt},
		{Role: "user", Content: userContent},
	}

	reply, err := c.Complete(ctx, cfg, messages)
	if err != nil {
		return Classification{}, err
	}

	parsed, err := parseClassification(reply)
	if err != nil {
		return Classification{}, fmt.Errorf("parse classification reply failed: %w", err)
	}
	return parsed, nil
}

// parseClassification tolerates code fences and leading prose around the
// JSON object, which small instruct models produce despite the prompt.
func parseClassification(reply string) (Classification, error) {
	reply = strings.TrimSpace(reply)
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return Classification{}, fmt.Errorf("no json object in reply")
	}

	var out Classification
	if err := json.Unmarshal([]byte(reply[start:end+1]), &out); err != nil {
		return Classification{}, err
	}
	if out.Sentiment > 1.0 {
		out.Sentiment = 1.0
	}
	if out.Sentiment < -1.0 {
		out.Sentiment = -1.0
	}
	if out.Confidence < 0 {
		out.Confidence = 0
	}
	if out.Confidence > 1.0 {
		out.Confidence = 1.0
	}
	return out, nil
}
