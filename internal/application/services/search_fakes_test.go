package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
)

type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float64
	err     error
	seen    []string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, text)
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.vectors[text]
	if !ok {
		return nil, errors.New("no vector for " + text)
	}
	return v, nil
}

// keywordLLM scores each candidate line 0.9 when its text contains keyword
// and 0.2 otherwise, wrapping the JSON in chatter to exercise extraction.
type keywordLLM struct {
	keyword string
	calls   atomic.Int32
	failOn  string // candidate id whose batch fails in transport
}

func (l *keywordLLM) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	l.calls.Add(1)

	type entry struct {
		ID    string  `json:"id"`
		Score float64 `json:"score"`
	}
	var results []entry
	for _, line := range candidateLines(userPrompt) {
		id, text, _ := strings.Cut(line, "|")
		if l.failOn != "" && id == l.failOn {
			return "", errors.New("upstream timeout")
		}
		score := 0.2
		if strings.Contains(strings.ToLower(text), l.keyword) {
			score = 0.9
		}
		results = append(results, entry{ID: id, Score: score})
	}

	body, err := json.Marshal(map[string]any{"results": results})
	if err != nil {
		return "", err
	}
	return "Sure! Here are the scores:\n" + string(body) + "\nLet me know if you need more.", nil
}

type cannedLLM struct {
	response string
	err      error
	prompts  []string
	mu       sync.Mutex
}

func (l *cannedLLM) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	l.mu.Lock()
	l.prompts = append(l.prompts, userPrompt)
	l.mu.Unlock()
	return l.response, l.err
}

func candidateLines(prompt string) []string {
	_, list, found := strings.Cut(prompt, "Candidates (id|text):\n")
	if !found {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(list, "\n") {
		if strings.Contains(line, "|") {
			lines = append(lines, line)
		}
	}
	return lines
}
