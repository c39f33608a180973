package statistics

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
)

var (
	ignoredUtterances = map[string]struct{}{"안녕": {}, "HOME": {}}
	nonWordPattern    = regexp.MustCompile(`[^가-힣a-zA-Z\s]`)
)

// UtteranceCount is one row of the top questions table.
type UtteranceCount struct {
	Utterance string `json:"utterance"`
	Count     int    `json:"count"`
}

// TopUtterances counts the user_utterances column of a merged CSV and returns
// the n most frequent entries. Ties keep first-seen order.
func TopUtterances(r io.Reader, n int) ([]UtteranceCount, error) {
	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := -1
	for i, name := range header {
		if strings.TrimSpace(name) == utteranceHead {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("'%s' column not found", utteranceHead)
	}

	counts := map[string]int{}
	var order []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if col >= len(record) {
			continue
		}
		key, ok := normalizeUtterance(record[col])
		if !ok {
			continue
		}
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}
	return rank(order, counts, n), nil
}

func normalizeUtterance(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	if _, skip := ignoredUtterances[trimmed]; skip {
		return "", false
	}
	// Tokens are whitespace separated and rejoined with one space, so spacing
	// and punctuation variants of one question count together.
	tokens := strings.Fields(nonWordPattern.ReplaceAllString(trimmed, " "))
	if len(tokens) == 0 {
		return "", false
	}
	return strings.Join(tokens, " "), true
}

func rank(order []string, counts map[string]int, n int) []UtteranceCount {
	out := make([]UtteranceCount, 0, len(order))
	for _, key := range order {
		out = append(out, UtteranceCount{Utterance: key, Count: counts[key]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
