// Package insight summarizes service logs and asks the inference engine for
// an analyst report on recurring errors.
package insight

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
)

// RecentErrors is the number of most recent errors kept in a summary.
const RecentErrors = 5

var (
	invoiceIDPattern = regexp.MustCompile(`INV-\d+`)
	// "2024-01-02 10:11:12,345 - ERROR - message"
	textLinePattern = regexp.MustCompile(`(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(?:,\d+)?) - (\w+) - (.*)`)
)

// Entry is a single parsed log line.
type Entry struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Summary aggregates a log stream.
type Summary struct {
	Lines      int            `json:"lines"`
	Parsed     int            `json:"parsed"`
	Levels     map[string]int `json:"levels"`
	Errors     int            `json:"errors"`
	Recent     []Entry        `json:"recent"`
	InvoiceIDs []string       `json:"invoiceIds"`
}

// Scan reads log lines written by the JSON slog handler. Plain
// "date - LEVEL - message" lines are accepted too; anything else is counted
// but ignored.
func Scan(r io.Reader) (*Summary, error) {
	summary := &Summary{Levels: map[string]int{}}
	seen := map[string]bool{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		summary.Lines++
		entry, ok := parseLine(line)
		if !ok {
			continue
		}
		summary.Parsed++
		summary.Levels[entry.Level]++
		if entry.Level != "ERROR" {
			continue
		}
		summary.Errors++
		summary.Recent = append(summary.Recent, entry)
		if len(summary.Recent) > RecentErrors {
			summary.Recent = summary.Recent[1:]
		}
		for _, id := range invoiceIDPattern.FindAllString(line, -1) {
			if !seen[id] {
				seen[id] = true
				summary.InvoiceIDs = append(summary.InvoiceIDs, id)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan log: %w", err)
	}
	return summary, nil
}

func parseLine(line string) (Entry, bool) {
	if strings.HasPrefix(line, "{") {
		var record map[string]any
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return Entry{}, false
		}
		level, _ := record["level"].(string)
		if level == "" {
			return Entry{}, false
		}
		entry := Entry{Level: strings.ToUpper(level)}
		entry.Time, _ = record["time"].(string)
		entry.Message, _ = record["msg"].(string)
		if errText, ok := record["error"].(string); ok && errText != "" {
			entry.Message += ": " + errText
		}
		return entry, true
	}
	m := textLinePattern.FindStringSubmatch(line)
	if m == nil {
		return Entry{}, false
	}
	return Entry{Time: m[1], Level: strings.ToUpper(m[2]), Message: m[3]}, true
}

// Report renders the summary as plain text for people and prompts.
func (s *Summary) Report() string {
	if s.Errors == 0 {
		return "No errors found in the log."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Total errors: %d of %d log entries.\n", s.Errors, s.Parsed)
	levels := make([]string, 0, len(s.Levels))
	for level := range s.Levels {
		levels = append(levels, level)
	}
	sort.Strings(levels)
	b.WriteString("Entries per level:")
	for _, level := range levels {
		fmt.Fprintf(&b, " %s=%d", level, s.Levels[level])
	}
	b.WriteString("\nMost recent errors:\n")
	for _, e := range s.Recent {
		fmt.Fprintf(&b, "- %s: %s\n", e.Time, e.Message)
	}
	if len(s.InvoiceIDs) > 0 {
		fmt.Fprintf(&b, "Invoices involved: %s\n", strings.Join(s.InvoiceIDs, ", "))
	}
	return b.String()
}
