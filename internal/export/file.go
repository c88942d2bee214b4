package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/workplay/officegame/internal/game"
)

// FileSink appends a plain-text summary of every evaluated round to one file.
type FileSink struct {
	Path string

	mu      sync.Mutex
	session string // session whose header was last written
}

func NewFileSink(path string) *FileSink {
	return &FileSink{Path: path}
}

// Record appends r to the results file. A header is written before the first
// report of every session, whichever round that is.
func (f *FileSink) Record(_ context.Context, r game.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Create directory if it doesn't exist
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	fileExists := false
	if _, err := os.Stat(f.Path); err == nil {
		fileExists = true
	}

	file, err := os.OpenFile(f.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var sb strings.Builder

	if !fileExists || r.SessionID != f.session {
		if fileExists {
			sb.WriteString("\n\n")
		}
		sb.WriteString("Office Scenario Training Results\n")
		sb.WriteString(fmt.Sprintf("Started: %s\n", r.GeneratedAt.Local().Format("2006-01-02 15:04:05")))
		sb.WriteString(strings.Repeat("=", 50) + "\n\n")

		sb.WriteString("Players:\n")
		for _, e := range r.Entries {
			sb.WriteString(fmt.Sprintf("- %s\n", e.Name))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Round %d: \"%s\"\n", r.Round, r.Scenario.Title))
	sb.WriteString(strings.Repeat("-", 40) + "\n")
	for _, e := range r.Entries {
		sb.WriteString(fmt.Sprintf("- %s: \"%s\" (+%d)\n", e.Name, e.Response, e.Award))
	}
	if r.Model != "" {
		sb.WriteString(fmt.Sprintf("\nEvaluated by: %s\n", r.Model))
	}

	if len(r.Scores) > 0 {
		sb.WriteString("\nScores after this round:\n")
		for _, s := range sortedScores(r) {
			sb.WriteString(fmt.Sprintf("- %s: %d points\n", s.name, s.points))
		}
	}
	sb.WriteString("\n")

	if r.Winner != "" {
		sb.WriteString(fmt.Sprintf("Game ended at %s, winner: %s\n", time.Now().Format("2006-01-02 15:04:05"), r.Winner))
		sb.WriteString(strings.Repeat("=", 50) + "\n")
	}

	if _, err := file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	f.session = r.SessionID
	return nil
}
