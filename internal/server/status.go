package server

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/a-h/templ"
)

// TaskResult is the outcome of the most recent run of one task.
type TaskResult struct {
	Task     string
	Err      string
	Finished time.Time
}

// statusBoard keeps the last result per task.
type statusBoard struct {
	mu      sync.RWMutex
	results map[string]TaskResult
}

func newStatusBoard() *statusBoard {
	return &statusBoard{results: make(map[string]TaskResult)}
}

func (b *statusBoard) record(name string, err error, at time.Time) {
	r := TaskResult{Task: name, Finished: at}
	if err != nil {
		r.Err = err.Error()
	}

	b.mu.Lock()
	b.results[name] = r
	b.mu.Unlock()
}

func (b *statusBoard) snapshot() []TaskResult {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]TaskResult, 0, len(b.results))
	for _, r := range b.results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Task < out[j].Task })
	return out
}

// statusPage renders the dev server status: connected clients and the last
// result of every task the watcher ran.
func statusPage(clients int, results []TaskResult) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>assetpipe</title></head><body>")
		b.WriteString("<h1>assetpipe</h1>")
		fmt.Fprintf(&b, "<p id=\"clients\">Connected clients: %d</p>", clients)

		if len(results) == 0 {
			b.WriteString("<p id=\"results\">No tasks have run yet.</p>")
		} else {
			b.WriteString("<table id=\"results\"><tr><th>Task</th><th>Status</th><th>Finished</th></tr>")
			for _, r := range results {
				status := "ok"
				if r.Err != "" {
					status = "failed: " + r.Err
				}
				fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td></tr>",
					templ.EscapeString(r.Task),
					templ.EscapeString(status),
					r.Finished.Format(time.TimeOnly))
			}
			b.WriteString("</table>")
		}

		b.WriteString("</body></html>")
		_, err := io.WriteString(w, b.String())
		return err
	})
}
