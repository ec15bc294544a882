package web

// views.go renders the HTML pages as templ components.

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/csvclean/internal/core"
	"github.com/JonMunkholm/csvclean/internal/history"
	"github.com/JonMunkholm/csvclean/internal/logging"
	"github.com/JonMunkholm/csvclean/internal/schema"
)

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2933}
table{border-collapse:collapse;margin:1rem 0}td,th{border:1px solid #cbd2d9;padding:.3rem .6rem;text-align:left}
.ok{color:#1b7a3a}.skipped{color:#8a6d00}.failed{color:#b42318}.muted{color:#7b8794}`

// render writes an HTML component with a 200 status.
func (s *Server) render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
	}
}

// esc is templ.EscapeString, shortened for the page builders.
func esc(s string) string { return templ.EscapeString(s) }

func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, "<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>%s</title><style>%s</style></head><body><h1>%s</h1>",
			esc(title), pageStyle, esc(title)); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `<p class="muted"><a href="/">csvclean</a></p></body></html>`)
		return err
	})
}

func errorPage(msg core.UserMessage) templ.Component {
	return layout("Error", templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<p class="failed">%s</p><p>%s</p><p class="muted">Code: %s</p>`,
			esc(msg.Message), esc(msg.Action), esc(msg.Code))
		return err
	}))
}

func dashboardPage(datasets []*schema.Schema, runs []history.Run) templ.Component {
	return layout("csvclean", templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b pageBuilder
		b.printf("<h2>Datasets</h2><table><tr><th>Name</th><th>Columns</th><th>Source</th></tr>")
		for _, s := range datasets {
			cols := len(s.Validation.Columns)
			b.printf("<tr><td>%s</td><td>%d</td><td class=\"muted\">%s</td></tr>", esc(s.Name), cols, esc(s.Source))
		}
		b.printf("</table><h2>Recent runs</h2>")
		if len(runs) == 0 {
			b.printf(`<p class="muted">No runs recorded.</p>`)
			return b.flush(w)
		}
		b.printf("<table><tr><th>Finished</th><th>Dataset</th><th>Status</th><th>Kept</th><th>Retention</th></tr>")
		for _, run := range runs {
			b.printf(`<tr><td><a href="/runs/%s">%s</a></td><td>%s</td><td class="%s">%s</td><td>%d/%d</td><td>%.2f%%</td></tr>`,
				run.ID, run.FinishedAt.Format("2006-01-02 15:04:05"), esc(run.Dataset),
				esc(run.Status), esc(run.Status), run.CleanedRows, run.FilteredRows, run.Retention)
		}
		b.printf("</table>")
		return b.flush(w)
	}))
}

func runPage(run history.Run) templ.Component {
	return layout("Run "+run.Dataset, templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b pageBuilder
		b.printf("<table>")
		b.row("Run", run.ID.String())
		b.row("Status", run.Status)
		b.row("Started", run.StartedAt.Format("2006-01-02 15:04:05 MST"))
		b.row("Duration", run.Duration().String())
		if run.Error != "" {
			b.row("Error", run.Error)
		}
		if run.OutputPath != "" {
			b.row("Output", run.OutputPath)
		}
		b.row("Original rows", fmt.Sprint(run.OriginalRows))
		b.row("Filtered rows", fmt.Sprint(run.FilteredRows))
		b.row("Cleaned rows", fmt.Sprint(run.CleanedRows))
		b.row("Removed rows", fmt.Sprint(run.RemovedRows))
		b.row("Retention", fmt.Sprintf("%.2f%%", run.Retention))
		b.printf("</table>")

		if len(run.Failures) > 0 {
			b.printf("<h2>Rule failures</h2><table><tr><th>Rule</th><th>Rows</th></tr>")
			for _, f := range core.RankFailures(run.Failures) {
				b.printf("<tr><td>%s</td><td>%d</td></tr>", esc(f.Key), f.Count)
			}
			b.printf("</table>")
		}
		if len(run.Messages) > 0 {
			b.printf("<h2>Messages</h2><ul>")
			for _, m := range run.Messages {
				b.printf("<li>%s</li>", esc(m))
			}
			b.printf("</ul>")
		}
		return b.flush(w)
	}))
}

// pageBuilder buffers markup so a page is written in one piece.
type pageBuilder struct {
	buf []byte
}

func (b *pageBuilder) printf(format string, args ...any) {
	b.buf = fmt.Appendf(b.buf, format, args...)
}

func (b *pageBuilder) row(label, val string) {
	b.printf("<tr><th>%s</th><td>%s</td></tr>", esc(label), esc(val))
}

func (b *pageBuilder) flush(w io.Writer) error {
	_, err := w.Write(b.buf)
	return err
}
