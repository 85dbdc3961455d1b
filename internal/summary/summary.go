// Package summary renders run reports as terminal tables.
package summary

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"basegraph.app/agora/common/logger"
	"basegraph.app/agora/internal/model"
)

const titleWidth = 48

var (
	headStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))

	statusColors = map[string]lipgloss.Color{
		string(model.ItemStatusSucceeded): lipgloss.Color("#4CAF50"),
		string(model.ItemStatusPartial):   lipgloss.Color("#FFB300"),
		string(model.ItemStatusFailed):    lipgloss.Color("#FF6B6B"),
	}
)

// Cycle renders the counters line and one row per selected item.
func Cycle(r *model.CycleReport) string {
	var b strings.Builder
	b.WriteString(headStyle.Render(fmt.Sprintf("cycle %d", r.CycleID)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "fetched %d · already recorded %d · fresh %d · selected %d · published %d · discussed %d · pruned %d\n",
		r.Fetched, r.AlreadyRecorded, r.Fresh, r.Selected, r.Published, r.Discussed, r.Pruned)
	if len(r.Items) == 0 {
		return b.String()
	}

	rows := make([][]string, 0, len(r.Items))
	for i, item := range r.Items {
		article, turns := "-", "-"
		if item.Published() {
			article = strconv.FormatInt(item.ArticleID, 10)
		}
		if item.Discussion != nil {
			d := item.Discussion
			turns = fmt.Sprintf("%d/%d", len(d.Turns)-d.Failed(), len(d.Turns))
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			string(item.Status()),
			strconv.FormatInt(item.BoardID, 10),
			article,
			turns,
			logger.Truncate(item.Source.Title, titleWidth),
			itemError(item),
		})
	}

	b.WriteString(render([]string{"#", "STATUS", "BOARD", "ARTICLE", "TURNS", "HEADLINE", "ERROR"}, rows, 1))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%d succeeded · %d partial · %d failed\n",
		r.Count(model.ItemStatusSucceeded), r.Count(model.ItemStatusPartial), r.Count(model.ItemStatusFailed))
	return b.String()
}

// Discussions renders one row per agent turn.
func Discussions(ds []model.ArticleDiscussion) string {
	rows := make([][]string, 0)
	for _, d := range ds {
		article := strconv.FormatInt(d.ArticleID, 10)
		if d.Err != nil {
			rows = append(rows, []string{article, "-", "failed", "-", errText(d.Err)})
			continue
		}
		for _, t := range d.Turns {
			status, reply := "ok", "-"
			if !t.Succeeded() {
				status = "failed at " + string(t.Stage)
			} else {
				reply = strconv.FormatInt(t.ReplyID, 10)
			}
			rows = append(rows, []string{article, t.Label, status, reply, errText(t.Err)})
		}
	}
	return render([]string{"ARTICLE", "AGENT", "STATUS", "REPLY", "ERROR"}, rows, 2)
}

func render(headers []string, rows [][]string, statusCol int) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headStyle.Padding(0, 1)
			}
			// data rows are numbered from the row after the header
			idx := row - (table.HeaderRow + 1)
			if col == statusCol && idx >= 0 && idx < len(rows) {
				if color, ok := statusColors[rows[idx][col]]; ok {
					return cellStyle.Foreground(color)
				}
				if strings.HasPrefix(rows[idx][col], "failed") {
					return cellStyle.Foreground(statusColors[string(model.ItemStatusFailed)])
				}
			}
			return cellStyle
		})
	return t.String()
}

func itemError(item model.ItemReport) string {
	switch {
	case item.Err != nil:
		return errText(item.Err)
	case item.LedgerErr != nil:
		return "ledger: " + errText(item.LedgerErr)
	case item.Discussion != nil && item.Discussion.Err != nil:
		return "discussion: " + errText(item.Discussion.Err)
	}
	return ""
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return logger.Truncate(err.Error(), 60)
}
