package output

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/assignwatch/assignwatch/internal/assignment"
	"github.com/assignwatch/assignwatch/internal/model"
	"github.com/assignwatch/assignwatch/internal/stats"
)

// hotCommentThreshold marks discussions worth a fire icon.
const hotCommentThreshold = 10

// ansiRegex matches ANSI escape sequences
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// TableFormatter formats output as a terminal table
type TableFormatter struct{}

// hyperlink creates a clickable terminal hyperlink using OSC 8
// Format: \033]8;;URL\033\\TEXT\033]8;;\033\\
func hyperlink(text, url string) string {
	// Only use hyperlinks if stdout is a terminal
	if url == "" || !term.IsTerminal(int(os.Stdout.Fd())) {
		return text
	}
	return fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", url, text)
}

// stripAnsi removes ANSI escape sequences from a string
func stripAnsi(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// displayWidth returns the visible width of a string in terminal columns
// accounting for wide characters like emojis (which take 2 columns)
// and stripping ANSI escape sequences
func displayWidth(s string) int {
	return runewidth.StringWidth(stripAnsi(s))
}

// truncateToWidth truncates a string to fit within maxWidth display columns
func truncateToWidth(s string, maxWidth int) (string, int) {
	plain := stripAnsi(s)
	width := runewidth.StringWidth(plain)
	if width <= maxWidth {
		return s, width
	}

	cutWidth := 0
	cutIndex := 0
	for i, r := range plain {
		rw := runewidth.RuneWidth(r)
		if cutWidth+rw > maxWidth-3 { // Leave room for "..."
			cutIndex = i
			break
		}
		cutWidth += rw
	}

	if cutIndex > 0 && cutIndex < len(plain) {
		return plain[:cutIndex] + "...", maxWidth
	}
	return plain[:maxWidth-3] + "...", maxWidth
}

// padRight pads a string with spaces to reach the target visible width
func padRight(s string, visibleWidth, targetWidth int) string {
	if visibleWidth >= targetWidth {
		return s
	}
	return s + strings.Repeat(" ", targetWidth-visibleWidth)
}

// Format outputs the ranked issue list as a table
func (f *TableFormatter) Format(d *Dashboard, w io.Writer) error {
	if d.Repo != nil {
		fmt.Fprintf(w, "%s", color.New(color.Bold).Sprint(d.Repo.FullName))
		if d.Repo.Description != "" {
			fmt.Fprintf(w, " - %s", d.Repo.Description)
		}
		fmt.Fprintf(w, "  (★ %d, %d open)\n\n", d.Repo.Stars, d.Repo.OpenIssues)
	}

	if len(d.Issues) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return nil
	}

	// Column widths
	const (
		colNumber   = 6
		colTitle    = 40
		colStatus   = 16
		colAssignee = 14
		colRel      = 4
		colAssigned = 16
		colAge      = 5
	)

	showProb := len(d.Analyses) > 0

	// Header
	fmt.Fprintf(w, "%-*s  %-*s  %-*s  %-*s  %-*s  ",
		colNumber, "#",
		colTitle, "Title",
		colStatus, "Status",
		colAssignee, "Assignee",
		colRel, "Rel")
	if showProb {
		fmt.Fprintf(w, "%-5s  ", "Prob")
	}
	fmt.Fprintf(w, "%-*s  %s\n", colAssigned, "Assigned", "Age")
	width := colNumber + colTitle + colStatus + colAssignee + colRel + colAssigned + colAge + 12
	if showProb {
		width += 7
	}
	fmt.Fprintln(w, strings.Repeat("-", width))

	for i := range d.Issues {
		ri := &d.Issues[i]
		issue := &ri.Issue

		title := issue.Title
		if issue.Comments > hotCommentThreshold {
			title = "🔥 " + title
		}
		title, visibleTitleLen := truncateToWidth(title, colTitle)
		linkedTitle := hyperlink(title, issue.HTMLURL)
		linkedTitle = padRight(linkedTitle, visibleTitleLen, colTitle)

		status := colorStatus(assignment.Classify(issue, d.Now, d.StaleAfter), issue, d)
		status = padRight(status, displayWidth(status), colStatus)

		assignee := "-"
		if issue.Assignee != nil {
			assignee = issue.Assignee.Login
		}
		assignee, _ = truncateToWidth(assignee, colAssignee)

		rel := "-"
		if ri.Activity != nil {
			rel = colorScore(ri.Activity.ReliabilityScore)
		}
		rel = padRight(rel, displayWidth(rel), colRel)

		assigned := "-"
		if ri.AssignedAt != nil {
			assigned = assignment.FormatElapsed(assignment.Elapsed(*ri.AssignedAt, d.Now))
		}

		age := assignment.FormatAge(d.Now.Sub(issue.UpdatedAt))

		fmt.Fprintf(w, "%-*d  %s  %s  %-*s  %s  ",
			colNumber, issue.Number,
			linkedTitle,
			status,
			colAssignee, assignee,
			rel)
		if showProb {
			prob := "-"
			if a := d.Analyses[issue.Number]; a != nil {
				prob = fmt.Sprintf("%d%%", a.CompletionProbability)
			}
			fmt.Fprintf(w, "%-5s  ", prob)
		}
		fmt.Fprintf(w, "%-*s  %s\n", colAssigned, assigned, age)
	}

	printStaleSummary(d, w)
	return nil
}

// FormatLeaderboard outputs the most-active contributor board
func (f *TableFormatter) FormatLeaderboard(board []model.UserActivity, w io.Writer) error {
	if len(board) == 0 {
		fmt.Fprintln(w, "No contributor activity found.")
		return nil
	}

	const (
		colRank    = 4
		colLogin   = 20
		colScore   = 5
		colPattern = 12
		colOpen    = 4
	)

	fmt.Fprintf(w, "%-*s  %-*s  %-*s  %-*s  %-*s  %s\n",
		colRank, "Rank",
		colLogin, "Contributor",
		colScore, "Score",
		colPattern, "Pattern",
		colOpen, "Open",
		"Avg Close")
	fmt.Fprintln(w, strings.Repeat("-", colRank+colLogin+colScore+colPattern+colOpen+20))

	for i, activity := range board {
		login, _ := truncateToWidth(activity.Login, colLogin)

		avgClose := "-"
		if activity.AvgTimeToClose > 0 {
			avgClose = assignment.FormatAge(activity.AvgTimeToClose)
		}

		score := colorScore(activity.ReliabilityScore)
		score = padRight(score, displayWidth(score), colScore)

		fmt.Fprintf(w, "%-*d  %-*s  %s  %-*s  %-*d  %s\n",
			colRank, i+1,
			colLogin, login,
			score,
			colPattern, string(activity.ActivityPattern),
			colOpen, activity.OpenIssues,
			avgClose)
	}

	return nil
}

// FormatHistory outputs recorded run snapshots, oldest first
func (f *TableFormatter) FormatHistory(history []stats.Snapshot, w io.Writer) error {
	if len(history) == 0 {
		fmt.Fprintln(w, "No run history recorded yet.")
		return nil
	}

	const (
		colWhen     = 16
		colRepo     = 24
		colTotal    = 5
		colOpen     = 4
		colAssigned = 8
		colStale    = 5
	)

	fmt.Fprintf(w, "%-*s  %-*s  %-*s  %-*s  %-*s  %-*s  %s\n",
		colWhen, "When",
		colRepo, "Repo",
		colTotal, "Total",
		colOpen, "Open",
		colAssigned, "Assigned",
		colStale, "Stale",
		"Mean Rel")
	fmt.Fprintln(w, strings.Repeat("-", colWhen+colRepo+colTotal+colOpen+colAssigned+colStale+20))

	for _, snap := range history {
		repo, _ := truncateToWidth(snap.Repo, colRepo)

		stale := fmt.Sprintf("%d", snap.StaleCount)
		if snap.StaleCount > 0 {
			stale = color.RedString(stale)
		}
		stale = padRight(stale, displayWidth(stale), colStale)

		meanRel := "-"
		if snap.MeanReliability > 0 {
			meanRel = fmt.Sprintf("%.0f", snap.MeanReliability)
		}

		fmt.Fprintf(w, "%-*s  %-*s  %-*d  %-*d  %-*d  %s  %s\n",
			colWhen, snap.Timestamp.Local().Format("2006-01-02 15:04"),
			colRepo, repo,
			colTotal, snap.TotalCount,
			colOpen, snap.OpenCount,
			colAssigned, snap.AssignedCount,
			stale,
			meanRel)
	}

	return nil
}

// colorStatus colors the status label by severity.
func colorStatus(status assignment.Status, issue *model.Issue, d *Dashboard) string {
	label := assignment.StatusLabel(issue, d.Now, d.StaleAfter)
	switch status {
	case assignment.StatusStale:
		return color.RedString(label)
	case assignment.StatusInProgress:
		return color.CyanString(label)
	case assignment.StatusClosed:
		return color.WhiteString(label)
	case assignment.StatusPRLinked:
		return color.GreenString(label)
	default:
		return label
	}
}

// colorScore colors a 0-100 score into green/yellow/red bands.
func colorScore(score int) string {
	switch {
	case score >= 70:
		return color.GreenString("%d", score)
	case score >= 45:
		return color.YellowString("%d", score)
	default:
		return color.RedString("%d", score)
	}
}

// printStaleSummary prints the stale alert footer
func printStaleSummary(d *Dashboard, w io.Writer) {
	if len(d.Stale) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("━", 60))
	fmt.Fprintf(w, "  %s %s stale issues need attention\n",
		color.RedString("●"),
		color.RedString("%d", len(d.Stale)))
	for i := range d.Stale {
		issue := &d.Stale[i]
		v := assignment.Staleness(issue, d.Now, d.StaleAfter)
		title, _ := truncateToWidth(issue.Title, 50)
		fmt.Fprintf(w, "    #%d %s (%dd quiet)\n", issue.Number, title, v.AgeDays)
	}
}
