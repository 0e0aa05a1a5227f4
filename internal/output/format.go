// Package output renders fetched section data for the terminal.
package output

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/hal/prwatch/config"
	"github.com/hal/prwatch/internal/model"
	"github.com/hal/prwatch/internal/section"
	"github.com/hal/prwatch/internal/service"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const titleWidth = 60

// ansiRegex matches ANSI escape sequences.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

var (
	headerColor = color.New(color.Bold, color.FgCyan)
	userColor   = color.New(color.Bold)
	numberColor = color.New(color.FgYellow)
	openColor   = color.New(color.FgGreen)
	closedColor = color.New(color.FgRed)
	mergedColor = color.New(color.FgMagenta)
	draftColor  = color.New(color.Faint)
	warnColor   = color.New(color.FgYellow)
	dangerColor = color.New(color.FgRed, color.Bold)
)

// Formatter writes section results as a colored terminal listing.
// Diff stats are highlighted against the configured size thresholds.
type Formatter struct {
	Thresholds config.Thresholds

	// Now is injectable for tests; nil means time.Now.
	Now func() time.Time
}

func (f *Formatter) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

// Format renders every section present in the result, in display
// order. Sections excluded from a partial fetch are skipped.
func (f *Formatter) Format(result service.Result, w io.Writer) error {
	for _, sec := range section.All {
		byUser, ok := result[sec]
		if !ok {
			continue
		}

		total := 0
		for _, prs := range byUser {
			total += len(prs)
		}
		fmt.Fprintf(w, "%s (%d)\n", headerColor.Sprint(sec.Title()), total)

		if len(byUser) == 0 {
			fmt.Fprintln(w, "  no PRs to display")
			fmt.Fprintln(w)
			continue
		}

		users := make([]string, 0, len(byUser))
		for user := range byUser {
			users = append(users, user)
		}
		sort.Strings(users)

		for _, user := range users {
			fmt.Fprintf(w, "  %s\n", userColor.Sprint(user))
			for i := range byUser[user] {
				fmt.Fprintf(w, "    %s\n", f.prLine(&byUser[user][i]))
			}
		}
		fmt.Fprintln(w)
	}
	return nil
}

func (f *Formatter) prLine(pr *model.PullRequest) string {
	title, width := truncateToWidth(pr.Title, titleWidth)
	title = padRight(hyperlink(title, pr.HTMLURL), width, titleWidth)

	return fmt.Sprintf("%s  %s  %s  %s  %s",
		padRight(numberColor.Sprintf("#%d", pr.Number), displayWidth(fmt.Sprintf("#%d", pr.Number)), 6),
		title,
		f.diffStats(pr),
		formatAge(f.now().Sub(pr.CreatedAt)),
		stateLabel(pr),
	)
}

// diffStats renders the enrichment fields, coloring values that cross
// the warning and danger thresholds.
func (f *Formatter) diffStats(pr *model.PullRequest) string {
	if pr.Diff == nil {
		return draftColor.Sprint("        -        ")
	}
	return fmt.Sprintf("%s/%s (%s files)",
		levelColor(pr.Diff.Additions, f.Thresholds.Additions).Sprintf("+%d", pr.Diff.Additions),
		levelColor(pr.Diff.Deletions, f.Thresholds.Deletions).Sprintf("-%d", pr.Diff.Deletions),
		levelColor(pr.Diff.ChangedFiles, f.Thresholds.Files).Sprintf("%d", pr.Diff.ChangedFiles),
	)
}

func levelColor(value int, level config.Level) *color.Color {
	switch {
	case level.Danger > 0 && value >= level.Danger:
		return dangerColor
	case level.Warning > 0 && value >= level.Warning:
		return warnColor
	}
	return color.New()
}

func stateLabel(pr *model.PullRequest) string {
	switch {
	case pr.MergedAt != nil:
		return mergedColor.Sprint("merged")
	case pr.State == model.StateClosed:
		return closedColor.Sprint("closed")
	case pr.Draft:
		return draftColor.Sprint("draft")
	}
	return openColor.Sprint("open")
}

// formatAge formats a duration as a compact age: "now", "5m", "2h",
// "3d", "2w", "3mo".
func formatAge(d time.Duration) string {
	if d < time.Minute {
		return "now"
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	days := int(d.Hours() / 24)
	if days < 7 {
		return fmt.Sprintf("%dd", days)
	}
	if days < 30 {
		return fmt.Sprintf("%dw", days/7)
	}
	return fmt.Sprintf("%dmo", days/30)
}

// hyperlink creates a clickable terminal hyperlink using OSC 8 when
// stdout is a terminal.
func hyperlink(text, url string) string {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return text
	}
	return fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", url, text)
}

// stripAnsi removes ANSI escape sequences from a string.
func stripAnsi(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// displayWidth returns the visible width of a string in terminal
// columns, accounting for wide characters and ANSI sequences.
func displayWidth(s string) int {
	return runewidth.StringWidth(stripAnsi(s))
}

// truncateToWidth truncates a string to fit maxWidth display columns,
// returning the truncated string and its visible width.
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
		if cutWidth+rw > maxWidth-3 {
			cutIndex = i
			break
		}
		cutWidth += rw
	}

	if cutIndex > 0 && cutIndex < len(plain) {
		return plain[:cutIndex] + "...", cutWidth + 3
	}
	return plain[:maxWidth-3] + "...", maxWidth
}

// padRight pads a string with spaces to reach the target visible width.
func padRight(s string, visibleWidth, targetWidth int) string {
	for visibleWidth < targetWidth {
		s += " "
		visibleWidth++
	}
	return s
}
