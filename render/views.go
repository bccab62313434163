package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jrsteele09/citypulse/admin"
	"github.com/jrsteele09/citypulse/complaints"
	"github.com/jrsteele09/citypulse/identity"
	"github.com/jrsteele09/citypulse/internal/utils"
)

const (
	timeLayout    = "02 Jan 2006 15:04"
	progressWidth = 24
	titleWidth    = 40
)

// Badge renders a status as "In progress" in its colour.
func Badge(s complaints.Status) string {
	return StatusStyle(s).Render(complaints.DisplayStatus(s))
}

// Progress renders a bar for the status' completion percentage.
func Progress(s complaints.Status) string {
	pct := complaints.Progress(s)
	filled := pct * progressWidth / 100
	bar := StatusStyle(s).Render(strings.Repeat("█", filled)) + Muted.Render(strings.Repeat("░", progressWidth-filled))
	return fmt.Sprintf("%s %3d%%", bar, pct)
}

// Complaint renders the tracking view of a single complaint.
func Complaint(c *complaints.Complaint) string {
	if c == nil {
		return ""
	}
	rows := []string{
		Header.Render(fmt.Sprintf("#%d %s", c.ID, c.Title)),
		"",
		detail("Status", Badge(c.Status)),
		detail("Progress", Progress(c.Status)),
		detail("Category", titleCase(string(c.Category))),
		detail("Severity", SeverityStyle(c.Severity).Render(titleCase(string(c.Severity)))),
		detail("Submitted", formatTime(c.CreatedAt)),
	}
	if address := utils.Value(c.Address); address != "" {
		rows = append(rows, detail("Address", address))
	}
	if link, ok := complaints.MapsLink(c); ok {
		rows = append(rows, detail("Map", link))
	}
	if c.Description != "" {
		rows = append(rows, "", Text.Render(c.Description))
	}
	rows = append(rows, "", Timeline(c))
	return DetailBorder.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// Timeline renders the complaint's history, oldest first.
func Timeline(c *complaints.Complaint) string {
	var b strings.Builder
	b.WriteString(Header.Render("Timeline"))
	for _, entry := range complaints.Timeline(c) {
		b.WriteString("\n")
		b.WriteString(StatusStyle(entry.Status).Render("● " + entry.Label))
		if !entry.Timestamp.IsZero() {
			b.WriteString(Muted.Render("  " + formatTime(entry.Timestamp)))
		}
		b.WriteString("\n  ")
		b.WriteString(Text.Render(entry.Description))
	}
	return b.String()
}

// ComplaintList renders one line per complaint.
func ComplaintList(page *complaints.Page) string {
	if page == nil || len(page.Content) == 0 {
		return Muted.Render("No complaints yet.")
	}
	lines := make([]string, 0, len(page.Content)+1)
	for i := range page.Content {
		c := &page.Content[i]
		lines = append(lines, fmt.Sprintf("%s  %-*s  %s  %s",
			Muted.Render(fmt.Sprintf("#%-5d", c.ID)),
			titleWidth, truncate(c.Title, titleWidth),
			Badge(c.Status),
			Muted.Render(formatTime(c.CreatedAt)),
		))
	}
	if total := page.TotalElements; total > int64(len(page.Content)) {
		lines = append(lines, Muted.Render(fmt.Sprintf("Showing %d of %d", len(page.Content), total)))
	}
	return strings.Join(lines, "\n")
}

// Stats renders the admin dashboard counters as cards.
func Stats(s admin.Stats) string {
	cards := []string{
		statCard("Total", s.Total, Header),
		statCard("Submitted", int64(s.Submitted), StatusStyle(complaints.StatusSubmitted)),
		statCard("In progress", int64(s.InProgress), StatusStyle(complaints.StatusInProgress)),
		statCard("Resolved", int64(s.Resolved), StatusStyle(complaints.StatusResolved)),
		statCard("Rejected", int64(s.Rejected), StatusStyle(complaints.StatusRejected)),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func statCard(label string, n int64, style lipgloss.Style) string {
	return Card.Render(Muted.Render(label) + "\n" + style.Render(strconv.FormatInt(n, 10)))
}

// Identity describes who is signed in.
func Identity(s identity.State) string {
	if !s.Authenticated {
		return Muted.Render("Not signed in.")
	}
	rows := []string{
		detail("User", s.User.DisplayName()),
		detail("Email", s.User.Email),
		detail("Provider", titleCase(string(s.User.AuthProvider))),
	}
	if s.Admin {
		rows = append(rows, detail("Role", Success.Render("Administrator")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// Failure renders an error for the terminal.
func Failure(err error) string {
	return Error.Render("✗ " + err.Error())
}

func Done(msg string) string {
	return Success.Render("✓ " + msg)
}

func detail(key, value string) string {
	return DetailKey.Render(key) + value
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

// titleCase turns STREETLIGHT into Streetlight.
func titleCase(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(strings.ReplaceAll(s, "_", " "))
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
