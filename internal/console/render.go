package console

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/userdesk/admin-console/internal/core/domain"
	"github.com/userdesk/admin-console/internal/session"
)

const dateLayout = "2006-01-02 15:04"

func statusCell(isBanned bool, until *time.Time) string {
	if !isBanned {
		return "active"
	}
	if until == nil {
		return "banned"
	}
	return "banned until " + until.UTC().Format(dateLayout)
}

func lastSignInCell(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.UTC().Format(dateLayout)
}

// RenderAccounts writes the directory as a table. Columns are padded by
// display width, so non-ASCII emails stay aligned.
func RenderAccounts(w io.Writer, records []domain.AccountRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "no accounts")
		return err
	}

	rows := [][]string{{"ID", "EMAIL", "ROLE", "STATUS", "CREATED", "LAST SIGN-IN"}}
	for _, r := range records {
		email := r.Email
		if email == "" {
			email = "-"
		}
		rows = append(rows, []string{
			r.ID,
			email,
			string(r.Role),
			statusCell(r.IsBanned, r.BannedUntil),
			r.CreatedAt.UTC().Format(dateLayout),
			lastSignInCell(r.LastSignInAt),
		})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if cw := lipgloss.Width(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	var b strings.Builder
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = lipgloss.NewStyle().Width(widths[i]).Render(cell)
		}
		b.WriteString(strings.TrimRight(strings.Join(cells, "  "), " "))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderAccount writes one record on a single line.
func RenderAccount(w io.Writer, r domain.AccountRecord) error {
	_, err := fmt.Fprintf(w, "%s  %s  %s  %s\n", r.ID, r.Email, r.Role, statusCell(r.IsBanned, r.BannedUntil))
	return err
}

// RenderState writes who is signed in.
func RenderState(w io.Writer, s session.SessionState) error {
	switch {
	case s.IsLoading:
		_, err := fmt.Fprintln(w, "resolving session...")
		return err
	case s.Actor == nil:
		_, err := fmt.Fprintln(w, "signed out")
		return err
	}
	a := s.Actor
	email := a.Email
	if email == "" {
		email = "(no email)"
	}
	_, err := fmt.Fprintf(w, "%s  %s  %s  %s\n", a.ID, email, a.Role, statusCell(a.IsBanned(), a.BannedUntil))
	return err
}
