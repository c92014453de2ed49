// Package export renders admin listings as xlsx workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hack4change/moncton/internal/profile"
	"github.com/hack4change/moncton/internal/team"
)

// ContentType is the MIME type of an xlsx workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const sheetName = "Sheet1"

var userHeaders = []any{
	"ID", "Email", "First Name", "Last Name", "Role", "RSVP Status", "Team",
	"T-Shirt Size", "Dietary Restrictions", "Created At",
}

var teamHeaders = []any{
	"ID", "Name", "Description", "Leader", "Members", "Max Members", "Created At",
}

// Users writes profiles as a workbook to w.
func Users(w io.Writer, profiles []profile.Profile) error {
	rows := make([][]any, 0, len(profiles))
	for _, p := range profiles {
		rows = append(rows, []any{
			p.ID.String(), p.Email, deref(p.FirstName), deref(p.LastName), p.Role, p.RSVPStatus,
			deref(p.TeamName), deref(p.TShirtSize), deref(p.DietaryRestrictions), formatTime(p.CreatedAt),
		})
	}
	return write(w, userHeaders, rows)
}

// Teams writes teams as a workbook to w.
func Teams(w io.Writer, teams []team.Team) error {
	rows := make([][]any, 0, len(teams))
	for _, t := range teams {
		rows = append(rows, []any{
			t.ID.String(), t.Name, deref(t.Description), t.CreatorName(), t.MemberCount, t.MaxMembers,
			formatTime(t.CreatedAt),
		})
	}
	return write(w, teamHeaders, rows)
}

// Filename returns a dated export file name such as users-2026-03-14.xlsx.
func Filename(kind string, now time.Time) string {
	return fmt.Sprintf("%s-%s.xlsx", kind, now.UTC().Format("2006-01-02"))
}

func write(w io.Writer, headers []any, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return fmt.Errorf("writing header row: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("resolving cell: %w", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
