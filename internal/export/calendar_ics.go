package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/fentz26/tasklist/internal/models"
)

const icsDateLayout = "20060102"

// BuildCalendarICS builds an iCalendar document with one all-day event per
// task that has a due date. Tasks without a due date are skipped.
func BuildCalendarICS(tasks []models.Task, now time.Time) string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//tasklist//Task Export//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
	}
	stamp := now.UTC().Format("20060102T150405Z")

	for _, t := range tasks {
		if t.DueDate == nil {
			continue
		}
		due := t.DueDate.Time(time.UTC)
		end := due.AddDate(0, 0, 1)

		lines = append(lines,
			"BEGIN:VEVENT",
			fmt.Sprintf("UID:task-%d@tasklist", t.ID),
			"DTSTAMP:"+stamp,
			"SUMMARY:"+escapeICSText(t.Text),
			"DTSTART;VALUE=DATE:"+due.Format(icsDateLayout),
			"DTEND;VALUE=DATE:"+end.Format(icsDateLayout),
			"CATEGORIES:"+escapeICSText(strings.ToUpper(string(t.Category))),
			fmt.Sprintf("PRIORITY:%d", icsPriority(t.Priority)),
		)
		if t.Completed {
			lines = append(lines, "STATUS:COMPLETED")
		}
		lines = append(lines, "END:VEVENT")
	}

	lines = append(lines, "END:VCALENDAR", "")
	return strings.Join(lines, "\r\n")
}

// icsPriority maps to RFC 5545 values where 1 is highest.
func icsPriority(p models.Priority) int {
	switch p {
	case models.PriorityHigh:
		return 1
	case models.PriorityMedium:
		return 5
	default:
		return 9
	}
}

func escapeICSText(s string) string {
	repl := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\r\n", "\\n",
		"\n", "\\n",
		"\r", "\\n",
	)
	return repl.Replace(s)
}
