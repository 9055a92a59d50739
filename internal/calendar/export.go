// Package calendar renders a notification feed as an iCalendar document.
package calendar

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"coach-hub/internal/notifications"

	"github.com/emersion/go-ical"
)

const (
	productID = "-//coach-hub//notifications//ES"
	uidDomain = "coach-hub"
	// ContentType is the media type of Write's output.
	ContentType = "text/calendar; charset=utf-8"
)

// ErrEmpty is returned when there is nothing to export; a VCALENDAR must
// hold at least one component.
var ErrEmpty = stderrors.New("calendar: no events to export")

// Exporter turns feed items into VEVENTs.
type Exporter struct {
	now func() time.Time
}

// NewExporter creates an exporter
func NewExporter() *Exporter {
	return &Exporter{now: time.Now}
}

// UID is the stable iCalendar UID of an event.
func UID(eventID string) string {
	return eventID + "@" + uidDomain
}

// Build returns the calendar for items as seen by (role, userID).
func (e *Exporter) Build(items []notifications.Item, role notifications.Role, userID string) (*ical.Calendar, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropMethod, "PUBLISH")

	stamp := e.now().UTC().Truncate(time.Second)
	for _, item := range items {
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, UID(item.EventID))
		event.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
		event.Props.SetDateTime(ical.PropDateTimeStart, item.StartTime.UTC())
		if item.EndTime != nil {
			event.Props.SetDateTime(ical.PropDateTimeEnd, item.EndTime.UTC())
		}
		event.Props.SetDateTime(ical.PropLastModified, item.UpdatedAt.UTC())
		event.Props.SetText(ical.PropSummary, item.Title)
		event.Props.SetText(ical.PropDescription, description(item, role, userID))
		event.Props.SetText(ical.PropStatus, status(item.RSVPStatus))

		if item.MeetLink != "" {
			link, err := url.Parse(item.MeetLink)
			if err != nil {
				return nil, fmt.Errorf("event %s: invalid meet link: %w", item.EventID, err)
			}
			event.Props.SetURI(ical.PropURL, link)
			event.Props.SetText(ical.PropLocation, item.MeetLink)
		}

		cal.Children = append(cal.Children, event.Component)
	}
	return cal, nil
}

// Write encodes the calendar for items to w.
func (e *Exporter) Write(w io.Writer, items []notifications.Item, role notifications.Role, userID string) error {
	if len(items) == 0 {
		return ErrEmpty
	}
	cal, err := e.Build(items, role, userID)
	if err != nil {
		return err
	}
	return ical.NewEncoder(w).Encode(cal)
}

func description(item notifications.Item, role notifications.Role, userID string) string {
	lines := []string{notifications.Describe(item, role, userID)}
	if r := item.ReschedulePending; r != nil && r.Status == notifications.ReschedulePending {
		lines = append(lines, "Nueva fecha propuesta: "+r.ToStartTime.UTC().Format("2006-01-02 15:04 UTC"))
		if r.Note != "" {
			lines = append(lines, "Nota: "+r.Note)
		}
	}
	return strings.Join(lines, "\n")
}

func status(rsvp string) string {
	switch rsvp {
	case notifications.StatusAccepted, notifications.StatusConfirmed:
		return "CONFIRMED"
	case notifications.StatusDeclined, notifications.StatusCancelled:
		return "CANCELLED"
	default:
		return "TENTATIVE"
	}
}
