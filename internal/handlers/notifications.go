package handlers

import (
	"bytes"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"coach-hub/internal/calendar"
	"coach-hub/internal/notifications"
)

// NotificationItem is a feed item with its rendered text.
type NotificationItem struct {
	notifications.Item
	Description string `json:"description"`
	ShowActions bool   `json:"showActions"`
}

// NotificationsResponse is the caller's feed.
type NotificationsResponse struct {
	Items    []NotificationItem `json:"items"`
	LoadedAt *time.Time         `json:"loadedAt,omitempty"`
	Loading  bool               `json:"loading"`
	Error    string             `json:"error,omitempty"`
}

// RSVPRequest answers an invitation.
type RSVPRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed declined"`
}

// RescheduleResponseRequest answers a pending reschedule.
type RescheduleResponseRequest struct {
	Response string `json:"response" validate:"required,oneof=accepted rejected"`
}

// ListNotifications returns the caller's meet notifications
// @Summary List meet notifications
// @Description Returns one item per calendar event the caller takes part in, newest first, with the rendered description and whether invitation actions apply
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} NotificationsResponse "Feed"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 502 {object} ErrorResponse "Store unavailable"
// @Router /api/notifications [get]
func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	feed, err := h.loadFeed(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.feedResponse(feed))
}

// ExportCalendar returns the caller's feed as iCalendar
// @Summary Export notifications as iCalendar
// @Description Renders every feed item as a VEVENT. An empty feed yields 204.
// @Tags notifications
// @Produce text/calendar
// @Security BearerAuth
// @Success 200 {string} string "iCalendar document"
// @Success 204 "No events"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 502 {object} ErrorResponse "Store unavailable"
// @Router /api/notifications/calendar.ics [get]
func (h *Handlers) ExportCalendar(w http.ResponseWriter, r *http.Request) {
	feed, err := h.loadFeed(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	actor := feed.Actor()

	var buf bytes.Buffer
	if err := h.exporter.Write(&buf, feed.Items(), actor.Role, actor.UserID); err != nil {
		if stderrors.Is(err, calendar.ErrEmpty) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", calendar.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="notifications.ics"`)
	w.Write(buf.Bytes())
}

// UpdateRSVP answers an invitation
// @Summary Answer an invitation
// @Description Confirms or declines the caller's participation. Confirming anything but a workshop also confirms the event.
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Param request body RSVPRequest true "Answer"
// @Success 200 {object} NotificationsResponse "Refreshed feed"
// @Failure 400 {object} ErrorResponse "Invalid status"
// @Failure 502 {object} ErrorResponse "Store rejected the update"
// @Router /api/notifications/{eventId}/rsvp [post]
func (h *Handlers) UpdateRSVP(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req RSVPRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.writeError(w, r, err)
		return
	}

	feed := h.feeds.For(actor)
	if err := feed.UpdateRSVP(r.Context(), mux.Vars(r)["eventId"], req.Status); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.feedResponse(feed))
}

// RespondToReschedule answers a pending reschedule request
// @Summary Answer a reschedule request
// @Description Accepting moves the event to the proposed time and confirms it; rejecting leaves it unchanged. Without a pending request nothing happens.
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Param request body RescheduleResponseRequest true "Answer"
// @Success 200 {object} NotificationsResponse "Refreshed feed"
// @Failure 400 {object} ErrorResponse "Invalid response"
// @Failure 502 {object} ErrorResponse "Store rejected the update"
// @Router /api/notifications/{eventId}/reschedule [post]
func (h *Handlers) RespondToReschedule(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req RescheduleResponseRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.writeError(w, r, err)
		return
	}

	feed := h.feeds.For(actor)
	if err := feed.RespondToReschedule(r.Context(), mux.Vars(r)["eventId"], req.Response); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.feedResponse(feed))
}

func (h *Handlers) loadFeed(r *http.Request) (*notifications.Feed, error) {
	actor, err := actorFrom(r)
	if err != nil {
		return nil, err
	}
	feed := h.feeds.For(actor)
	if _, err := feed.Load(r.Context()); err != nil {
		return nil, err
	}
	return feed, nil
}

func (h *Handlers) feedResponse(feed *notifications.Feed) NotificationsResponse {
	actor := feed.Actor()
	items := feed.Items()

	resp := NotificationsResponse{
		Items:   make([]NotificationItem, 0, len(items)),
		Loading: feed.Loading(),
		Error:   feed.Error(),
	}
	for _, item := range items {
		resp.Items = append(resp.Items, NotificationItem{
			Item:        item,
			Description: notifications.Describe(item, actor.Role, actor.UserID),
			ShowActions: notifications.ShowActions(item, actor.Role, actor.UserID),
		})
	}
	if loaded := feed.LoadedAt(); !loaded.IsZero() {
		resp.LoadedAt = &loaded
	}
	return resp
}
