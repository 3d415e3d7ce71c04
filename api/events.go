package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/transcriptfeed/logger"
	"github.com/kbukum/transcriptfeed/meeting"
	"github.com/kbukum/transcriptfeed/server"
)

// DefaultEventExpiration applies when a create request names no expiration.
const DefaultEventExpiration = 24 * time.Hour

type createEventSubscriptionRequest struct {
	OrganizerID        string     `json:"organizerId" validate:"required,uuid"`
	ExpirationDateTime *time.Time `json:"expirationDateTime" validate:"omitempty,future"`
}

func (h *Handler) listEventSubscriptions(c *gin.Context) {
	list := h.subs.GetAllEventSubscriptions()
	if list == nil {
		list = []meeting.EventSubscription{}
	}
	server.RespondOK(c, list)
}

func (h *Handler) createEventSubscription(c *gin.Context) {
	var req createEventSubscriptionRequest
	if !bindJSON(c, &req) {
		return
	}
	expiration := h.now().Add(DefaultEventExpiration)
	if req.ExpirationDateTime != nil {
		expiration = *req.ExpirationDateTime
	}

	sub, err := h.subs.AddEventSubscription(c.Request.Context(), req.OrganizerID, expiration)
	if err != nil {
		h.log.WithContext(c.Request.Context()).Error("Create event subscription failed",
			logger.ErrorFields("subscribe_events", err), logger.Fields(logger.FieldOrganizerID, req.OrganizerID))
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, sub)
}

func (h *Handler) getEventSubscription(c *gin.Context) {
	sub, err := h.subs.GetEventSubscriptionByID(c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, sub)
}

func (h *Handler) deleteEventSubscription(c *gin.Context) {
	if err := h.subs.RemoveEventSubscription(c.Request.Context(), c.Param("id")); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondNoContent(c)
}
