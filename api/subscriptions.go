package api

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/transcriptfeed/errors"
	"github.com/kbukum/transcriptfeed/logger"
	"github.com/kbukum/transcriptfeed/meeting"
	"github.com/kbukum/transcriptfeed/server"
	"github.com/kbukum/transcriptfeed/validation"
)

type createSubscriptionRequest struct {
	MeetingURL string `json:"meetingUrl" validate:"required,url"`
}

func (h *Handler) listSubscriptions(c *gin.Context) {
	list := h.subs.GetAllSubscriptions()
	if list == nil {
		list = []meeting.SubscriptionInfo{}
	}
	server.RespondOK(c, list)
}

func (h *Handler) createSubscription(c *gin.Context) {
	var req createSubscriptionRequest
	if !bindJSON(c, &req) {
		return
	}
	info, err := h.subs.AddSubscription(c.Request.Context(), req.MeetingURL)
	if err != nil {
		h.log.WithContext(c.Request.Context()).Error("Create subscription failed",
			logger.ErrorFields("subscribe", err), logger.SubscriptionFields("", req.MeetingURL))
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, info)
}

func (h *Handler) getSubscription(c *gin.Context) {
	details, err := h.subs.GetSubscription(c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if details.Transcripts == nil {
		details.Transcripts = []meeting.TranscriptData{}
	}
	server.RespondOK(c, details)
}

func (h *Handler) getTranscripts(c *gin.Context) {
	details, err := h.subs.GetSubscription(c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	transcripts := details.Transcripts
	if transcripts == nil {
		transcripts = []meeting.TranscriptData{}
	}
	server.RespondOK(c, transcripts)
}

func (h *Handler) deleteSubscription(c *gin.Context) {
	if err := h.subs.RemoveSubscription(c.Param("id")); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondNoContent(c)
}

func (h *Handler) unsubscribe(c *gin.Context) {
	if err := h.subs.Unsubscribe(c.Request.Context(), c.Param("id")); err != nil {
		h.log.WithContext(c.Request.Context()).Error("Unsubscribe failed",
			logger.ErrorFields("unsubscribe", err), logger.SubscriptionFields(c.Param("id"), ""))
		server.RespondWithError(c, err)
		return
	}
	server.RespondNoContent(c)
}

// bindJSON decodes and validates the request body, answering 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		server.RespondWithError(c, apperrors.Validation("invalid JSON body").WithCause(err))
		return false
	}
	if err := validation.Validate(dst); err != nil {
		server.RespondWithError(c, err)
		return false
	}
	return true
}
