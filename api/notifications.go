package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/transcriptfeed/errors"
	"github.com/kbukum/transcriptfeed/server"
)

// meetingEvents is the webhook the remote API calls. A validationToken query
// parameter is a handshake and is echoed back as text/plain. Anything else is
// acknowledged with 202 and processed in the background.
func (h *Handler) meetingEvents(c *gin.Context) {
	log := h.log.WithContext(c.Request.Context())

	if token := c.Query("validationToken"); token != "" {
		log.Info("Webhook validation request received")
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(token))
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			server.RespondWithError(c, apperrors.New(apperrors.ErrCodeInvalidInput, "request body too large", http.StatusRequestEntityTooLarge))
			return
		}
		server.RespondWithError(c, apperrors.Validation("unreadable request body").WithCause(err))
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		log.Warn("Empty notification body received")
		server.RespondWithError(c, apperrors.Validation("request body is empty"))
		return
	}

	h.dispatcher.Dispatch(c.Request.Context(), body)
	server.RespondAccepted(c)
}
