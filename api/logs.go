package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/transcriptfeed/logstore"
	"github.com/kbukum/transcriptfeed/server"
	"github.com/kbukum/transcriptfeed/validation"
)

// DefaultLogCount is the number of entries returned when count is omitted.
const DefaultLogCount = 100

var logLevels = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic"}

func (h *Handler) listLogs(c *gin.Context) {
	q := logstore.Query{
		Count:     DefaultLogCount,
		MinLevel:  c.Query("minLevel"),
		Component: c.Query("component"),
	}

	v := validation.New()
	if raw := c.Query("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		v.Check(err == nil, "count", "must be an integer")
		if err == nil {
			v.Range("count", n, 1, logstore.DefaultCapacity)
			q.Count = n
		}
	}
	v.OneOf("minLevel", q.MinLevel, logLevels)
	if err := v.Validate(); err != nil {
		server.RespondWithError(c, err)
		return
	}

	entries := h.logs.Entries(q)
	if entries == nil {
		entries = []logstore.Entry{}
	}
	server.RespondOK(c, entries)
}

func (h *Handler) clearLogs(c *gin.Context) {
	h.logs.Clear()
	server.RespondNoContent(c)
}
