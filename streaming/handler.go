package streaming

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	apperrors "github.com/kbukum/transcriptfeed/errors"
	"github.com/kbukum/transcriptfeed/logger"
	"github.com/kbukum/transcriptfeed/meeting"
	"github.com/kbukum/transcriptfeed/observability"
)

// TokenProvider supplies bearer tokens for the stream.
type TokenProvider interface {
	GetBearerToken(ctx context.Context, appOnly bool) (string, error)
}

var errStopped = errors.New("handler stopped")

// allowed lists the status transitions a handler may make.
var allowed = map[meeting.Status][]meeting.Status{
	meeting.StatusInactive: {meeting.StatusActive, meeting.StatusExpired, meeting.StatusError},
	meeting.StatusActive:   {meeting.StatusExpired, meeting.StatusError},
}

// Handler owns one subscription's stream, receive loop and buffer.
type Handler struct {
	tokens  TokenProvider
	dialer  Dialer
	log     *logger.Logger
	metrics *observability.Metrics
	buffer  *TranscriptBuffer

	// ctx is cancelled by Stop; it bounds Start's dial and the receive loop.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	info    meeting.SubscriptionInfo
	conn    Conn
	done    chan struct{}
	stopped bool

	stopOnce sync.Once
}

// NewHandler creates an Inactive handler for info.
func NewHandler(info meeting.SubscriptionInfo, tokens TokenProvider, dialer Dialer, opts ...Option) *Handler {
	o := options{log: logger.GetGlobalLogger(), capacity: DefaultBufferCapacity}
	for _, opt := range opts {
		opt(&o)
	}
	info.Status = meeting.StatusInactive
	ctx, cancel := context.WithCancel(context.Background())
	return &Handler{
		tokens:  tokens,
		dialer:  dialer,
		log:     o.log.WithComponent("streaming").WithFields(logger.SubscriptionFields(info.ID, info.MeetingURL)),
		metrics: o.metrics,
		buffer:  NewTranscriptBuffer(o.capacity),
		ctx:     ctx,
		cancel:  cancel,
		info:    info,
	}
}

// ID returns the subscription id.
func (h *Handler) ID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.info.ID
}

// Info returns a copy of the subscription info.
func (h *Handler) Info() meeting.SubscriptionInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.info
}

// Status returns the current status.
func (h *Handler) Status() meeting.Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.info.Status
}

// Snapshot returns a copy of the info and buffered transcripts.
func (h *Handler) Snapshot() meeting.SubscriptionDetails {
	return meeting.SubscriptionDetails{
		Info:        h.Info(),
		Transcripts: h.buffer.Items(),
	}
}

// Start marks the subscription Active, opens the stream and launches the
// receive loop. A failure to open moves the handler to Error and is
// returned; it is not retried. Stop during Start aborts the dial.
func (h *Handler) Start(ctx context.Context, streamURL string) error {
	h.mu.Lock()
	if h.stopped || h.info.Status != meeting.StatusInactive {
		status := h.info.Status
		h.mu.Unlock()
		return apperrors.Validation("handler cannot start from status " + status.String())
	}
	h.info.Status = meeting.StatusActive
	h.info.StreamURL = streamURL
	h.mu.Unlock()

	dialCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	unlink := context.AfterFunc(h.ctx, cancel)
	defer unlink()

	token, err := h.tokens.GetBearerToken(dialCtx, true)
	if err != nil {
		h.failStart(err)
		return err
	}

	conn, err := h.dialer.Dial(dialCtx, streamURL, token)
	if err != nil {
		h.failStart(err)
		return apperrors.Transport("connect", err)
	}

	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		_ = conn.Close()
		return apperrors.Transport("connect", errStopped)
	}
	h.conn = conn
	h.done = make(chan struct{})
	done := h.done
	h.mu.Unlock()

	h.metrics.RecordStreamOpened(ctx)
	h.log.Info("Connected to transcript stream", logger.Fields(logger.FieldStreamURL, streamURL))
	go h.receive(conn, done)
	return nil
}

func (h *Handler) failStart(err error) {
	h.log.Error("Failed to start streaming", logger.ErrorFields("start", err))
	h.metrics.RecordStreamFailed(context.Background(), observability.ReasonDialFailed)
	h.transition(meeting.StatusError)
}

// Stop cancels the receive loop, closes the stream, waits for the loop to
// exit and marks the subscription Expired. A handler already in Error keeps
// that status. Stop is idempotent and safe before Start.
func (h *Handler) Stop() {
	h.stopOnce.Do(func() {
		h.mu.Lock()
		h.stopped = true
		conn, done := h.conn, h.done
		h.mu.Unlock()

		h.cancel()
		if conn != nil {
			if err := conn.Close(); err != nil {
				h.log.Debug("Stream close failed", logger.ErrorFields("close", err))
			}
		}
		if done != nil {
			<-done
		}
		h.transition(meeting.StatusExpired)
		h.log.Info("Stopped streaming")
	})
}

// Close releases the handler. It performs Stop if still running.
func (h *Handler) Close() error {
	h.Stop()
	return nil
}

func (h *Handler) receive(conn Conn, done chan struct{}) {
	defer close(done)

	reason := observability.ReasonStopped
	defer func() { h.metrics.RecordStreamClosed(context.Background(), reason) }()

	for {
		frame, err := conn.ReadFrame()
		if err != nil {
			if h.ctx.Err() != nil {
				h.log.Debug("Streaming cancelled")
				return
			}
			reason = observability.ReasonTransport
			h.log.Error("Stream transport error", logger.ErrorFields("receive", err))
			h.transition(meeting.StatusError)
			_ = conn.Close()
			return
		}

		switch frame.Kind {
		case FrameText:
			h.handleMessage(frame.Data)
		case FrameClose:
			reason = observability.ReasonRemoteClose
			h.log.Info("Stream closed by remote")
			h.transition(meeting.StatusExpired)
			_ = conn.Close()
			return
		default:
			h.metrics.RecordDroppedFrame(h.ctx)
			h.log.Debug("Ignoring non-text frame", logger.Fields("bytes", len(frame.Data)))
		}
	}
}

func (h *Handler) handleMessage(data []byte) {
	var msg meeting.TranscriptMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.metrics.RecordDroppedFrame(h.ctx)
		h.log.Warn("Dropping malformed transcript frame", logger.ErrorFields("decode", err))
		return
	}
	if msg.LiveCaptionDataV2 == nil || msg.LiveCaptionDataV2.TranscriptData == nil {
		h.metrics.RecordDroppedFrame(h.ctx)
		h.log.Debug("Dropping frame without transcript data", logger.Fields("kind", msg.Kind))
		return
	}

	h.buffer.Append(*msg.LiveCaptionDataV2.TranscriptData)
	h.metrics.RecordTranscript(h.ctx)
	h.log.Debug("Buffered transcript", logger.Fields("buffer_size", h.buffer.Len()))
}

// transition applies to if allowed from the current status.
func (h *Handler) transition(to meeting.Status) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range allowed[h.info.Status] {
		if s == to {
			h.info.Status = to
			return true
		}
	}
	return false
}
