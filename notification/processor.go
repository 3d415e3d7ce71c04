package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/transcriptfeed/component"
	apperrors "github.com/kbukum/transcriptfeed/errors"
	"github.com/kbukum/transcriptfeed/logger"
	"github.com/kbukum/transcriptfeed/meeting"
	"github.com/kbukum/transcriptfeed/observability"
	"github.com/kbukum/transcriptfeed/security"
)

// CertificateSource supplies the certificate that unwraps notification keys.
type CertificateSource interface {
	Certificate() (*security.Certificate, error)
}

// Subscriber starts a transcript subscription for a meeting.
type Subscriber interface {
	AddSubscription(ctx context.Context, meetingURL string) (meeting.SubscriptionInfo, error)
}

// Processor decrypts webhook batches and acts on the events they carry.
type Processor struct {
	certs      CertificateSource
	subscriber Subscriber
	log        *logger.Logger
	metrics    *observability.Metrics
	inflight   sync.WaitGroup
}

var _ component.Component = (*Processor)(nil)

// NewProcessor creates a Processor. metrics may be nil.
func NewProcessor(certs CertificateSource, subscriber Subscriber, log *logger.Logger, metrics *observability.Metrics) *Processor {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Processor{
		certs:      certs,
		subscriber: subscriber,
		log:        log.WithComponent("notifications"),
		metrics:    metrics,
	}
}

// Dispatch processes raw in the background and returns immediately. The
// request's values, such as its id, are kept but its cancellation is not.
// Errors end up in the log only.
func (p *Processor) Dispatch(ctx context.Context, raw []byte) {
	ctx = context.WithoutCancel(ctx)
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				p.log.WithContext(ctx).Error("Panic while processing notification", logger.Fields(logger.FieldError, fmt.Sprint(r)))
			}
		}()
		if err := p.Process(ctx, raw); err != nil {
			p.log.WithContext(ctx).Error("Notification processing failed", logger.ErrorFields("process", err))
		}
	}()
}

// Wait blocks until every dispatched notification has been processed or
// ctx ends.
func (p *Processor) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return apperrors.Timeout("notification drain")
	}
}

// Process handles one webhook body synchronously.
func (p *Processor) Process(ctx context.Context, raw []byte) (err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanNotificationProcess)
	eventType := ""
	defer func() {
		if err != nil {
			p.metrics.RecordNotification(ctx, observability.ResultFailed, eventType)
		}
		observability.EndSpan(span, err)
	}()

	var batch meeting.NotificationBatch
	if err := json.Unmarshal(raw, &batch); err != nil {
		return apperrors.MalformedPayload(err.Error())
	}
	if len(batch.Value) == 0 {
		return apperrors.MalformedPayload("notification list is empty")
	}
	content := batch.Value[0].EncryptedContent
	if content == nil {
		return apperrors.MalformedPayload("notification has no encrypted content")
	}

	cert, err := p.certs.Certificate()
	if err != nil {
		return apperrors.KeyUnwrap(err)
	}
	plaintext, err := Decrypt(*content, cert)
	if err != nil {
		return err
	}

	var event meeting.MeetingCallEvent
	if err := json.Unmarshal([]byte(plaintext), &event); err != nil {
		return apperrors.MalformedPayload("call event: " + err.Error())
	}
	eventType = string(event.EventType)
	span.SetAttributes(attribute.String(observability.AttrEventType, eventType))

	return p.handleEvent(ctx, span, event)
}

func (p *Processor) handleEvent(ctx context.Context, span trace.Span, event meeting.MeetingCallEvent) error {
	log := p.log.WithContext(ctx).WithFields(logger.Fields(
		logger.FieldEventType, string(event.EventType),
		logger.FieldMeetingURL, event.JoinWebURL,
	))

	switch event.EventType {
	case meeting.TranscriptionStarted:
		info, err := p.subscriber.AddSubscription(ctx, event.JoinWebURL)
		if err != nil {
			return err
		}
		span.SetAttributes(attribute.String(observability.AttrSubscriptionID, info.ID))
		log.Info("Transcription started, subscription added", logger.SubscriptionFields(info.ID, ""))
		p.metrics.RecordNotification(ctx, observability.ResultHandled, string(event.EventType))
		return nil
	case meeting.CallStarted, meeting.CallEnded:
		log.Info("Call event received")
	case meeting.TranscriptionStopped:
		log.Info("Transcription stopped")
	case meeting.RecordingStarted, meeting.RecordingStopped:
		log.Info("Recording event received")
	}
	p.metrics.RecordNotification(ctx, observability.ResultIgnored, string(event.EventType))
	return nil
}

// Name implements component.Component.
func (p *Processor) Name() string { return "notifications" }

// Start implements component.Component.
func (p *Processor) Start(ctx context.Context) error { return nil }

// Stop waits for in-flight notifications.
func (p *Processor) Stop(ctx context.Context) error { return p.Wait(ctx) }

// Health implements component.Component.
func (p *Processor) Health(ctx context.Context) component.Health {
	if _, err := p.certs.Certificate(); err != nil {
		return component.Health{Name: p.Name(), Status: component.StatusDegraded, Message: "decryption certificate unavailable"}
	}
	return component.Health{Name: p.Name(), Status: component.StatusHealthy}
}
