// Package api exposes the subscription registry, the webhook receiver and
// the in-memory log store over HTTP.
//
//	GET    /api/subscriptions
//	POST   /api/subscriptions                    {"meetingUrl": "..."}
//	GET    /api/subscriptions/:id
//	GET    /api/subscriptions/:id/transcripts
//	DELETE /api/subscriptions/:id
//	POST   /api/subscriptions/:id/unsubscribe
//	GET    /api/event-subscriptions
//	POST   /api/event-subscriptions              {"organizerId": "...", "expirationDateTime": "..."}
//	GET    /api/event-subscriptions/:id
//	DELETE /api/event-subscriptions/:id
//	POST   /api/notification/meetingEvents
//	GET    /api/logs?count=&minLevel=&component=
//	DELETE /api/logs
//
// Successful bodies are wrapped in {"data": ...}; failures use the AppError
// body {"error": {...}}.
package api
