// Package validation checks API request input.
//
// Request bodies are validated with struct tags; error details use the json
// field names so clients see the names they sent:
//
//	type createRequest struct {
//	    MeetingURL string `json:"meetingUrl" validate:"required,url"`
//	}
//	if err := validation.Validate(req); err != nil { ... }
//
// Query parameters and path values go through the collecting Validator:
//
//	v := validation.New()
//	v.Range("count", count, 1, 10000)
//	v.OneOf("minLevel", level, levels)
//	if err := v.Validate(); err != nil { ... }
//
// Both return INVALID_INPUT AppErrors with a "fields" detail.
package validation
