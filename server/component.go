package server

import (
	"context"

	"github.com/kbukum/transcriptfeed/component"
)

const componentName = "http-server"

var _ component.Component = (*Server)(nil)

// Name returns the component name used for registration.
func (s *Server) Name() string { return componentName }

// Health reports whether the listener is bound.
func (s *Server) Health(ctx context.Context) component.Health {
	if s.listening() {
		return component.Health{Name: componentName, Status: component.StatusHealthy}
	}
	return component.Health{
		Name:    componentName,
		Status:  component.StatusUnhealthy,
		Message: "not listening",
	}
}
