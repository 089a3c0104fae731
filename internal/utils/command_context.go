package utils

import "context"

type invocationContextKey struct{}

// Invocation records where the running command took its settings from.
type Invocation struct {
	ConfigurationFile string
	LogFile           string
}

// CommandContextAccessor stores and retrieves the Invocation on cobra command contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithInvocation attaches the invocation to the provided context.
func (accessor CommandContextAccessor) WithInvocation(parentContext context.Context, invocation Invocation) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, invocationContextKey{}, invocation)
}

// Invocation extracts the invocation attached by WithInvocation.
func (accessor CommandContextAccessor) Invocation(executionContext context.Context) (Invocation, bool) {
	if executionContext == nil {
		return Invocation{}, false
	}
	invocation, available := executionContext.Value(invocationContextKey{}).(Invocation)
	return invocation, available
}
