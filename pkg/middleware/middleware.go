// Package middleware holds the HTTP middleware shared by modules: request
// logging, CORS, body limits and request observation.
package middleware

import "net/http"

// Stack is an ordered list of middleware. The first added runs outermost.
type Stack struct {
	layers []func(http.Handler) http.Handler
}

// New creates an empty Stack.
func New() *Stack {
	return &Stack{}
}

// Use appends mw to the stack.
func (s *Stack) Use(mw func(http.Handler) http.Handler) {
	s.layers = append(s.layers, mw)
}

// Len returns the number of layers.
func (s *Stack) Len() int {
	return len(s.layers)
}

// Apply wraps handler with every layer.
func (s *Stack) Apply(handler http.Handler) http.Handler {
	for i := len(s.layers) - 1; i >= 0; i-- {
		handler = s.layers[i](handler)
	}
	return handler
}
