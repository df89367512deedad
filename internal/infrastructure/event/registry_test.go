package event

import (
	"context"
	"testing"

	"github.com/leadpipe/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

type noopHandler struct {
	types []string
}

func (h *noopHandler) Handle(ctx context.Context, event shared.DomainEvent) error { return nil }
func (h *noopHandler) EventTypes() []string                                       { return h.types }

func TestRegistryRegisterAndGet(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := &noopHandler{}

	registry.Register(handler, "A", "B")

	assert.Len(t, registry.GetHandlers("A"), 1)
	assert.Len(t, registry.GetHandlers("B"), 1)
	assert.Empty(t, registry.GetHandlers("C"))
}

func TestRegistryWildcardReceivesEverything(t *testing.T) {
	registry := NewHandlerRegistry()
	wildcard := &noopHandler{}
	typed := &noopHandler{}

	registry.Register(wildcard)
	registry.Register(typed, "A")

	assert.Len(t, registry.GetHandlers("A"), 2)
	assert.Len(t, registry.GetHandlers("anything"), 1)
}

func TestRegistryUnregister(t *testing.T) {
	registry := NewHandlerRegistry()
	first := &noopHandler{}
	second := &noopHandler{}

	registry.Register(first, "A")
	registry.Register(second, "A")
	registry.Register(first) // also wildcard

	registry.Unregister(first)

	handlers := registry.GetHandlers("A")
	assert.Len(t, handlers, 1)
	assert.Empty(t, registry.GetHandlers("other"))
}
