package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/inventree/backend/internal/domain/shared"
	"github.com/inventree/backend/internal/infrastructure/cache"
)

// MockEventHandler is a mock implementation of shared.EventHandler
type MockEventHandler struct {
	mock.Mock
}

func (m *MockEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventHandler) EventTypes() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

func TestIdempotentHandler_Handle_NewEvent(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	mockHandler := new(MockEventHandler)
	event := newTestEvent("salesorder.issued")
	mockHandler.On("Handle", mock.Anything, event).Return(nil)

	handler := NewIdempotentHandler(NotificationHandlerName, mockHandler, store, zap.NewNop())

	require.NoError(t, handler.Handle(context.Background(), event))
	mockHandler.AssertExpectations(t)
	assert.Equal(t, int64(1), handler.GetMetrics().EventsProcessed.Load())

	processed, err := store.IsProcessed(context.Background(), "notification:"+event.EventID().String())
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestIdempotentHandler_Handle_DuplicateEvent(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	mockHandler := new(MockEventHandler)
	event := newTestEvent("salesorder.issued")
	mockHandler.On("Handle", mock.Anything, event).Return(nil).Once()

	handler := NewIdempotentHandler(NotificationHandlerName, mockHandler, store, zap.NewNop())

	for range 3 {
		require.NoError(t, handler.Handle(context.Background(), event))
	}

	mockHandler.AssertExpectations(t)
	stats := handler.GetMetrics().Stats()
	assert.Equal(t, int64(1), stats.EventsProcessed)
	assert.Equal(t, int64(2), stats.EventsDuplicate)
}

func TestIdempotentHandler_ScopesDoNotCollide(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	event := newTestEvent("salesorder.issued")
	notify := new(MockEventHandler)
	notify.On("Handle", mock.Anything, event).Return(nil).Once()
	plugin := new(MockEventHandler)
	plugin.On("Handle", mock.Anything, event).Return(nil).Once()

	a := NewIdempotentHandler(NotificationHandlerName, notify, store, zap.NewNop())
	b := NewIdempotentHandler(PluginHandlerName, plugin, store, zap.NewNop())

	require.NoError(t, a.Handle(context.Background(), event))
	require.NoError(t, b.Handle(context.Background(), event))

	notify.AssertExpectations(t)
	plugin.AssertExpectations(t)
}

func TestIdempotentHandler_Handle_HandlerError(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	mockHandler := new(MockEventHandler)
	event := newTestEvent("salesorder.issued")
	expectedErr := errors.New("handler error")
	mockHandler.On("Handle", mock.Anything, event).Return(expectedErr).Once()

	handler := NewIdempotentHandler(NotificationHandlerName, mockHandler, store, zap.NewNop())

	err := handler.Handle(context.Background(), event)
	assert.ErrorIs(t, err, expectedErr)
	assert.Equal(t, int64(1), handler.GetMetrics().EventsFailed.Load())

	// key stays marked until TTL
	require.NoError(t, handler.Handle(context.Background(), event))
	mockHandler.AssertExpectations(t)
}

func TestIdempotentHandler_Handle_StoreError(t *testing.T) {
	store := new(MockIdempotencyStore)
	mockHandler := new(MockEventHandler)
	event := newTestEvent("salesorder.issued")

	store.On("MarkProcessed", mock.Anything, "plugin:"+event.EventID().String(), 24*time.Hour).
		Return(false, errors.New("redis down"))
	mockHandler.On("Handle", mock.Anything, event).Return(nil)

	handler := NewIdempotentHandler(PluginHandlerName, mockHandler, store, zap.NewNop())

	require.NoError(t, handler.Handle(context.Background(), event))
	store.AssertExpectations(t)
	mockHandler.AssertExpectations(t)
}

func TestIdempotentHandler_Handle_Disabled(t *testing.T) {
	store := new(MockIdempotencyStore)
	mockHandler := new(MockEventHandler)
	event := newTestEvent("salesorder.issued")
	mockHandler.On("Handle", mock.Anything, event).Return(nil).Twice()

	handler := NewIdempotentHandler(PluginHandlerName, mockHandler, store, zap.NewNop(),
		WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: false}))

	require.NoError(t, handler.Handle(context.Background(), event))
	require.NoError(t, handler.Handle(context.Background(), event))

	mockHandler.AssertExpectations(t)
	store.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
}

func TestIdempotentHandler_CustomTTLAndSharedMetrics(t *testing.T) {
	store := new(MockIdempotencyStore)
	metrics := &IdempotencyMetrics{}
	event := newTestEvent("salesorder.issued")

	store.On("MarkProcessed", mock.Anything, mock.Anything, time.Hour).Return(true, nil)
	h1 := new(MockEventHandler)
	h1.On("Handle", mock.Anything, event).Return(nil)
	h2 := new(MockEventHandler)
	h2.On("Handle", mock.Anything, event).Return(nil)
	h2.On("EventTypes").Return([]string{"salesorder.issued"})

	cfg := WithIdempotencyConfig(shared.IdempotencyConfig{TTL: time.Hour, Enabled: true})
	a := NewIdempotentHandler("a", h1, store, zap.NewNop(), cfg, WithIdempotencyMetrics(metrics))
	b := NewIdempotentHandler("b", h2, store, zap.NewNop(), cfg, WithIdempotencyMetrics(metrics))

	require.NoError(t, a.Handle(context.Background(), event))
	require.NoError(t, b.Handle(context.Background(), event))

	assert.Equal(t, int64(2), metrics.Stats().EventsProcessed)
	assert.Equal(t, []string{"salesorder.issued"}, b.EventTypes())
	assert.Same(t, h2, b.Unwrap())
}

func TestIdempotentHandler_ConcurrentDuplicates(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	mockHandler := new(MockEventHandler)
	event := newTestEvent("salesorder.issued")
	mockHandler.On("Handle", mock.Anything, event).Return(nil).Once()

	handler := NewIdempotentHandler(NotificationHandlerName, mockHandler, store, zap.NewNop())

	const numGoroutines = 50
	errChan := make(chan error, numGoroutines)
	for range numGoroutines {
		go func() {
			errChan <- handler.Handle(context.Background(), event)
		}()
	}
	for range numGoroutines {
		assert.NoError(t, <-errChan)
	}

	mockHandler.AssertExpectations(t)
	assert.Equal(t, int64(numGoroutines-1), handler.GetMetrics().EventsDuplicate.Load())
}
