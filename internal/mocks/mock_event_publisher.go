package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockEventPublisher is a mock type for the domain.EventPublisher interface.
type MockEventPublisher struct {
	mock.Mock
}

// MockEventPublisher_Expecter builds typed expectations for MockEventPublisher.
type MockEventPublisher_Expecter struct {
	mock *mock.Mock
}

// EXPECT returns the typed expectation builder.
func (_m *MockEventPublisher) EXPECT() *MockEventPublisher_Expecter {
	return &MockEventPublisher_Expecter{mock: &_m.Mock}
}

// Publish provides a mock function with given fields: ctx, eventType, data.
func (_m *MockEventPublisher) Publish(ctx context.Context, eventType string, data map[string]interface{}) {
	_m.Called(ctx, eventType, data)
}

// MockEventPublisher_Publish_Call wraps a Publish expectation.
type MockEventPublisher_Publish_Call struct {
	*mock.Call
}

// Publish is a helper method to define mock.On call.
func (_e *MockEventPublisher_Expecter) Publish(
	ctx interface{},
	eventType interface{},
	data interface{},
) *MockEventPublisher_Publish_Call {
	return &MockEventPublisher_Publish_Call{Call: _e.mock.On("Publish", ctx, eventType, data)}
}

func (_c *MockEventPublisher_Publish_Call) Run(
	run func(ctx context.Context, eventType string, data map[string]interface{}),
) *MockEventPublisher_Publish_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(string), args[2].(map[string]interface{}))
	})
	return _c
}

func (_c *MockEventPublisher_Publish_Call) Return() *MockEventPublisher_Publish_Call {
	_c.Call.Return()
	return _c
}

// NewMockEventPublisher creates a new instance of MockEventPublisher. It also registers a testing interface
// on the mock and a cleanup function to assert the mocks expectations.
func NewMockEventPublisher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockEventPublisher {
	m := &MockEventPublisher{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
