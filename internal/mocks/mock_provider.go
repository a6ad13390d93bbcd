package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/davidbz/ember/internal/domain"
)

// MockProvider is a mock type for the domain.Provider interface.
type MockProvider struct {
	mock.Mock
}

// MockProvider_Expecter builds typed expectations for MockProvider.
type MockProvider_Expecter struct {
	mock *mock.Mock
}

// EXPECT returns the typed expectation builder.
func (_m *MockProvider) EXPECT() *MockProvider_Expecter {
	return &MockProvider_Expecter{mock: &_m.Mock}
}

// Send provides a mock function with given fields: ctx, payload.
func (_m *MockProvider) Send(ctx context.Context, payload *domain.WirePayload) (*domain.WireResponse, error) {
	ret := _m.Called(ctx, payload)

	if len(ret) == 0 {
		panic("no return value specified for Send")
	}

	if rf, ok := ret.Get(0).(func(context.Context, *domain.WirePayload) (*domain.WireResponse, error)); ok {
		return rf(ctx, payload)
	}

	var r0 *domain.WireResponse
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.WireResponse)
	}

	return r0, ret.Error(1)
}

// MockProvider_Send_Call wraps a Send expectation.
type MockProvider_Send_Call struct {
	*mock.Call
}

// Send is a helper method to define mock.On call.
func (_e *MockProvider_Expecter) Send(ctx interface{}, payload interface{}) *MockProvider_Send_Call {
	return &MockProvider_Send_Call{Call: _e.mock.On("Send", ctx, payload)}
}

func (_c *MockProvider_Send_Call) Run(run func(ctx context.Context, payload *domain.WirePayload)) *MockProvider_Send_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(*domain.WirePayload))
	})
	return _c
}

func (_c *MockProvider_Send_Call) Return(resp *domain.WireResponse, err error) *MockProvider_Send_Call {
	_c.Call.Return(resp, err)
	return _c
}

func (_c *MockProvider_Send_Call) RunAndReturn(
	run func(context.Context, *domain.WirePayload) (*domain.WireResponse, error),
) *MockProvider_Send_Call {
	_c.Call.Return(run)
	return _c
}

// Stream provides a mock function with given fields: ctx, payload.
func (_m *MockProvider) Stream(ctx context.Context, payload *domain.WirePayload) (domain.EventStream, error) {
	ret := _m.Called(ctx, payload)

	if len(ret) == 0 {
		panic("no return value specified for Stream")
	}

	if rf, ok := ret.Get(0).(func(context.Context, *domain.WirePayload) (domain.EventStream, error)); ok {
		return rf(ctx, payload)
	}

	var r0 domain.EventStream
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(domain.EventStream)
	}

	return r0, ret.Error(1)
}

// MockProvider_Stream_Call wraps a Stream expectation.
type MockProvider_Stream_Call struct {
	*mock.Call
}

// Stream is a helper method to define mock.On call.
func (_e *MockProvider_Expecter) Stream(ctx interface{}, payload interface{}) *MockProvider_Stream_Call {
	return &MockProvider_Stream_Call{Call: _e.mock.On("Stream", ctx, payload)}
}

func (_c *MockProvider_Stream_Call) Run(run func(ctx context.Context, payload *domain.WirePayload)) *MockProvider_Stream_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(*domain.WirePayload))
	})
	return _c
}

func (_c *MockProvider_Stream_Call) Return(stream domain.EventStream, err error) *MockProvider_Stream_Call {
	_c.Call.Return(stream, err)
	return _c
}

func (_c *MockProvider_Stream_Call) RunAndReturn(
	run func(context.Context, *domain.WirePayload) (domain.EventStream, error),
) *MockProvider_Stream_Call {
	_c.Call.Return(run)
	return _c
}

// Name provides a mock function with no fields.
func (_m *MockProvider) Name() string {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Name")
	}

	return ret.String(0)
}

// MockProvider_Name_Call wraps a Name expectation.
type MockProvider_Name_Call struct {
	*mock.Call
}

// Name is a helper method to define mock.On call.
func (_e *MockProvider_Expecter) Name() *MockProvider_Name_Call {
	return &MockProvider_Name_Call{Call: _e.mock.On("Name")}
}

func (_c *MockProvider_Name_Call) Return(name string) *MockProvider_Name_Call {
	_c.Call.Return(name)
	return _c
}

// IsModelSupported provides a mock function with given fields: ctx, model.
func (_m *MockProvider) IsModelSupported(ctx context.Context, model string) bool {
	ret := _m.Called(ctx, model)

	if len(ret) == 0 {
		panic("no return value specified for IsModelSupported")
	}

	return ret.Bool(0)
}

// MockProvider_IsModelSupported_Call wraps an IsModelSupported expectation.
type MockProvider_IsModelSupported_Call struct {
	*mock.Call
}

// IsModelSupported is a helper method to define mock.On call.
func (_e *MockProvider_Expecter) IsModelSupported(ctx interface{}, model interface{}) *MockProvider_IsModelSupported_Call {
	return &MockProvider_IsModelSupported_Call{Call: _e.mock.On("IsModelSupported", ctx, model)}
}

func (_c *MockProvider_IsModelSupported_Call) Return(supported bool) *MockProvider_IsModelSupported_Call {
	_c.Call.Return(supported)
	return _c
}

// SupportedModels provides a mock function with given fields: ctx.
func (_m *MockProvider) SupportedModels(ctx context.Context) []string {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for SupportedModels")
	}

	var r0 []string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]string)
	}

	return r0
}

// MockProvider_SupportedModels_Call wraps a SupportedModels expectation.
type MockProvider_SupportedModels_Call struct {
	*mock.Call
}

// SupportedModels is a helper method to define mock.On call.
func (_e *MockProvider_Expecter) SupportedModels(ctx interface{}) *MockProvider_SupportedModels_Call {
	return &MockProvider_SupportedModels_Call{Call: _e.mock.On("SupportedModels", ctx)}
}

func (_c *MockProvider_SupportedModels_Call) Return(models []string) *MockProvider_SupportedModels_Call {
	_c.Call.Return(models)
	return _c
}

// NewMockProvider creates a new instance of MockProvider. It also registers a testing interface on the mock
// and a cleanup function to assert the mocks expectations.
func NewMockProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockProvider {
	m := &MockProvider{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
