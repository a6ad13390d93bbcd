package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/davidbz/ember/internal/domain"
)

// MockCompleter is a mock type for the domain.Completer interface.
type MockCompleter struct {
	mock.Mock
}

// MockCompleter_Expecter builds typed expectations for MockCompleter.
type MockCompleter_Expecter struct {
	mock *mock.Mock
}

// EXPECT returns the typed expectation builder.
func (_m *MockCompleter) EXPECT() *MockCompleter_Expecter {
	return &MockCompleter_Expecter{mock: &_m.Mock}
}

// Complete provides a mock function with given fields: ctx, req.
func (_m *MockCompleter) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResult, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for Complete")
	}

	if rf, ok := ret.Get(0).(func(context.Context, *domain.CompletionRequest) (*domain.CompletionResult, error)); ok {
		return rf(ctx, req)
	}

	var r0 *domain.CompletionResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.CompletionResult)
	}

	return r0, ret.Error(1)
}

// MockCompleter_Complete_Call wraps a Complete expectation.
type MockCompleter_Complete_Call struct {
	*mock.Call
}

// Complete is a helper method to define mock.On call.
func (_e *MockCompleter_Expecter) Complete(ctx interface{}, req interface{}) *MockCompleter_Complete_Call {
	return &MockCompleter_Complete_Call{Call: _e.mock.On("Complete", ctx, req)}
}

func (_c *MockCompleter_Complete_Call) Run(
	run func(ctx context.Context, req *domain.CompletionRequest),
) *MockCompleter_Complete_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(*domain.CompletionRequest))
	})
	return _c
}

func (_c *MockCompleter_Complete_Call) Return(
	result *domain.CompletionResult,
	err error,
) *MockCompleter_Complete_Call {
	_c.Call.Return(result, err)
	return _c
}

func (_c *MockCompleter_Complete_Call) RunAndReturn(
	run func(context.Context, *domain.CompletionRequest) (*domain.CompletionResult, error),
) *MockCompleter_Complete_Call {
	_c.Call.Return(run)
	return _c
}

// NewMockCompleter creates a new instance of MockCompleter. It also registers a testing interface on the mock
// and a cleanup function to assert the mocks expectations.
func NewMockCompleter(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCompleter {
	m := &MockCompleter{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
