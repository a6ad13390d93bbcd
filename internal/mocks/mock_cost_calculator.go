package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/davidbz/ember/internal/domain"
)

// MockCostCalculator is a mock type for the domain.CostCalculator interface.
type MockCostCalculator struct {
	mock.Mock
}

// MockCostCalculator_Expecter builds typed expectations for MockCostCalculator.
type MockCostCalculator_Expecter struct {
	mock *mock.Mock
}

// EXPECT returns the typed expectation builder.
func (_m *MockCostCalculator) EXPECT() *MockCostCalculator_Expecter {
	return &MockCostCalculator_Expecter{mock: &_m.Mock}
}

// Calculate provides a mock function with given fields: ctx, model, usage.
func (_m *MockCostCalculator) Calculate(ctx context.Context, model string, usage domain.TokenUsage) (float64, error) {
	ret := _m.Called(ctx, model, usage)

	if len(ret) == 0 {
		panic("no return value specified for Calculate")
	}

	if rf, ok := ret.Get(0).(func(context.Context, string, domain.TokenUsage) (float64, error)); ok {
		return rf(ctx, model, usage)
	}

	return ret.Get(0).(float64), ret.Error(1)
}

// MockCostCalculator_Calculate_Call wraps a Calculate expectation.
type MockCostCalculator_Calculate_Call struct {
	*mock.Call
}

// Calculate is a helper method to define mock.On call.
func (_e *MockCostCalculator_Expecter) Calculate(
	ctx interface{},
	model interface{},
	usage interface{},
) *MockCostCalculator_Calculate_Call {
	return &MockCostCalculator_Calculate_Call{Call: _e.mock.On("Calculate", ctx, model, usage)}
}

func (_c *MockCostCalculator_Calculate_Call) Return(cost float64, err error) *MockCostCalculator_Calculate_Call {
	_c.Call.Return(cost, err)
	return _c
}

func (_c *MockCostCalculator_Calculate_Call) RunAndReturn(
	run func(context.Context, string, domain.TokenUsage) (float64, error),
) *MockCostCalculator_Calculate_Call {
	_c.Call.Return(run)
	return _c
}

// NewMockCostCalculator creates a new instance of MockCostCalculator. It also registers a testing interface
// on the mock and a cleanup function to assert the mocks expectations.
func NewMockCostCalculator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCostCalculator {
	m := &MockCostCalculator{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
