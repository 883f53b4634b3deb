package clock_test

import (
	reflect "reflect"

	gomock "go.uber.org/mock/gomock"

	"github.com/procflow/procflow/desim/clock"
)

// MockEvent is a hand-authored stand-in for what `mockgen` would generate
// for clock.Event; mockgen itself is not run as part of this build.
type MockEvent struct {
	ctrl     *gomock.Controller
	recorder *MockEventMockRecorder
}

// MockEventMockRecorder is the EXPECT() recorder for MockEvent.
type MockEventMockRecorder struct {
	mock *MockEvent
}

// NewMockEvent creates a new mock clock.Event.
func NewMockEvent(ctrl *gomock.Controller) *MockEvent {
	m := &MockEvent{ctrl: ctrl}
	m.recorder = &MockEventMockRecorder{mock: m}
	return m
}

// EXPECT returns the recorder used to set up expectations.
func (m *MockEvent) EXPECT() *MockEventMockRecorder {
	return m.recorder
}

// Time mocks the Time method.
func (m *MockEvent) Time() clock.VTime {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Time")
	return ret[0].(clock.VTime)
}

// Time sets an expectation on the Time method.
func (r *MockEventMockRecorder) Time() *gomock.Call {
	return r.mock.ctrl.RecordCallWithMethodType(r.mock, "Time", reflect.TypeOf((*MockEvent)(nil).Time))
}

// Priority mocks the Priority method.
func (m *MockEvent) Priority() int {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Priority")
	return ret[0].(int)
}

// Priority sets an expectation on the Priority method.
func (r *MockEventMockRecorder) Priority() *gomock.Call {
	return r.mock.ctrl.RecordCallWithMethodType(r.mock, "Priority", reflect.TypeOf((*MockEvent)(nil).Priority))
}

// Seq mocks the Seq method.
func (m *MockEvent) Seq() uint64 {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Seq")
	return ret[0].(uint64)
}

// Seq sets an expectation on the Seq method.
func (r *MockEventMockRecorder) Seq() *gomock.Call {
	return r.mock.ctrl.RecordCallWithMethodType(r.mock, "Seq", reflect.TypeOf((*MockEvent)(nil).Seq))
}

// Handler mocks the Handler method.
func (m *MockEvent) Handler() clock.Handler {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Handler")
	h, _ := ret[0].(clock.Handler)
	return h
}

// Handler sets an expectation on the Handler method.
func (r *MockEventMockRecorder) Handler() *gomock.Call {
	return r.mock.ctrl.RecordCallWithMethodType(r.mock, "Handler", reflect.TypeOf((*MockEvent)(nil).Handler))
}

// IsSecondary mocks the IsSecondary method.
func (m *MockEvent) IsSecondary() bool {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "IsSecondary")
	return ret[0].(bool)
}

// IsSecondary sets an expectation on the IsSecondary method.
func (r *MockEventMockRecorder) IsSecondary() *gomock.Call {
	return r.mock.ctrl.RecordCallWithMethodType(r.mock, "IsSecondary", reflect.TypeOf((*MockEvent)(nil).IsSecondary))
}
