// Package mocks provides gomock-generated-style test doubles for
// wpactrl's collaborator interfaces, following the same hand-written
// layout mockgen produces (and the shape v2/snmp/mocks.MockPacketConn
// takes in the teacher).
package mocks

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"
)

// MockInterfaceConfigurator is a mock of the InterfaceConfigurator interface.
type MockInterfaceConfigurator struct {
	ctrl     *gomock.Controller
	recorder *MockInterfaceConfiguratorMockRecorder
}

// MockInterfaceConfiguratorMockRecorder is the mock recorder for MockInterfaceConfigurator.
type MockInterfaceConfiguratorMockRecorder struct {
	mock *MockInterfaceConfigurator
}

// NewMockInterfaceConfigurator creates a new mock instance.
func NewMockInterfaceConfigurator(ctrl *gomock.Controller) *MockInterfaceConfigurator {
	mock := &MockInterfaceConfigurator{ctrl: ctrl}
	mock.recorder = &MockInterfaceConfiguratorMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockInterfaceConfigurator) EXPECT() *MockInterfaceConfiguratorMockRecorder {
	return m.recorder
}

// Configure mocks base method.
func (m *MockInterfaceConfigurator) Configure(ctx context.Context, iface, cidr string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Configure", ctx, iface, cidr)
	ret0, _ := ret[0].(error)
	return ret0
}

// Configure indicates an expected call of Configure.
func (mr *MockInterfaceConfiguratorMockRecorder) Configure(ctx, iface, cidr interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Configure",
		reflect.TypeOf((*MockInterfaceConfigurator)(nil).Configure), ctx, iface, cidr)
}

// MockLeaseAcquirer is a mock of the LeaseAcquirer interface.
type MockLeaseAcquirer struct {
	ctrl     *gomock.Controller
	recorder *MockLeaseAcquirerMockRecorder
}

// MockLeaseAcquirerMockRecorder is the mock recorder for MockLeaseAcquirer.
type MockLeaseAcquirerMockRecorder struct {
	mock *MockLeaseAcquirer
}

// NewMockLeaseAcquirer creates a new mock instance.
func NewMockLeaseAcquirer(ctrl *gomock.Controller) *MockLeaseAcquirer {
	mock := &MockLeaseAcquirer{ctrl: ctrl}
	mock.recorder = &MockLeaseAcquirerMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockLeaseAcquirer) EXPECT() *MockLeaseAcquirerMockRecorder {
	return m.recorder
}

// Acquire mocks base method.
func (m *MockLeaseAcquirer) Acquire(ctx context.Context, iface string) (string, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Acquire", ctx, iface)
	ret0, _ := ret[0].(string)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Acquire indicates an expected call of Acquire.
func (mr *MockLeaseAcquirerMockRecorder) Acquire(ctx, iface interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Acquire",
		reflect.TypeOf((*MockLeaseAcquirer)(nil).Acquire), ctx, iface)
}
