package testutils

import (
	"github.com/averix/identity/services/mailer"
	"github.com/stretchr/testify/mock"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Dispatch(address string, kind mailer.TemplateKind, code string) {
	m.Called(address, kind, code)
}
