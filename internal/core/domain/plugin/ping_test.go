package plugin

import (
	"errors"
	"testing"
	"wabot/internal/core/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPing_Execute(t *testing.T) {
	mockSender := new(MockSender)
	mockSender.On("SendText", mock.Anything, "123@s.whatsapp.net", "pong 🏓").Return(nil).Once()

	err := NewPing().Execute(t.Context(), &port.Invocation{Sender: mockSender, ChatID: "123@s.whatsapp.net"})

	require.NoError(t, err)
	mockSender.AssertExpectations(t)
}

func TestPing_ExecuteSendFails(t *testing.T) {
	mockSender := new(MockSender)
	mockSender.On("SendText", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("offline"))

	err := NewPing().Execute(t.Context(), &port.Invocation{Sender: mockSender, ChatID: "1"})

	require.Error(t, err)
	assert.ErrorContains(t, err, "offline")
}

func TestHelp_Execute(t *testing.T) {
	r, _ := Load([]Unit{
		Static(NewPing()),
		Static(Descriptor{Command: "Silent", Handler: noop}),
	})

	mockSender := new(MockSender)
	mockSender.On("SendText", mock.Anything, "chat", "Available commands:\n\n!ping - Replies with pong\n!silent").
		Return(nil).Once()

	help := NewHelp("!", r.List)
	err := help.Execute(t.Context(), &port.Invocation{Sender: mockSender, ChatID: "chat"})

	require.NoError(t, err)
	mockSender.AssertExpectations(t)
}

func TestHelp_ExecuteWithoutList(t *testing.T) {
	mockSender := new(MockSender)
	mockSender.On("SendText", mock.Anything, "chat", "Available commands:\n").Return(nil).Once()

	err := NewHelp("!", nil).Execute(t.Context(), &port.Invocation{Sender: mockSender, ChatID: "chat"})

	require.NoError(t, err)
	mockSender.AssertExpectations(t)
}
