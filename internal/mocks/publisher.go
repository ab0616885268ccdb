package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"skillscape-chat/internal/broker"
)

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, env broker.Envelope) error {
	args := m.Called(ctx, routingKey, env)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ broker.Publisher = (*PublisherMock)(nil)
