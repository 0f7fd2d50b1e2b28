package notify

import (
	"context"
	"errors"
	"fmt"

	"eadshop_back_end/internal/models"
)

// Channel est un canal de notification nommé
type Channel interface {
	Name() string
	Send(ctx context.Context, customerEmail string, order *models.Order) error
}

// Multi diffuse sur tous les canaux, un échec n'arrête pas les suivants
type Multi struct {
	channels []Channel
}

func NewMulti(channels ...Channel) *Multi {
	m := &Multi{}
	for _, c := range channels {
		if c != nil {
			m.channels = append(m.channels, c)
		}
	}
	return m
}

func (m *Multi) Channels() []string {
	names := make([]string, 0, len(m.channels))
	for _, c := range m.channels {
		names = append(names, c.Name())
	}
	return names
}

func (m *Multi) Send(ctx context.Context, customerEmail string, order *models.Order) error {
	var errs []error
	for _, c := range m.channels {
		if err := c.Send(ctx, customerEmail, order); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
		}
	}
	return errors.Join(errs...)
}
