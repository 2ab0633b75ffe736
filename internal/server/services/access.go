package services

import (
	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/portal"
)

// EventPublisher is satisfied by *pubsub.Broker[portal.Event].
type EventPublisher interface {
	Publish(topic string, ev portal.Event) int
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, portal.Event) int { return 0 }

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

func isAdmin(actor *portal.Session) bool {
	return actor != nil && actor.Role == common.RoleSuperAdmin
}

func requireUser(actor *portal.Session) error {
	if actor == nil || actor.UserID == "" {
		return common.ErrorUnauthorized
	}
	return nil
}

func requireAdmin(actor *portal.Session) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if !isAdmin(actor) {
		return common.ErrorForbidden
	}
	return nil
}
