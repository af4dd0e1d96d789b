package handler

import (
	"context"

	clinicdomain "clinic-app-go/internal/domain/clinic"
	userdomain "clinic-app-go/internal/domain/user"
	"clinic-app-go/internal/session"
	"clinic-app-go/internal/transport/httpserver/view"
	"clinic-app-go/pkg/logger"
)

// Pinger reports whether the database answers.
type Pinger func(ctx context.Context) error

type Handlers struct {
	Users    *userdomain.Service
	Clinic   *clinicdomain.Service
	sessions *session.Manager
	views    *view.Renderer
	ping     Pinger
	log      logger.Logger
}

func New(users *userdomain.Service, clinic *clinicdomain.Service, sessions *session.Manager, views *view.Renderer, ping Pinger, log logger.Logger) *Handlers {
	return &Handlers{
		Users:    users,
		Clinic:   clinic,
		sessions: sessions,
		views:    views,
		ping:     ping,
		log:      log,
	}
}
