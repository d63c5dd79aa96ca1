package handlers

import (
	"multires/internal/database"
	"multires/internal/multires"
	"multires/internal/startup"
)

type Handlers struct {
	svc      *multires.Service
	db       *database.Database
	resolver *multires.Resolver
	config   *startup.Config
}

func New(svc *multires.Service, config *startup.Config) *Handlers {
	return &Handlers{
		svc:      svc,
		db:       svc.DB(),
		resolver: svc.Resolver(config.MediaURL),
		config:   config,
	}
}
