package http

import (
	"github.com/fieldforce-api/internal/application/attendance"
	jwtinfra "github.com/fieldforce-api/internal/infrastructure/jwt"
	"github.com/fieldforce-api/internal/pkg/businesstime"
	"github.com/fieldforce-api/internal/transport/http/handler"
)

// Deps holds the wired dependencies the router needs.
type Deps struct {
	Attendance  attendance.Service
	JWTProvider *jwtinfra.Provider
	DB          handler.Pinger
	Zone        businesstime.Zone
}
