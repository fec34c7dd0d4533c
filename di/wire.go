//go:build wireinject
// +build wireinject

package di

import (
	"medibook/config"
	"medibook/infras/jwt"
	"medibook/infras/kafka"
	"medibook/infras/otel"
	"medibook/infras/postgres"
	"medibook/infras/redis"
	"medibook/permissions"
	"medibook/shared/cache"
	"medibook/transport/http"
	"medibook/transport/http/middleware"
	"medibook/transport/http/router"

	appointmentRepository "medibook/internal/domains/appointment/repository"
	appointmentService "medibook/internal/domains/appointment/service"
	doctorRepository "medibook/internal/domains/doctor/repository"
	doctorService "medibook/internal/domains/doctor/service"
	queueService "medibook/internal/domains/queue/service"
	queueStore "medibook/internal/domains/queue/store"
	scheduleService "medibook/internal/domains/schedule/service"

	appointmentHandler "medibook/internal/handlers/appointment"
	doctorHandler "medibook/internal/handlers/doctor"
	queueHandler "medibook/internal/handlers/queue"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var doctorDomain = wire.NewSet(
	doctorRepository.NewDoctor,
	doctorRepository.NewLocation,
	doctorRepository.NewWindow,
	doctorService.New,
)

var scheduleDomain = wire.NewSet(
	scheduleService.New,
)

var appointmentDomain = wire.NewSet(
	appointmentRepository.New,
	appointmentService.New,
)

var queueDomain = wire.NewSet(
	queueStore.New,
	queueService.New,
)

var domains = wire.NewSet(
	doctorDomain,
	scheduleDomain,
	appointmentDomain,
	queueDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	doctorHandler.New,
	appointmentHandler.New,
	queueHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}
