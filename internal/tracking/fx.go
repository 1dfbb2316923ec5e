package tracking

import (
	"github.com/smallbiznis/affina/internal/tracking/repository"
	"github.com/smallbiznis/affina/internal/tracking/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tracking.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
