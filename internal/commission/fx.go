package commission

import (
	"github.com/smallbiznis/affina/internal/commission/repository"
	"github.com/smallbiznis/affina/internal/commission/service"
	"go.uber.org/fx"
)

var Module = fx.Module("commission.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
