package commissiontier

import (
	"github.com/smallbiznis/affina/internal/commissiontier/repository"
	"github.com/smallbiznis/affina/internal/commissiontier/service"
	"go.uber.org/fx"
)

var Module = fx.Module("commissiontier.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
