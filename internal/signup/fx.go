package signup

import (
	"github.com/smallbiznis/affina/internal/signup/service"
	"go.uber.org/fx"
)

var Module = fx.Module("signup.service",
	fx.Provide(service.New),
)
