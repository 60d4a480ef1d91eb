package donation

import (
	"github.com/dunamis-edu/dunamis/internal/donation/repository"
	"github.com/dunamis-edu/dunamis/internal/donation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("donation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
