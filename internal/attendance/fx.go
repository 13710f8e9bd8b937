package attendance

import (
	"go.uber.org/fx"

	"github.com/iosworks/claimdesk/internal/attendance/service"
)

var Module = fx.Module("attendance",
	fx.Provide(service.New),
)
