package audit

import (
	"context"

	"go.uber.org/fx"

	"github.com/iosworks/claimdesk/internal/audit/service"
)

var Module = fx.Module("audit",
	fx.Provide(service.NewRecorder),
	fx.Invoke(func(lc fx.Lifecycle, recorder *service.Recorder) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				recorder.Start()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return recorder.Stop(ctx)
			},
		})
	}),
)
