package geocode

import (
	"github.com/iosworks/claimdesk/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func provide(cfg config.Config, log *zap.Logger) Geocoder {
	if !cfg.GeocoderEnabled {
		return Disabled{}
	}

	var geocoder Geocoder = NewNominatim(cfg.GeocoderBaseURL, cfg.GeocoderUserAgent)

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		geocoder = NewCached(geocoder, client, log)
	}
	return geocoder
}

var Module = fx.Module("geocode",
	fx.Provide(provide),
)
