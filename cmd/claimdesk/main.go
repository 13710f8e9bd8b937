package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/iosworks/claimdesk/internal/attachment"
	"github.com/iosworks/claimdesk/internal/attendance"
	attdomain "github.com/iosworks/claimdesk/internal/attendance/domain"
	"github.com/iosworks/claimdesk/internal/audit"
	auditdomain "github.com/iosworks/claimdesk/internal/audit/domain"
	"github.com/iosworks/claimdesk/internal/auth"
	authdomain "github.com/iosworks/claimdesk/internal/auth/domain"
	"github.com/iosworks/claimdesk/internal/authorization"
	"github.com/iosworks/claimdesk/internal/blobstore"
	"github.com/iosworks/claimdesk/internal/config"
	"github.com/iosworks/claimdesk/internal/events"
	"github.com/iosworks/claimdesk/internal/geocode"
	"github.com/iosworks/claimdesk/internal/logger"
	"github.com/iosworks/claimdesk/internal/records"
	recdomain "github.com/iosworks/claimdesk/internal/records/domain"
	"github.com/iosworks/claimdesk/internal/server"
	"github.com/iosworks/claimdesk/internal/tenant"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(registerSnowflake),
		fx.Provide(fx.Annotate(tenantModels, fx.ResultTags(`name:"tenant_models"`))),

		tenant.Module,
		events.Module,
		blobstore.Module,
		geocode.Module,
		authorization.Module,
		auth.Module,
		audit.Module,
		records.Module,
		attendance.Module,
		attachment.Module,
		server.Module,
	)
	app.Run()
}

func registerSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

// tenantModels lists every gorm model migrated into each tenant store on
// first use.
func tenantModels() []any {
	models := recdomain.Models()
	models = append(models,
		&attdomain.Attendance{},
		&blobstore.Blob{},
		&auditdomain.Entry{},
		&authdomain.User{},
	)
	return models
}
