package records

import (
	"go.uber.org/fx"

	"github.com/iosworks/claimdesk/internal/records/domain"
	"github.com/iosworks/claimdesk/internal/records/service"
)

var Module = fx.Module("records",
	fx.Provide(
		service.New[domain.Broker],
		service.New[domain.InsuranceCompany],
		service.New[domain.Insured],
		service.New[domain.Regulator],
		service.New[domain.RiskManager],
		service.New[domain.ShippingCompany],
	),
)
