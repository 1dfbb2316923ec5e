package main

import (
	"github.com/bwmarrin/snowflake"
	affiliatedomain "github.com/smallbiznis/affina/internal/affiliate/domain"
	campaigndomain "github.com/smallbiznis/affina/internal/campaign/domain"
	commissiondomain "github.com/smallbiznis/affina/internal/commission/domain"
	ruledomain "github.com/smallbiznis/affina/internal/commissionrule/domain"
	tierdomain "github.com/smallbiznis/affina/internal/commissiontier/domain"
	"github.com/smallbiznis/affina/internal/config"
	"github.com/smallbiznis/affina/internal/logger"
	productdomain "github.com/smallbiznis/affina/internal/product/domain"
	"github.com/smallbiznis/affina/internal/server"
	tenantdomain "github.com/smallbiznis/affina/internal/tenant/domain"
	trackingdomain "github.com/smallbiznis/affina/internal/tracking/domain"
	"github.com/smallbiznis/affina/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		server.Module,
		fx.Invoke(autoMigrate),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

func autoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&tenantdomain.Tenant{},
		&productdomain.Product{},
		&tierdomain.CommissionTier{},
		&ruledomain.CommissionRule{},
		&commissiondomain.AffiliateProductCommission{},
		&affiliatedomain.Affiliate{},
		&affiliatedomain.AffiliateInvite{},
		&trackingdomain.TrackingLink{},
		&trackingdomain.TrackingEvent{},
		&campaigndomain.Campaign{},
		&campaigndomain.CampaignParticipation{},
	)
}
