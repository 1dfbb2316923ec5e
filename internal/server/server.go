package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/affina/internal/affiliate"
	affiliatedomain "github.com/smallbiznis/affina/internal/affiliate/domain"
	"github.com/smallbiznis/affina/internal/campaign"
	campaigndomain "github.com/smallbiznis/affina/internal/campaign/domain"
	"github.com/smallbiznis/affina/internal/commission"
	commissiondomain "github.com/smallbiznis/affina/internal/commission/domain"
	"github.com/smallbiznis/affina/internal/commissionrule"
	ruledomain "github.com/smallbiznis/affina/internal/commissionrule/domain"
	"github.com/smallbiznis/affina/internal/commissiontier"
	tierdomain "github.com/smallbiznis/affina/internal/commissiontier/domain"
	"github.com/smallbiznis/affina/internal/config"
	"github.com/smallbiznis/affina/internal/product"
	productdomain "github.com/smallbiznis/affina/internal/product/domain"
	"github.com/smallbiznis/affina/internal/providers/email"
	"github.com/smallbiznis/affina/internal/ratelimit"
	"github.com/smallbiznis/affina/internal/signup"
	signupdomain "github.com/smallbiznis/affina/internal/signup/domain"
	"github.com/smallbiznis/affina/internal/tenant"
	tenantdomain "github.com/smallbiznis/affina/internal/tenant/domain"
	"github.com/smallbiznis/affina/internal/tracking"
	trackingdomain "github.com/smallbiznis/affina/internal/tracking/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	email.Module,
	ratelimit.Module,
	tenant.Module,
	product.Module,
	commissiontier.Module,
	commissionrule.Module,
	commission.Module,
	tracking.Module,
	affiliate.Module,
	campaign.Module,
	signup.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin() *gin.Engine {
	return NewEngine()
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	db            *gorm.DB
	genID         *snowflake.Node
	tenantSvc     tenantdomain.Service
	productSvc    productdomain.Service
	tierSvc       tierdomain.Service
	ruleSvc       ruledomain.Service
	commissionSvc commissiondomain.Service
	affiliateSvc  affiliatedomain.Service
	trackingSvc   trackingdomain.Service
	campaignSvc   campaigndomain.Service
	signupSvc     signupdomain.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	GenID         *snowflake.Node
	TenantSvc     tenantdomain.Service
	ProductSvc    productdomain.Service
	TierSvc       tierdomain.Service
	RuleSvc       ruledomain.Service
	CommissionSvc commissiondomain.Service
	AffiliateSvc  affiliatedomain.Service
	TrackingSvc   trackingdomain.Service
	CampaignSvc   campaigndomain.Service
	SignupSvc     signupdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		genID:         p.GenID,
		tenantSvc:     p.TenantSvc,
		productSvc:    p.ProductSvc,
		tierSvc:       p.TierSvc,
		ruleSvc:       p.RuleSvc,
		commissionSvc: p.CommissionSvc,
		affiliateSvc:  p.AffiliateSvc,
		trackingSvc:   p.TrackingSvc,
		campaignSvc:   p.CampaignSvc,
		signupSvc:     p.SignupSvc,
	}

	svc.registerPublicRoutes()
	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerPublicRoutes() {
	s.engine.POST("/signup", s.Signup)
	s.engine.POST("/api/tracking/event", s.RecordTrackingEvent)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.TenantContext())

	api.GET("/commissions/tiers", s.ListCommissionTiers)
	api.POST("/commissions/tiers", s.CreateCommissionTier)
	api.GET("/commissions/tiers/:id", s.GetCommissionTier)
	api.PUT("/commissions/tiers/:id", s.UpdateCommissionTier)
	api.DELETE("/commissions/tiers/:id", s.DeleteCommissionTier)

	api.GET("/commissions/rules", s.ListCommissionRules)
	api.POST("/commissions/rules", s.CreateCommissionRule)
	api.GET("/commissions/rules/:id", s.GetCommissionRule)
	api.PUT("/commissions/rules/:id", s.UpdateCommissionRule)
	api.DELETE("/commissions/rules/:id", s.DeleteCommissionRule)

	api.GET("/products", s.ListProducts)
	api.POST("/products", s.CreateProduct)
	api.GET("/products/:id", s.GetProduct)
	api.PUT("/products/:id", s.UpdateProduct)
	api.DELETE("/products/:id", s.DeleteProduct)

	api.GET("/affiliates", s.ListAffiliates)
	api.GET("/affiliates/:id", s.GetAffiliate)
	api.POST("/affiliates/invite", s.InviteAffiliate)
	api.POST("/affiliates/accept", s.AcceptAffiliateInvite)
	api.GET("/affiliates/product-commissions", s.ListProductCommissions)
	api.PUT("/affiliates/product-commission", s.ToggleProductCommission)
	api.PUT("/affiliates/update-tier", s.UpdateAffiliateTier)

	api.GET("/tracking/metrics/:trackingCode", s.TrackingMetrics)

	api.GET("/campaigns", s.ListCampaigns)
	api.POST("/campaigns", s.CreateCampaign)
	api.GET("/campaigns/:id", s.GetCampaign)
	api.POST("/campaigns/:id/join", s.JoinCampaign)
}
