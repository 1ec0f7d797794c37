package bootstrap

import (
	"context"

	"github.com/elder-platform/elder/common/mlog"
	"github.com/elder-platform/elder/common/mopentelemetry"
	"github.com/elder-platform/elder/common/mpostgres"
	"github.com/elder-platform/elder/common/mrabbitmq"
	"github.com/elder-platform/elder/common/mredis"
	"github.com/elder-platform/elder/common/mzap"
	httputils "github.com/elder-platform/elder/common/net/http"

	grpcapi "github.com/elder-platform/elder/components/core/internal/adapters/grpc"
	"github.com/elder-platform/elder/components/core/internal/adapters/http/in"
	auditpg "github.com/elder-platform/elder/components/core/internal/adapters/postgres/audit"
	dependencypg "github.com/elder-platform/elder/components/core/internal/adapters/postgres/dependency"
	entitypg "github.com/elder-platform/elder/components/core/internal/adapters/postgres/entity"
	grouppg "github.com/elder-platform/elder/components/core/internal/adapters/postgres/group"
	identitypg "github.com/elder-platform/elder/components/core/internal/adapters/postgres/identity"
	issuepg "github.com/elder-platform/elder/components/core/internal/adapters/postgres/issue"
	oncallpg "github.com/elder-platform/elder/components/core/internal/adapters/postgres/oncall"
	organizationpg "github.com/elder-platform/elder/components/core/internal/adapters/postgres/organization"
	resourcerolepg "github.com/elder-platform/elder/components/core/internal/adapters/postgres/resourcerole"
	tenantpg "github.com/elder-platform/elder/components/core/internal/adapters/postgres/tenant"
	villageidpg "github.com/elder-platform/elder/components/core/internal/adapters/postgres/villageid"

	"github.com/elder-platform/elder/components/core/internal/authz"
	"github.com/elder-platform/elder/components/core/internal/cacheinvalidator"
	"github.com/elder-platform/elder/components/core/internal/graph"
	"github.com/elder-platform/elder/components/core/internal/idallocator"
	"github.com/elder-platform/elder/components/core/internal/oncallresolver"
	"github.com/elder-platform/elder/components/core/internal/groupworkflow"
	"github.com/elder-platform/elder/components/core/internal/pipeline"
	"github.com/elder-platform/elder/components/core/internal/services/command"
	"github.com/elder-platform/elder/components/core/internal/services/query"
	"github.com/elder-platform/elder/components/core/internal/store"
)

// Service composes every Store adapter, domain engine, and the HTTP
// ApiSurface into one runnable unit, the way the teacher's own Service
// aggregates its sub-services.
type Service struct {
	Config    *Config
	Logger    mlog.Logger
	Telemetry *mopentelemetry.Telemetry
	Postgres  *mpostgres.PostgresConnection
	Redis     *mredis.RedisConnection
	Rabbit    *mrabbitmq.RabbitMQConnection

	Command *command.UseCase
	Query   *query.UseCase

	Server *Server
}

// NewService builds a Service from cfg, applying any Options overrides.
// It connects to postgres (running migrations) eagerly; redis and rabbitmq
// connect lazily on first use since neither is required for every
// deployment (spec SPEC_FULL §4.9, §4.6).
func NewService(cfg *Config, opts Options) (*Service, error) {
	logger := opts.Logger
	if logger == nil {
		built, err := mzap.NewLogger(cfg.LogLevel, cfg.LogDev)
		if err != nil {
			return nil, err
		}

		logger = built
	}

	telemetry := (&mopentelemetry.Telemetry{
		LibraryName:    cfg.ServiceName,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		DeploymentEnv:  cfg.DeploymentEnv,
	}).InitializeTelemetry()

	pg := &mpostgres.PostgresConnection{
		ConnectionStringPrimary: cfg.DBPrimaryDSN,
		ConnectionStringReplica: cfg.DBReplicaDSN,
		PrimaryDBName:           cfg.DBPrimaryName,
		ReplicaDBName:           cfg.DBReplicaName,
		MigrationsPath:          cfg.MigrationsPath,
		Logger:                  logger,
	}

	if err := pg.Connect(); err != nil {
		return nil, err
	}

	db, err := pg.GetDB(context.Background())
	if err != nil {
		return nil, err
	}

	tx := store.NewManager(db, logger)
	tx.MaxRetries = cfg.StoreMaxRetries()

	var redisConn *mredis.RedisConnection
	if cfg.RedisDSN != "" {
		redisConn = &mredis.RedisConnection{ConnectionStringSource: cfg.RedisDSN, Logger: logger}
	}

	var rabbitConn *mrabbitmq.RabbitMQConnection
	if cfg.RabbitDSN != "" {
		rabbitConn = &mrabbitmq.RabbitMQConnection{ConnectionStringSource: cfg.RabbitDSN, Logger: logger}
	}

	tenantRepo := tenantpg.New(tx)
	organizationRepo := organizationpg.New(tx)
	entityRepo := entitypg.New(tx)
	dependencyRepo := dependencypg.New(tx)
	identityRepo := identitypg.New(tx)
	resourceRoleRepo := resourcerolepg.New(tx)
	issueRepo := issuepg.New(tx)
	onCallRepo := oncallpg.New(tx)
	groupRepo := grouppg.New(tx)
	auditRepo := auditpg.New(tx)
	villageIDRepo := villageidpg.New(tx)

	graphEngine := graph.NewEngine(&graph.Builder{
		Orgs:         organizationRepo,
		Entities:     entityRepo,
		Dependencies: dependencyRepo,
	}, int(cfg.GraphCacheSize), logger)

	az := authz.New(resourceRoleRepo, groupRepo, organizationRepo, graphEngine, cfg.AuthZMemoTTL())

	invalidator := cacheinvalidator.New(redisConn, logger)
	invalidator.Subscribe(func(key cacheinvalidator.Key) {
		switch key.Subject {
		case cacheinvalidator.SubjectOrgTree, cacheinvalidator.SubjectEntityGraph:
			graphEngine.Invalidate(key.TenantID)
		}
	})

	ids := idallocator.New(villageIDRepo)
	onCall := oncallresolver.New(onCallRepo)
	groups := groupworkflow.New(groupRepo, rabbitConn)

	pl := pipeline.New(tx, az, auditRepo, invalidator, cfg.QuotaRateLimit(), int(cfg.QuotaBurst))

	cmd := &command.UseCase{
		Pipeline:         pl,
		IDs:              ids,
		Graph:            graphEngine,
		OnCall:           onCall,
		Groups:           groups,
		TenantRepo:       tenantRepo,
		OrganizationRepo: organizationRepo,
		EntityRepo:       entityRepo,
		DependencyRepo:   dependencyRepo,
		IdentityRepo:     identityRepo,
		ResourceRoleRepo: resourceRoleRepo,
		IssueRepo:        issueRepo,
		OnCallRepo:       onCallRepo,
		GroupRepo:        groupRepo,
		AuditRepo:        auditRepo,
	}

	qry := &query.UseCase{
		Pipeline:         pl,
		IDs:              ids,
		Graph:            graphEngine,
		OnCall:           onCall,
		TenantRepo:       tenantRepo,
		OrganizationRepo: organizationRepo,
		EntityRepo:       entityRepo,
		DependencyRepo:   dependencyRepo,
		IdentityRepo:     identityRepo,
		ResourceRoleRepo: resourceRoleRepo,
		IssueRepo:        issueRepo,
		OnCallRepo:       onCallRepo,
		GroupRepo:        groupRepo,
		AuditRepo:        auditRepo,
		VillageIDRepo:    villageIDRepo,
	}

	handler := &in.Handler{Command: cmd, Query: qry}

	jwt := httputils.NewJWTMiddleware(cfg.JWKURI, apiKeyResolver(identityRepo))
	telemetryMW := httputils.NewTelemetryMiddleware(telemetry)

	router := in.NewRouter(logger, telemetryMW, jwt, handler)

	grpcServer := grpcapi.NewServer(cmd, qry, jwt, identityRepo)

	return &Service{
		Config:    cfg,
		Logger:    logger,
		Telemetry: telemetry,
		Postgres:  pg,
		Redis:     redisConn,
		Rabbit:    rabbitConn,
		Command:   cmd,
		Query:     qry,
		Server:    NewServer(cfg, router, grpcServer, logger, telemetry),
	}, nil
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Service) Run() error {
	return s.Server.Run()
}
