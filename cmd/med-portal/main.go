package main

import (
	"context"
	"log/slog"
	"syscall"

	evbus "github.com/vardius/message-bus"

	"github.com/medinfohub/med-portal/internal"
	"github.com/medinfohub/med-portal/internal/adapters"
	"github.com/medinfohub/med-portal/internal/app"
	"github.com/medinfohub/med-portal/internal/app/alerts"
	"github.com/medinfohub/med-portal/internal/app/api/core"
	handlersV1 "github.com/medinfohub/med-portal/internal/app/api/v1/handlers"
	"github.com/medinfohub/med-portal/internal/app/audit"
	"github.com/medinfohub/med-portal/internal/app/directory"
	"github.com/medinfohub/med-portal/internal/config"
)

func main() {
	ctx := internal.SignalAwareContext(context.Background(), syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	cfg, err := config.GetConfig()
	internal.AssertNoError(err)

	internal.SetupLogging(cfg.Advanced.LogLevel, cfg.Advanced.LogPretty, cfg.Advanced.LogJson)

	slog.Info("starting medical information portal", "version", internal.Version)

	rawDb, err := adapters.NewDatabase(cfg.Database)
	internal.AssertNoError(err)

	database, err := adapters.NewSqlRepository(rawDb)
	internal.AssertNoError(err)

	mailer := adapters.NewSmtpMailRepo(cfg.Mail)

	queueSize := 100
	eventBus := evbus.New(queueSize)

	signer, err := audit.NewSigner(&cfg.Audit)
	internal.AssertNoError(err)

	auditManager, err := audit.NewAuditManager(cfg, eventBus, signer, database)
	internal.AssertNoError(err)

	_, err = audit.NewAuditRecorder(cfg, eventBus, *auditManager)
	internal.AssertNoError(err)

	retention := audit.NewRetentionManager(cfg, eventBus, database)
	retention.StartBackgroundJobs(ctx)

	directoryManager, err := directory.NewDirectoryManager(cfg, eventBus, auditManager, database)
	internal.AssertNoError(err)

	alertManager, err := alerts.NewAlertManager(cfg, eventBus, auditManager, database, mailer)
	internal.AssertNoError(err)
	alertManager.StartBackgroundJobs(ctx)

	metricsSrv := adapters.NewMetricsServer(cfg, database)
	connectMetricsToBus(eventBus, metricsSrv)
	metricsSrv.StartBackgroundJobs(ctx)
	go metricsSrv.Run(ctx)

	apiV1 := handlersV1.NewRestApi(
		handlersV1.NewAuditEndpoint(auditManager),
		handlersV1.NewServiceEndpoint(directoryManager),
		handlersV1.NewNewsEndpoint(directoryManager),
		handlersV1.NewCommunityEventEndpoint(directoryManager),
	)

	webSrv, err := core.NewServer(cfg, apiV1)
	internal.AssertNoError(err)

	go webSrv.Run(ctx, cfg.Web.ListeningAddress)

	// wait until context gets cancelled
	<-ctx.Done()

	slog.Info("stopped medical information portal")
}

// connectMetricsToBus subscribes the prometheus counters to the audit topics.
// Done here to keep the adapters package free of app imports.
func connectMetricsToBus(bus evbus.MessageBus, metricsSrv *adapters.MetricsServer) {
	internal.AssertNoError(bus.Subscribe(app.TopicAuditCreated, metricsSrv.HandleAuditCreated))
	internal.AssertNoError(bus.Subscribe(app.TopicAuditWriteFailed, metricsSrv.HandleAuditWriteFailed))
	internal.AssertNoError(bus.Subscribe(app.TopicIntegrityViolation, metricsSrv.HandleIntegrityViolations))
	internal.AssertNoError(bus.Subscribe(app.TopicAlertSent, metricsSrv.HandleAlertSent))
}
