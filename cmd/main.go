package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"prism-alert-service/internal/actions"
	"prism-alert-service/internal/alerts"
	"prism-alert-service/internal/api"
	"prism-alert-service/internal/config"
	"prism-alert-service/internal/dedup"
	"prism-alert-service/internal/escalation"
	"prism-alert-service/internal/kafka"
	"prism-alert-service/internal/logging"
	"prism-alert-service/internal/notify"
	"prism-alert-service/internal/providers"
	"prism-alert-service/internal/store"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to the alert store
	st, err := store.NewPostgres(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Errorf("Failed to connect to database: %v", err)
		log.Fatalf("Database connection failed: %v", err)
	}
	defer st.Close()

	// Notification channels: missing credentials disable a channel
	push := providers.NewPush(logger)
	channelProviders := map[string]notify.Provider{
		notify.ChannelPush: push,
	}
	if p := providers.NewEmail(cfg); p != nil {
		channelProviders[notify.ChannelEmail] = p
	} else {
		logger.Warn("Email channel disabled: SMTP credentials not configured")
	}
	if p := providers.NewSMS(cfg); p != nil {
		channelProviders[notify.ChannelSMS] = p
	} else {
		logger.Warn("SMS channel disabled: Twilio credentials not configured")
	}
	if p := providers.NewWebhook(cfg); p != nil {
		channelProviders[notify.ChannelWebhook] = p
	} else {
		logger.Warn("Webhook channel disabled: endpoint URL not configured")
	}

	templates, fallback := notify.DefaultTemplates()
	dispatcher := notify.New(channelProviders, templates, fallback, notify.Config{
		Recipients:        cfg.Notify.Recipients,
		EmergencyContacts: cfg.Notify.EmergencyContacts,
		MaxRetries:        cfg.Notify.MaxRetries,
	}, logger, nil)

	// Engine components
	deduplicator := dedup.New(dedup.DefaultRules(), logger, nil)
	actionEngine := actions.New(actions.DefaultTemplates(),
		cfg.Actions.HourlyOperationalCost, cfg.Actions.SafetyMultiplier, logger, nil)
	escalationEngine := escalation.New(escalation.Settings{
		Enabled:            cfg.Escalation.Enabled,
		MaxLevel:           cfg.Escalation.MaxLevel,
		BusinessHoursOnly:  cfg.Escalation.BusinessHoursOnly,
		BusinessHoursStart: cfg.Escalation.BusinessHoursStart,
		BusinessHoursEnd:   cfg.Escalation.BusinessHoursEnd,
		WeekendEscalation:  cfg.Escalation.WeekendEscalation,
	}, logger, nil)

	ctrl := alerts.NewController(st, deduplicator, actionEngine, escalationEngine, dispatcher, logger, nil)

	// Periodic escalation / auto-resolve sweep
	var wg sync.WaitGroup
	ctrl.Run(ctx, cfg.Escalation.CheckInterval, &wg)

	// Kafka ingestion
	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.ReconnectDelay, logger)
	kafka.RegisterAlertHandlers(consumer, ctrl, cfg.Kafka.RiskTopic, cfg.Kafka.SensorTopic)
	consumer.Start(ctx, &wg)

	// API server
	handler := api.NewHandler(ctrl, deduplicator, push, logger)
	router := api.NewRouter(logger, cfg, handler)
	go func() {
		logger.Infof("API server started on %s", cfg.API.Port)
		if err := router.Run(cfg.API.Port); err != nil {
			logger.Errorf("API server failed: %v", err)
		}
	}()

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logger.Info("Shutting down...")
	cancel()
	wg.Wait()
	logger.Info("Service stopped")
}
