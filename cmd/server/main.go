package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/api"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/calendar"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/campaign"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/config"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/dispatch"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/domain"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/lifecycle"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/pkg/clock"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/pkg/distlock"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/repository/postgres"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/scoring"
)

// sequencerEnroller defers the lifecycle→sequencer binding: the lifecycle
// service is constructed before the sequencer (which needs the lifecycle
// service as its snapshot source), so the enroller is bound after both
// exist.
type sequencerEnroller struct {
	sq *campaign.Sequencer
}

func (e *sequencerEnroller) HandleEvent(ctx context.Context, event domain.CampaignTriggerType, contactID string) error {
	if e.sq == nil {
		return nil
	}
	return e.sq.HandleEvent(ctx, event, contactID)
}

func main() {
	log.Println("Lead Lifecycle Automation Engine starting")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("Failed to reach database: %v", err)
	}
	pingCancel()
	defer db.Close()

	// Redis backs the booking locks when available; the Postgres advisory
	// lock fallback inside distlock covers the single-node case.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Printf("Warning: redis unavailable (%v), booking locks fall back to Postgres", err)
			redisClient = nil
		}
	}
	locks := distlock.NewFactory(redisClient, db, 30*time.Second)

	clk := clock.Real{}

	// Outbound channels. Email goes through SES when credentials are
	// configured; everything else logs until a real provider is wired.
	dispatcher := dispatch.NewDispatcher()
	if cfg.SES.Enabled && cfg.SES.AccessKey != "" {
		dispatcher.RegisterSender(domain.ChannelEmail,
			dispatch.NewSESSender(cfg.SES.AccessKey, cfg.SES.SecretKey, cfg.SES.Region, cfg.SES.FromName, cfg.SES.FromEmail))
		log.Printf("SES sender registered (region %s)", cfg.SES.Region)
	}
	dispatcher.SetFallback(dispatch.LogSender{})

	crmRepo := postgres.NewCRMRepo(db)
	campaignStore := campaign.NewStore(db)
	eventStore := calendar.NewPostgresStore(db)

	scorer := scoring.NewEngine(cfg.Scoring, clk)

	calEngine := calendar.NewEngine(eventStore, calendar.WorkingHours{
		StartHour:     cfg.Calendar.StartHour,
		EndHour:       cfg.Calendar.EndHour,
		BufferMinutes: cfg.Calendar.BufferMinutes,
	}, clk)
	calService := calendar.NewService(calEngine, eventStore, locks, dispatcher, clk)
	calService.SetReminderLead(cfg.Calendar.ReminderLead())

	enroller := &sequencerEnroller{}
	lifecycleSvc := lifecycle.NewService(crmRepo, scorer, enroller, dispatcher, calService, clk)
	lifecycleSvc.SetCalendarID(cfg.Calendar.CalendarID)
	lifecycleSvc.SetOwnerEmail(cfg.SES.OwnerEmail)

	sequencer := campaign.NewSequencer(campaignStore, lifecycleSvc, dispatcher, clk)
	sequencer.SetInterval(cfg.Sequencer.Interval())
	sequencer.SetBatchSize(cfg.Sequencer.BatchSize)
	enroller.sq = sequencer

	sequencer.Start()
	calService.StartReminders(cfg.Calendar.ReminderInterval())

	handlers := api.NewHandlers(
		lifecycleSvc,
		crmRepo,
		sequencer,
		campaignStore,
		calService,
		lifecycleSvc,
		campaign.NewTemplateService(),
		dispatcher.Metrics(),
		cfg.Calendar.CalendarID,
	)
	server := api.NewServer(cfg.Server, handlers)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Println("All services initialized — server is ready")

	<-done
	log.Println("Shutting down...")

	sequencer.Stop()
	calService.StopReminders()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
