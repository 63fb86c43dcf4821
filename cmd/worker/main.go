// cmd/worker/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/valmironeto-lab/Bluesendmail/internal/config"
	"github.com/valmironeto-lab/Bluesendmail/internal/db"
	"github.com/valmironeto-lab/Bluesendmail/internal/mailer"
	"github.com/valmironeto-lab/Bluesendmail/internal/render"
	"github.com/valmironeto-lab/Bluesendmail/internal/repository"
	"github.com/valmironeto-lab/Bluesendmail/internal/service"
	"github.com/valmironeto-lab/Bluesendmail/internal/token"
	"github.com/valmironeto-lab/Bluesendmail/internal/tracking"
)

func main() {
	cfg, err := config.Load(os.Getenv("BSM_CONFIG"))
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	conn, err := db.Connect(cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to DB: ", err)
	}
	defer conn.Close()

	if err := db.Migrate(conn); err != nil {
		log.Fatal("failed to migrate DB: ", err)
	}

	campaignRepo := &repository.CampaignRepository{DB: conn}
	contactRepo := &repository.ContactRepository{DB: conn}
	queueRepo := &repository.QueueRepository{DB: conn}
	eventRepo := &repository.EventRepository{DB: conn}
	logRepo := &repository.LogRepository{DB: conn}

	sender, err := mailer.New(cfg.Mailer)
	if err != nil {
		log.Fatal("failed to configure mailer: ", err)
	}

	signer := token.NewSigner(cfg.Tracking.Secret)
	tracker := tracking.New(signer, cfg.Site.BaseURL, cfg.Tracking.EnableOpens, cfg.Tracking.EnableClicks)

	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		ContactRepo:  contactRepo,
		QueueRepo:    queueRepo,
		EventRepo:    eventRepo,
		Logs:         logRepo,
	}

	deliveryService := &service.DeliveryService{
		CampaignRepo: campaignRepo,
		QueueRepo:    queueRepo,
		Logs:         logRepo,
		Sender:       sender,
		Tracker:      tracker,
		Site:         render.Site{Name: cfg.Site.Name, URL: cfg.Site.BaseURL},
		BatchSize:    cfg.Delivery.BatchSize,
		MaxAttempts:  cfg.Delivery.MaxAttempts,
		SendTimeout:  cfg.Mailer.SendTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deliveryTicker := time.NewTicker(cfg.Delivery.Interval)
	defer deliveryTicker.Stop()
	promoterTicker := time.NewTicker(cfg.Delivery.PromoterInterval)
	defer promoterTicker.Stop()

	log.Printf("🚀 Worker running (batch=%d, interval=%s)", cfg.Delivery.BatchSize, cfg.Delivery.Interval)

	// First pass right away so a restart does not wait a full interval.
	promote(campaignService)
	deliver(ctx, deliveryService)

	for {
		select {
		case <-ctx.Done():
			log.Println("worker shutting down")
			return
		case <-promoterTicker.C:
			promote(campaignService)
		case <-deliveryTicker.C:
			deliver(ctx, deliveryService)
		}
	}
}

// deliver runs one batch tick. Errors are logged, never fatal: the
// next tick always gets its chance.
func deliver(ctx context.Context, svc *service.DeliveryService) {
	n, err := svc.ProcessBatch(ctx)
	if err != nil {
		log.Println("⚠️ delivery tick failed:", err)
		return
	}
	if n > 0 {
		log.Printf("processed %d queue items", n)
	}
}

func promote(svc *service.CampaignService) {
	if err := svc.PromoteScheduled(time.Now()); err != nil {
		log.Println("⚠️ promoter tick failed:", err)
	}
}
