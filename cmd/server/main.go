// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/valmironeto-lab/Bluesendmail/internal/config"
	"github.com/valmironeto-lab/Bluesendmail/internal/controller"
	"github.com/valmironeto-lab/Bluesendmail/internal/db"
	"github.com/valmironeto-lab/Bluesendmail/internal/handler"
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
	log.Println("✅ Connected to database")

	campaignRepo := &repository.CampaignRepository{DB: conn}
	contactRepo := &repository.ContactRepository{DB: conn}
	queueRepo := &repository.QueueRepository{DB: conn}
	eventRepo := &repository.EventRepository{DB: conn}
	logRepo := &repository.LogRepository{DB: conn}

	signer := token.NewSigner(cfg.Tracking.Secret)

	var publisher *tracking.Publisher
	if cfg.Tracking.AMQPURL != "" {
		publisher, err = tracking.NewPublisher(cfg.Tracking.AMQPURL)
		if err != nil {
			log.Println("⚠️ tracking event publisher disabled:", err)
		} else {
			defer publisher.Close()
		}
	}

	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		ContactRepo:  contactRepo,
		QueueRepo:    queueRepo,
		EventRepo:    eventRepo,
		Logs:         logRepo,
	}

	campaignController := &controller.CampaignController{
		CampaignService: campaignService,
	}

	trackingHandler := &handler.TrackingHandler{
		Signer:      signer,
		QueueRepo:   queueRepo,
		ContactRepo: contactRepo,
		EventRepo:   eventRepo,
		Logs:        logRepo,
		Publisher:   publisher,
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	// Public tracking surface
	r.Get("/email", trackingHandler.HandleAction)

	// Campaign routes
	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{id}", campaignController.GetCampaign)
	r.Post("/campaigns/{id}/send", campaignController.SendCampaign)
	r.Post("/campaigns/{id}/schedule", campaignController.ScheduleCampaign)

	log.Println("🚀 Server running on", cfg.Server.Addr)
	log.Fatal(http.ListenAndServe(cfg.Server.Addr, r))
}
