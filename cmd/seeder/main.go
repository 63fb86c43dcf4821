// cmd/seeder/main.go
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/valmironeto-lab/Bluesendmail/internal/config"
	"github.com/valmironeto-lab/Bluesendmail/internal/db"
	"github.com/valmironeto-lab/Bluesendmail/internal/model"
	"github.com/valmironeto-lab/Bluesendmail/internal/repository"
)

func main() {
	cfg, err := config.Load(os.Getenv("BSM_CONFIG"))
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	conn, err := db.Connect(cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	if err := db.Migrate(conn); err != nil {
		log.Fatal(err)
	}

	contactRepo := &repository.ContactRepository{DB: conn}
	campaignRepo := &repository.CampaignRepository{DB: conn}

	var newsletter, product model.List
	if err := conn.QueryRow(`INSERT INTO bsm_lists (name, description) VALUES ('Newsletter', 'Monthly newsletter') RETURNING list_id`).Scan(&newsletter.ID); err != nil {
		log.Fatal("failed to seed lists: ", err)
	}
	if err := conn.QueryRow(`INSERT INTO bsm_lists (name, description) VALUES ('Product updates', 'Release announcements') RETURNING list_id`).Scan(&product.ID); err != nil {
		log.Fatal("failed to seed lists: ", err)
	}

	contacts := []struct {
		contact model.Contact
		lists   []int
	}{
		{model.Contact{Email: "alice@example.com", FirstName: "Alice", LastName: "Smith"}, []int{newsletter.ID}},
		{model.Contact{Email: "bob@example.com", FirstName: "Bob", LastName: "Jones"}, []int{newsletter.ID, product.ID}},
		{model.Contact{Email: "carol@example.com", FirstName: "Carol", LastName: "Mendes"}, []int{product.ID}},
		{model.Contact{Email: "dave@example.com", FirstName: "Dave", LastName: "Silva", Status: model.ContactStatusPending}, []int{newsletter.ID}},
	}

	for _, seed := range contacts {
		c := seed.contact
		if err := contactRepo.Create(&c); err != nil {
			log.Fatalf("failed to seed contact %s: %v", c.Email, err)
		}
		for _, listID := range seed.lists {
			if err := contactRepo.AddToList(c.ID, listID); err != nil {
				log.Fatalf("failed to add %s to list %d: %v", c.Email, listID, err)
			}
		}
		fmt.Println("Seeded contact:", c.Email)
	}

	campaign := &model.Campaign{
		Title:     "Welcome to {{site.name}}",
		Subject:   "Hello {{contact.first_name}}!",
		Preheader: "A short preview of what is inside.",
		Content: `<html><body><p>Hi {{contact.first_name}},</p>` +
			`<p>Check out <a href="https://example.com/news">our latest news</a>.</p>` +
			`<p><a href="{{unsubscribe_link}}">Unsubscribe</a></p></body></html>`,
		ListIDs: []int{newsletter.ID},
	}
	if err := campaignRepo.Create(campaign); err != nil {
		log.Fatal("failed to seed campaign: ", err)
	}
	fmt.Printf("Seeded campaign #%d (%s)\n", campaign.ID, campaign.Title)

	fmt.Println("Database seeding completed successfully!")
}
