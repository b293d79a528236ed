package main

import (
	"log"
	"os"

	"github.com/shopspring/decimal"

	"github.com/rumaak/bank-app/internal/domain"
	"github.com/rumaak/bank-app/internal/store"
)

// Seeds a demo user with two funded accounts for local client testing.
func main() {
	dbPath := os.Getenv("BANK_DB_PATH")
	if dbPath == "" {
		dbPath = "bank.db"
	}

	st, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("Unable to open database: %v", err)
	}

	log.Println("--- Seeding Database ---")

	if _, err := st.GetUser("demo@example.com"); err == nil {
		log.Println("Demo user already present. Skipping.")
		return
	}

	if err := st.CreateUser(&domain.User{Email: "demo@example.com", Password: "demo"}); err != nil {
		log.Fatalf("Seed user failed: %v", err)
	}

	accounts := []domain.Account{
		{Email: "demo@example.com", Name: "main", Balance: decimal.NewFromInt(1000), State: domain.StateOK},
		{Email: "demo@example.com", Name: "savings", Balance: decimal.NewFromInt(5000), State: domain.StateOK},
	}
	for i := range accounts {
		if err := st.CreateAccount(&accounts[i]); err != nil {
			log.Fatalf("Seed account failed: %v", err)
		}
	}

	log.Printf("Successfully seeded %d accounts.", len(accounts))
}
