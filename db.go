package main

import (
	"log"
	"os"
	"strings"

	"finman/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true). Any permission errors will be logged and ignored.
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	if shouldMigrate {
		// Migrate models individually so a failure on one doesn't block others
		if err := db.AutoMigrate(&models.User{}); err != nil {
			log.Printf("migration warning (users): %v", err)
		}
		if err := db.AutoMigrate(&models.Category{}); err != nil {
			log.Printf("migration warning (categories): %v", err)
		}
		if err := db.AutoMigrate(&models.Account{}); err != nil {
			log.Printf("migration warning (accounts): %v", err)
		}
		if err := db.AutoMigrate(&models.Transaction{}); err != nil {
			log.Printf("migration warning (transactions): %v", err)
		}
		if err := db.AutoMigrate(&models.Budget{}); err != nil {
			log.Printf("migration warning (budgets): %v", err)
		}
		if err := db.AutoMigrate(&models.RefreshToken{}); err != nil {
			log.Printf("migration warning (refresh_tokens): %v", err)
		}
	}
	seedDB()
}

// seedDB ensures the shared system categories exist. They are keyed by name,
// so re-running the seed is idempotent.
func seedDB() {
	systemCategories := []models.Category{
		{Name: "Salary", Type: models.TypeIncome, Icon: "briefcase", Color: "#4CAF50", IsSystem: true},
		{Name: "Investments", Type: models.TypeIncome, Icon: "trending-up", Color: "#8BC34A", IsSystem: true},
		{Name: "Other Income", Type: models.TypeIncome, Icon: "plus-circle", Color: "#CDDC39", IsSystem: true},
		{Name: "Groceries", Type: models.TypeExpense, Icon: "shopping-cart", Color: "#FF9800", IsSystem: true},
		{Name: "Rent", Type: models.TypeExpense, Icon: "home", Color: "#F44336", IsSystem: true},
		{Name: "Transport", Type: models.TypeExpense, Icon: "navigation", Color: "#2196F3", IsSystem: true},
		{Name: "Utilities", Type: models.TypeExpense, Icon: "zap", Color: "#9C27B0", IsSystem: true},
		{Name: "Entertainment", Type: models.TypeExpense, Icon: "film", Color: "#E91E63", IsSystem: true},
		{Name: "Healthcare", Type: models.TypeExpense, Icon: "activity", Color: "#00BCD4", IsSystem: true},
		{Name: "Other Expenses", Type: models.TypeExpense, Icon: "more-horizontal", Color: "#607D8B", IsSystem: true},
	}
	for _, cat := range systemCategories {
		var cnt int64
		db.Model(&models.Category{}).Where("is_system = TRUE AND name = ?", cat.Name).Count(&cnt)
		if cnt == 0 {
			c := cat
			if err := db.Create(&c).Error; err != nil {
				log.Printf("failed to seed system category %q: %v", cat.Name, err)
			}
		}
	}
}
