package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/lib/pq"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedProducts(db)

	log.Println("Seeding completed successfully!")
}

func seedProducts(db *sql.DB) {
	// Prices are cents (ZAR).
	products := []struct {
		SKU        string
		Name       string
		Price      int64
		Stock      int
		Categories []string
	}{
		{"TEA-001", "Rooibos Tea 40 Bags", 4500, 120, []string{"pantry", "drinks"}},
		{"TEA-002", "Honeybush Loose Leaf 250g", 7900, 60, []string{"pantry", "drinks"}},
		{"COF-001", "Single Origin Espresso Beans 1kg", 28900, 45, []string{"pantry", "drinks"}},
		{"MUG-001", "Enamel Camping Mug", 9900, 80, []string{"kitchen"}},
		{"MUG-002", "Stoneware Mug 350ml", 14500, 35, []string{"kitchen"}},
		{"JAR-001", "Fynbos Honey 500g", 11900, 50, []string{"pantry"}},
		{"RUS-001", "Buttermilk Rusks 500g", 6500, 90, []string{"pantry", "bakery"}},
		{"BIL-001", "Beef Biltong Sliced 250g", 15900, 70, []string{"pantry", "snacks"}},
		{"SOA-001", "Aloe Hand Soap Bar", 3900, 200, []string{"bath"}},
		{"TOW-001", "Cotton Kitchen Towel Set", 18900, 25, []string{"kitchen", "textiles"}},
		{"CAN-001", "Soy Wax Candle Protea", 21900, 30, []string{"decor"}},
		{"BAG-001", "Canvas Tote Bag", 12900, 150, []string{"accessories"}},
		{"LAST-01", "Limited Print Tea Tin", 24900, 1, []string{"decor", "drinks"}},
	}

	fmt.Println("Seeding Products...")
	for _, p := range products {
		_, err := db.Exec(`
			INSERT INTO products (sku, name, price_cents, stock, categories)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (sku) DO UPDATE SET
				name = EXCLUDED.name,
				price_cents = EXCLUDED.price_cents,
				stock = EXCLUDED.stock,
				categories = EXCLUDED.categories;
		`, p.SKU, p.Name, p.Price, p.Stock, pq.Array(p.Categories))
		if err != nil {
			log.Printf("Failed to seed product %s: %v", p.SKU, err)
		}
	}
}
