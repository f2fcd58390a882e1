package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":                  "postgres://localhost/storefront",
		"REDIS_URL":                     "redis://localhost:6379",
		"TAX_RATE_BPS":                  "",
		"SHIPPING_FLAT_CENTS":           "",
		"FREE_SHIPPING_THRESHOLD_CENTS": "",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TaxRateBps != 1500 {
		t.Fatalf("tax rate default = %d", cfg.TaxRateBps)
	}
	if cfg.ShippingFlatCents != 6000 {
		t.Fatalf("shipping flat default = %d", cfg.ShippingFlatCents)
	}
	if cfg.FreeShipThresholdCents != 50000 {
		t.Fatalf("free shipping threshold default = %d", cfg.FreeShipThresholdCents)
	}
	if cfg.HTTPAddr() != ":8080" {
		t.Fatalf("http addr = %q", cfg.HTTPAddr())
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379",
	})
	if err == nil {
		t.Fatal("expected error when DATABASE_URL missing")
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":        "postgres://localhost/storefront",
		"REDIS_URL":           "redis://localhost:6379",
		"TAX_RATE_BPS":        "2000",
		"SHIPPING_FLAT_CENTS": "4500",
		"PORT":                "9090",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TaxRateBps != 2000 || cfg.ShippingFlatCents != 4500 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.HTTPAddr() != ":9090" {
		t.Fatalf("http addr = %q", cfg.HTTPAddr())
	}
}
