package config

import (
	"os"
)

type Config struct {
	ListenAddr string // TCP address of the banking protocol
	AdminAddr  string // HTTP address for /health and /metrics
	DBPath     string // SQLite database file
	SMTPAddr   string // empty disables notifications
	SMTPFrom   string
}

func Load() (*Config, error) {
	listen := os.Getenv("BANK_LISTEN_ADDR")
	if listen == "" {
		listen = ":8013"
	}

	admin := os.Getenv("BANK_ADMIN_ADDR")
	if admin == "" {
		admin = ":9090"
	}

	dbPath := os.Getenv("BANK_DB_PATH")
	if dbPath == "" {
		dbPath = "bank.db"
	}

	return &Config{
		ListenAddr: listen,
		AdminAddr:  admin,
		DBPath:     dbPath,
		SMTPAddr:   os.Getenv("BANK_SMTP_ADDR"),
		SMTPFrom:   os.Getenv("BANK_SMTP_FROM"),
	}, nil
}
