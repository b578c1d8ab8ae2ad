package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"nearbuy-chat/internal/config"
	"nearbuy-chat/internal/domain"
	"nearbuy-chat/pkg/database"
)

const usage = `
Nearbuy Chat - Database CLI Tool

Usage:
  migrate [command]

Commands:
  up          Run GORM migrations for all chat tables
  status      Show database connection status
  seed-dev    Seed a sample conversation with message history
`

func main() {
	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	switch flag.Arg(0) {
	case "up":
		if err := db.AutoMigrate(
			&domain.Conversation{},
			&domain.ConversationUnread{},
			&domain.Message{},
			&domain.Attachment{},
			&domain.MessageRead{},
			&domain.OutboxEvent{},
		); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
		log.Println("migrations completed")
	case "status":
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("database handle unavailable: %v", err)
		}
		if err := sqlDB.Ping(); err != nil {
			log.Fatalf("database ping failed: %v", err)
		}
		log.Println("database connection: OK")
	case "seed-dev":
		result, err := database.SeedDevelopment(db)
		if err != nil {
			log.Fatalf("seeding failed: %v", err)
		}
		log.Printf("seeded conversation %s with %d messages", result.Conversation.ID, len(result.Messages))
	default:
		fmt.Printf("Unknown command: %s\n", flag.Arg(0))
		flag.Usage()
		os.Exit(1)
	}
}
