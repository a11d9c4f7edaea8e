package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	emailPkg "dtcteamcrm/internal/adapters/email"
	web "dtcteamcrm/internal/adapters/http"
	"dtcteamcrm/internal/adapters/storage"
	studentStore "dtcteamcrm/internal/adapters/storage/student"
	userStore "dtcteamcrm/internal/adapters/storage/user"
	"dtcteamcrm/internal/application/orchestrators"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Initialize database with WAL mode, foreign keys, and busy timeout
	dbPath := envOrDefault("DTCCRM_DB", "dtccrm.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	// Health check
	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}

	if err := storage.InitDB(db); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	log.Println("Database initialized successfully!")

	// Wrap the DB so slow queries show up in the logs
	timedDB := storage.NewTimedDB(db)

	students := studentStore.NewSQLiteStore(timedDB)
	users := userStore.NewSQLiteStore(timedDB)
	stores := &web.Stores{
		StudentStore: students,
		UserStore:    users,
	}

	// Seed the owner account if it does not exist yet
	ownerEmail := envOrDefault("DTCCRM_OWNER_EMAIL", "owner@dtcteam.io")
	ownerPassword := envOrDefault("DTCCRM_OWNER_PASSWORD", "change-me-on-first-login")
	err = orchestrators.ExecuteSeedOwner(context.Background(), orchestrators.SeedOwnerInput{
		Email:    ownerEmail,
		Password: ownerPassword,
	}, orchestrators.SeedUsersDeps{UserStore: users})
	if err != nil {
		log.Fatalf("failed to seed owner: %v", err)
	}

	// Demo logins for every role, development only
	if os.Getenv("DTCCRM_ENV") != "production" {
		if err := orchestrators.ExecuteSeedDemoUsers(context.Background(), orchestrators.SeedUsersDeps{UserStore: users}); err != nil {
			log.Fatalf("failed to seed demo users: %v", err)
		}
	}

	// Configure email sender
	resendKey := os.Getenv("DTCCRM_RESEND_KEY")
	emailFrom := envOrDefault("DTCCRM_RESEND_FROM", "DTC Team <noreply@dtcteam.io>")
	emailReply := envOrDefault("DTCCRM_REPLY_TO", "renewals@dtcteam.io")
	if resendKey != "" {
		web.SetEmailSender(emailPkg.NewResendSender(resendKey, emailFrom), emailFrom, emailReply)
		log.Println("Email sender configured (Resend)")
	} else {
		web.SetEmailSender(emailPkg.NewNoopSender(), emailFrom, emailReply)
		if os.Getenv("DTCCRM_ENV") == "production" {
			log.Println("WARNING: DTCCRM_RESEND_KEY is not set, email delivery is DISABLED in production")
		} else {
			log.Println("Email sender configured (noop, set DTCCRM_RESEND_KEY for real delivery)")
		}
	}

	// Background sweep that flips past-end-date students to EXPIRED
	sweepInterval := time.Duration(envOrDefaultInt("DTCCRM_SWEEP_INTERVAL_MIN", 60)) * time.Minute
	sweepStopCh := make(chan struct{})
	orchestrators.StartExpirationWorker(orchestrators.ExpireStudentsDeps{
		StudentStore: students,
	}, sweepInterval, sweepStopCh)
	defer close(sweepStopCh)

	// Create HTTP handler with middleware
	mux := web.NewMux("static", stores)

	// Start server
	addr := envOrDefault("DTCCRM_ADDR", ":8080")
	log.Printf("DTC Team CRM %s starting on %s (env=%s)", version, addr, envOrDefault("DTCCRM_ENV", "development"))

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
