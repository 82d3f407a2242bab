package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var (
	db *gorm.DB
)

// GetDB returns the audit database, nil until connected (or when auditing is disabled).
func GetDB() *gorm.DB {
	return db
}

// AuditEnabled reports whether an audit database is configured.
func AuditEnabled() bool {
	return strings.TrimSpace(os.Getenv("DB_HOST")) != ""
}

// ConnectDatabaseWithRetry connects and sets the global DB.
// Call this from main() AFTER the HTTP server is listening.
func ConnectDatabaseWithRetry() {
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbName := os.Getenv("DB_NAME")

	network := "tcp"
	address := fmt.Sprintf("%s:%s", dbHost, dbPort)

	// Cloud SQL: when DB_HOST is "/cloudsql/<CONNECTION_NAME>",
	// connect using the Unix domain socket provided by the auth proxy.
	if strings.HasPrefix(dbHost, "/cloudsql/") {
		network = "unix"
		address = dbHost
	}

	dsn := gomysql.NewConfig()
	dsn.User = dbUser
	dsn.Passwd = dbPassword
	dsn.Net = network
	dsn.Addr = address
	dsn.DBName = dbName
	dsn.ParseTime = true
	databaseConfig := dsn.FormatDSN()

	var attempt int
	for {
		attempt++
		conn, err := gorm.Open(mysql.Open(databaseConfig), initConfig())
		if err == nil {
			if sqlDB, derr := conn.DB(); derr == nil && sqlDB != nil {
				maxOpen := intFromEnv("DB_MAX_OPEN_CONNS", 10)
				maxIdle := intFromEnv("DB_MAX_IDLE_CONNS", 5)
				connMaxLife := time.Duration(intFromEnv("DB_CONN_MAX_LIFETIME_SECONDS", 300)) * time.Second

				if maxOpen > 0 {
					sqlDB.SetMaxOpenConns(maxOpen)
				}
				if maxIdle >= 0 {
					sqlDB.SetMaxIdleConns(maxIdle)
				}
				if connMaxLife > 0 {
					sqlDB.SetConnMaxLifetime(connMaxLife)
				}
			}

			if pluginErr := conn.Use(otelgorm.NewPlugin()); pluginErr != nil {
				log.Printf("db connected but failed to install otelgorm plugin: %v", pluginErr)
			}
			db = conn
			log.Printf("connected to database (attempt=%d)", attempt)
			return
		}

		sleep := backoff(attempt)
		log.Printf("failed to connect database (attempt=%d): %v; retrying in %s", attempt, err, sleep)
		time.Sleep(sleep)
	}
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// backoff doubles per attempt, capped at 30s.
func backoff(attempt int) time.Duration {
	sleep := time.Second * time.Duration(1<<min(attempt, 5))
	if sleep > 30*time.Second {
		sleep = 30 * time.Second
	}
	return sleep
}

func initConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				Colorful:      false,
				LogLevel:      logger.Error,
				SlowThreshold: time.Second,
			},
		),
		NamingStrategy: &schema.NamingStrategy{
			SingularTable: false,
		},
	}
}
