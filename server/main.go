// The control-plane server: receives sensor ingests from the controller,
// serves the desired relay mask it polls, and exposes the readings API plus
// a small session-protected operator dashboard.
package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"html/template"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"siboltech/hydroponics/server/internal/models"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/go-playground/form/v4"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

type application struct {
	logger         *slog.Logger
	users          models.UserModelInterface
	readings       models.ReadingModelInterface
	relays         models.RelayModelInterface
	apiKey         string
	templateCache  map[string]*template.Template
	formDecoder    *form.Decoder
	sessionManager *scs.SessionManager
}

type ServerConfig struct {
	APIKey     string `json:"api_key"`
	RelayCount int    `json:"relay_count"`
	AdminUser  struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Username string `json:"username"`
	} `json:"adminUser"`
}

func main() {
	addr := flag.String("addr", ":5000", "HTTP network address")
	dsn := flag.String("dsn", "instance/sensors.db", "SQLite database file path")
	configPath := flag.String("config", "config.json", "server config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := loadServerConfig(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := openDB(*dsn)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	defer db.Close()

	createTables(db, logger)

	if err := seedAdminUser(db, cfg); err != nil {
		logger.Error("Error seeding admin user:", "error", err)
	}

	relays, err := models.NewRelayModel(db, cfg.RelayCount)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	templateCache, err := newTemplateCache()
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	formDecoder := form.NewDecoder()

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.New(db)
	sessionManager.Lifetime = 12 * time.Hour

	app := &application{
		logger:         logger,
		users:          &models.UserModel{DB: db},
		readings:       &models.ReadingModel{DB: db},
		relays:         relays,
		apiKey:         cfg.APIKey,
		templateCache:  templateCache,
		formDecoder:    formDecoder,
		sessionManager: sessionManager,
	}

	srv := &http.Server{
		Addr:         *addr,
		Handler:      app.routes(),
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logger.Info("starting server", "addr", *addr)
	err = srv.ListenAndServe()
	logger.Error(err.Error())
	os.Exit(1)
}

func loadServerConfig(path string) (ServerConfig, error) {
	var cfg ServerConfig
	configFile, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer configFile.Close()

	byteValue, _ := io.ReadAll(configFile)
	if err := json.Unmarshal(byteValue, &cfg); err != nil {
		return cfg, err
	}
	if cfg.APIKey == "" {
		return cfg, fmt.Errorf("config: api_key is required")
	}
	if cfg.RelayCount <= 0 {
		cfg.RelayCount = 9
	}
	return cfg, nil
}

func openDB(dsn string) (*sql.DB, error) {
	if dir := dirOf(dsn); dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create db directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func dirOf(dsn string) string {
	if i := strings.LastIndexByte(dsn, '/'); i > 0 {
		return dsn[:i]
	}
	return ""
}

func createTables(db *sql.DB, logger *slog.Logger) {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sensor_readings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME NOT NULL,
			sensor TEXT NOT NULL,
			value REAL,
			unit TEXT,
			device TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS sensor_readings_ts_idx ON sensor_readings (timestamp);`,
		`CREATE TABLE IF NOT EXISTS actuator_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME NOT NULL,
			relay_id INTEGER NOT NULL,
			state INTEGER NOT NULL,
			source TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS relay_desired (
			id INTEGER PRIMARY KEY,
			mask TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token CHAR(43) PRIMARY KEY,
			data BLOB NOT NULL,
			expiry TIMESTAMP(6) NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions (expiry);`,
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			password CHAR(60) NOT NULL,
			authorised INTEGER DEFAULT 0,
			admin INTEGER DEFAULT 0,
			created DATETIME NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			logger.Error("failed to create table", "error", err)
			return // Return, don't exit
		}
	}
	logger.Info("Tables created or already existed")
}

func seedAdminUser(db *sql.DB, cfg ServerConfig) error {
	if cfg.AdminUser.Email == "" {
		return nil
	}
	currentTime := time.Now().UTC()

	var existingID int
	err := db.QueryRow("SELECT id FROM users WHERE admin = 1 LIMIT 1").Scan(&existingID)
	if err == nil {
		log.Println("Admin user already exists, skipping seeding.")
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("error checking for existing admin: %w", err)
	}

	password, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminUser.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = db.Exec("INSERT INTO users (username, email, password, authorised, admin, created) VALUES (?, ?, ?, ?, ?, ?)",
		cfg.AdminUser.Username, cfg.AdminUser.Email, string(password), 1, 1, currentTime)
	if err != nil {
		return fmt.Errorf("error inserting admin user: %w", err)
	}

	log.Println("Admin user created successfully.")
	return nil
}
