package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"harugo/internal/config"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the configured database for the given driver type.
func Open(dbType string, cfg *config.Config) (*sql.DB, error) {
	dbCfg, ok := cfg.Databases[dbType]
	if !ok {
		return nil, fmt.Errorf("database config for %s not found", dbType)
	}

	var (
		db  *sql.DB
		err error
	)

	switch strings.ToLower(dbType) {
	case "sqlite", "sqlite3":
		if dbCfg.DSN == "" {
			return nil, fmt.Errorf("sqlite dsn must be provided")
		}
		db, err = sql.Open("sqlite3", dbCfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			dbCfg.Username,
			dbCfg.Password,
			dbCfg.Host,
			dbCfg.Port,
			dbCfg.DBName,
			dbCfg.Params,
		)
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", dbType)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate ensures the domain tables are present. Dates are stored as
// YYYY-MM-DD text and times as HH:MM:SS text so generated queries can match
// them literally.
func Migrate(db *sql.DB, driver string) error {
	var stmts []string
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				nickname TEXT NOT NULL,
				gender TEXT,
				mbti TEXT,
				created_at DATETIME NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS diaries (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id TEXT NOT NULL,
				date TEXT NOT NULL,
				mood TEXT NOT NULL,
				content TEXT NOT NULL,
				image_url TEXT,
				created_at DATETIME NOT NULL,
				FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
			)`,
			`CREATE TABLE IF NOT EXISTS chats (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id TEXT NOT NULL,
				role TEXT NOT NULL,
				content TEXT NOT NULL,
				sent_date TEXT NOT NULL,
				sent_time TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_diaries_user_date ON diaries(user_id, date)`,
			`CREATE INDEX IF NOT EXISTS idx_chats_user_date ON chats(user_id, sent_date)`,
		}
	case "mysql":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS users (
				id VARCHAR(64) NOT NULL,
				nickname VARCHAR(255) NOT NULL COMMENT 'display name chosen by the user',
				gender VARCHAR(32) COMMENT 'self-declared gender',
				mbti VARCHAR(8) COMMENT '16-way trait profile',
				created_at DATETIME NOT NULL,
				PRIMARY KEY (id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COMMENT='registered users'`,
			`CREATE TABLE IF NOT EXISTS diaries (
				id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				user_id VARCHAR(64) NOT NULL,
				date VARCHAR(10) NOT NULL COMMENT 'YYYY-MM-DD',
				mood VARCHAR(16) NOT NULL COMMENT 'happy, normal or sad',
				content MEDIUMTEXT NOT NULL,
				image_url TEXT,
				created_at DATETIME NOT NULL,
				PRIMARY KEY (id),
				INDEX idx_diaries_user_date (user_id, date),
				CONSTRAINT fk_diaries_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COMMENT='daily diary entries'`,
			`CREATE TABLE IF NOT EXISTS chats (
				id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				user_id VARCHAR(64) NOT NULL,
				role VARCHAR(32) NOT NULL,
				content MEDIUMTEXT NOT NULL,
				sent_date VARCHAR(10) NOT NULL COMMENT 'YYYY-MM-DD',
				sent_time VARCHAR(8) NOT NULL COMMENT 'HH:MM:SS',
				created_at DATETIME NOT NULL,
				PRIMARY KEY (id),
				INDEX idx_chats_user_date (user_id, sent_date),
				CONSTRAINT fk_chats_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COMMENT='raw conversation log'`,
		}
	default:
		return fmt.Errorf("unsupported driver for migration: %s", driver)
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate (%s): %w", driver, err)
		}
	}
	return nil
}
