package storage

import (
	"database/sql"
	"fmt"
	"strings"
)

// Describe renders the live database structure as prompt context: tables,
// columns, keys, foreign keys and comments. It introspects the catalog views
// on every call; callers wanting caching layer it themselves.
func Describe(db *sql.DB, driver, dbName string) (string, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return describeSQLite(db)
	case "mysql":
		return describeMySQL(db, dbName)
	default:
		return "", fmt.Errorf("unsupported driver for schema description: %s", driver)
	}
}

func describeMySQL(db *sql.DB, dbName string) (string, error) {
	rows, err := db.Query(`
		SELECT t.TABLE_NAME, t.TABLE_COMMENT
		FROM information_schema.TABLES t
		WHERE t.TABLE_SCHEMA = ?
		ORDER BY t.TABLE_NAME`, dbName)
	if err != nil {
		return "", fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	type tableMeta struct {
		name    string
		comment string
	}
	var tables []tableMeta
	for rows.Next() {
		var tm tableMeta
		if err := rows.Scan(&tm.name, &tm.comment); err != nil {
			return "", fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, tm)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	var sections []string
	for _, table := range tables {
		var b strings.Builder
		fmt.Fprintf(&b, "Table: %s\n", table.name)
		if table.comment != "" {
			fmt.Fprintf(&b, "Description: %s\n", table.comment)
		}
		b.WriteString("Columns:\n")

		colRows, err := db.Query(`
			SELECT c.COLUMN_NAME, c.COLUMN_TYPE, c.IS_NULLABLE, c.COLUMN_KEY,
				c.COLUMN_DEFAULT, c.COLUMN_COMMENT
			FROM information_schema.COLUMNS c
			WHERE c.TABLE_SCHEMA = ? AND c.TABLE_NAME = ?
			ORDER BY c.ORDINAL_POSITION`, dbName, table.name)
		if err != nil {
			return "", fmt.Errorf("list columns for %s: %w", table.name, err)
		}
		for colRows.Next() {
			var name, colType, nullable, key, comment string
			var colDefault sql.NullString
			if err := colRows.Scan(&name, &colType, &nullable, &key, &colDefault, &comment); err != nil {
				colRows.Close()
				return "", fmt.Errorf("scan column: %w", err)
			}
			line := fmt.Sprintf("  - %s (%s)", name, colType)
			if key == "PRI" {
				line += " [PRIMARY KEY]"
			}
			if nullable == "NO" {
				line += " [NOT NULL]"
			}
			if colDefault.Valid {
				line += fmt.Sprintf(" [DEFAULT: %s]", colDefault.String)
			}
			if comment != "" {
				line += " - " + comment
			}
			b.WriteString(line + "\n")
		}
		colRows.Close()

		fkRows, err := db.Query(`
			SELECT k.COLUMN_NAME, k.REFERENCED_TABLE_NAME, k.REFERENCED_COLUMN_NAME
			FROM information_schema.KEY_COLUMN_USAGE k
			WHERE k.TABLE_SCHEMA = ? AND k.TABLE_NAME = ?
				AND k.REFERENCED_TABLE_NAME IS NOT NULL`, dbName, table.name)
		if err != nil {
			return "", fmt.Errorf("list foreign keys for %s: %w", table.name, err)
		}
		var fks []string
		for fkRows.Next() {
			var column, refTable, refColumn string
			if err := fkRows.Scan(&column, &refTable, &refColumn); err != nil {
				fkRows.Close()
				return "", fmt.Errorf("scan foreign key: %w", err)
			}
			fks = append(fks, fmt.Sprintf("  - %s -> %s.%s", column, refTable, refColumn))
		}
		fkRows.Close()
		if len(fks) > 0 {
			b.WriteString("Foreign Keys:\n")
			b.WriteString(strings.Join(fks, "\n") + "\n")
		}

		sections = append(sections, strings.TrimRight(b.String(), "\n"))
	}
	return strings.Join(sections, "\n\n"), nil
}

func describeSQLite(db *sql.DB) (string, error) {
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return "", fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return "", fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	var sections []string
	for _, table := range tables {
		var b strings.Builder
		fmt.Fprintf(&b, "Table: %s\nColumns:\n", table)

		colRows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%q)", table))
		if err != nil {
			return "", fmt.Errorf("table info for %s: %w", table, err)
		}
		for colRows.Next() {
			var cid int
			var name, colType string
			var notNull, pk int
			var dflt sql.NullString
			if err := colRows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
				colRows.Close()
				return "", fmt.Errorf("scan column: %w", err)
			}
			line := fmt.Sprintf("  - %s (%s)", name, colType)
			if pk > 0 {
				line += " [PRIMARY KEY]"
			}
			if notNull == 1 {
				line += " [NOT NULL]"
			}
			if dflt.Valid {
				line += fmt.Sprintf(" [DEFAULT: %s]", dflt.String)
			}
			b.WriteString(line + "\n")
		}
		colRows.Close()

		fkRows, err := db.Query(fmt.Sprintf("PRAGMA foreign_key_list(%q)", table))
		if err != nil {
			return "", fmt.Errorf("foreign keys for %s: %w", table, err)
		}
		var fks []string
		for fkRows.Next() {
			var id, seq int
			var refTable, from, to, onUpdate, onDelete, match string
			if err := fkRows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
				fkRows.Close()
				return "", fmt.Errorf("scan foreign key: %w", err)
			}
			fks = append(fks, fmt.Sprintf("  - %s -> %s.%s", from, refTable, to))
		}
		fkRows.Close()
		if len(fks) > 0 {
			b.WriteString("Foreign Keys:\n")
			b.WriteString(strings.Join(fks, "\n") + "\n")
		}

		sections = append(sections, strings.TrimRight(b.String(), "\n"))
	}
	return strings.Join(sections, "\n\n"), nil
}
