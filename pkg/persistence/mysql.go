package persistence

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dualtor-linkmgrd/pkg/model"
)

// OpenRemoteStore opens the optional fleet-wide audit store and admin-user
// table, adapted from pkg/db/mysql.go's Init(): same env-driven DSN assembly, same
// "create database if missing" fallback, same connection-pool tuning.
//
// Env:
//
//	LINKMGRD_MYSQL_DSN or LINKMGRD_MYSQL_{HOST,PORT,USER,PASS,DB}
func OpenRemoteStore() (*gorm.DB, error) {
	host := getenv("LINKMGRD_MYSQL_HOST", "127.0.0.1")
	port := getenv("LINKMGRD_MYSQL_PORT", "3306")
	user := getenv("LINKMGRD_MYSQL_USER", "root")
	pass := getenv("LINKMGRD_MYSQL_PASS", "")
	dbname := getenv("LINKMGRD_MYSQL_DB", "linkmgrd")

	dsn := os.Getenv("LINKMGRD_MYSQL_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local", user, pass, host, port, dbname)
	}

	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	db, err := gorm.Open(mysql.Open(dsn), cfg)
	if err != nil {
		if strings.Contains(err.Error(), "Unknown database") {
			if cerr := createDatabase(user, pass, host, port, dbname); cerr != nil {
				return nil, fmt.Errorf("persistence: create database: %w", cerr)
			}
			db, err = gorm.Open(mysql.Open(dsn), cfg)
			if err != nil {
				return nil, err
			}
		} else {
			return nil, err
		}
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	if err := db.AutoMigrate(&model.User{}, &remoteAuditRow{}); err != nil {
		return nil, err
	}
	return db, nil
}

// remoteAuditRow is model.AuditEntry's gorm-mapped counterpart for the
// fleet-wide store; model.AuditEntry itself stays storage-agnostic.
type remoteAuditRow struct {
	ID        uint      `gorm:"primaryKey"`
	Actor     string    `gorm:"index"`
	Action    string
	Target    string
	Detail    string
	Timestamp time.Time `gorm:"index"`
}

// AppendAudit writes entry to the fleet-wide audit table.
func AppendAudit(db *gorm.DB, entry model.AuditEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	row := remoteAuditRow{
		Actor:     entry.Actor,
		Action:    entry.Action,
		Target:    entry.Target,
		Detail:    entry.Detail,
		Timestamp: entry.Timestamp,
	}
	return db.Create(&row).Error
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func createDatabase(user, pass, host, port, dbname string) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/", user, pass, host, port)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.Exec(fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` DEFAULT CHARACTER SET utf8mb4", dbname))
	return err
}
