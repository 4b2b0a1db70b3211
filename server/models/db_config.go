package models

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	sqliteEncrypt "github.com/Daskott/gorm-sqlite-cipher"
	"github.com/sindi/umshado/server/logger"
	"github.com/sindi/umshado/utils"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const DB_NAME = "umshado.db"

var logg = logger.NewLogger()
var db *gorm.DB

// AutoMigrate auto-migrates the db schema and inserts seed data
func AutoMigrate(passPhrase string, dbRootDir string) error {
	err := openDB(passPhrase, dbRootDir)
	if err != nil {
		return err
	}

	db.AutoMigrate(&JobStatus{}, &Job{}, &Guest{})

	populateDBWithSeedData()

	return nil
}

// DbFilePath returns the location of the sqlite file, used by the
// cloud backup job.
func DbFilePath(dbRootDir string) string {
	return filepath.Join(dbRootDir, DB_NAME)
}

// InitializeTestDb points the models package at a throwaway sqlite file,
// so each test run starts from a clean schema.
func InitializeTestDb() {
	dbRootDir := filepath.Join(os.TempDir(), "umshado-test")
	if err := utils.CreateDirIfNotExist(dbRootDir); err != nil {
		logg.Panic(err)
	}

	os.Remove(DbFilePath(dbRootDir))

	if err := AutoMigrate("test-passphrase", dbRootDir); err != nil {
		logg.Panic(err)
	}
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//
func openDB(passPhrase string, dbRootDir string) error {
	var err error

	dbDSNVal, err := dbDSN(passPhrase, dbRootDir)
	if err != nil {
		return fmt.Errorf("failed to set sqlite DSN: %v", err)
	}

	db, err = gorm.Open(sqliteEncrypt.Open(dbDSNVal), &gorm.Config{
		Logger: gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				LogLevel:                  gormLogger.Silent,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	})
	if err != nil {
		return fmt.Errorf("failed to connect database: %v", err)
	}

	return nil
}

func dbDSN(passPhrase string, dbRootDir string) (string, error) {
	if err := utils.CreateDirIfNotExist(dbRootDir); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s?_pragma_key=%s&_pragma_cipher_page_size=4096",
		DbFilePath(dbRootDir), passPhrase), nil
}

func populateDBWithSeedData() {
	if err := db.First(&JobStatus{}).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		logg.Info("Inserting seed data into 'JobStatus'")
		db.Create(&[]JobStatus{
			{Name: ENQUEUED_JOB}, {Name: IN_PROGRESS_JOB}, {Name: SCHEDULED_JOB},
			{Name: SUCCESSFUL_JOB}, {Name: DEAD_JOB},
		})
	}
}
