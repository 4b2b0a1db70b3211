package server

import (
	"errors"

	"github.com/sindi/umshado/server/dispatcher"
	"github.com/sindi/umshado/server/gstorage"
	"github.com/sindi/umshado/server/models"
	"github.com/sindi/umshado/server/work"
	"github.com/sindi/umshado/utils"
)

const sqliteBackupJobName = "backup_sqlite_db"

// set once on boot, so job handlers can find the db file
var appConfigDir string

func registerJobHandlers(wpa *work.WorkerPoolAdapter) {
	fatalOnError(wpa.Register(dispatcher.DeliverInviteHandlerName, inviteDispatcher.DeliverInviteJobHandler))
	fatalOnError(wpa.Register(sqliteBackupJobName, backupSqliteDb))
}

func enqueueJobs(wpa *work.WorkerPoolAdapter) {
	if !sqliteBackupEnabled() {
		return
	}

	fatalOnError(wpa.PeriodicallyPerform(serverConfig.Google.Storage.SqliteBackupSchedule, work.JobParams{
		Name:    sqliteBackupJobName,
		Handler: sqliteBackupJobName,
		Unique:  true,
		Args:    map[string]interface{}{},
	}))
}

func backupSqliteDb(map[string]interface{}) error {
	storage, err := newGStorage()
	if err != nil {
		return err
	}

	return storage.UploadFile(
		serverConfig.Google.Storage.Bucket,
		serverConfig.Google.Storage.Prefix,
		models.DbFilePath(appConfigDir),
	)
}

// restoreSqliteDbIfNotExist pulls the last backed-up db file from cloud
// storage when no local copy exists e.g. on a fresh host. A missing
// remote object is not an error, the db is simply created from scratch.
func restoreSqliteDbIfNotExist(dbRootDir string) {
	dbFilePath := models.DbFilePath(dbRootDir)
	if utils.FileExist(dbFilePath) {
		return
	}

	storage, err := newGStorage()
	fatalOnError(err)

	object := models.DB_NAME
	if serverConfig.Google.Storage.Prefix != "" {
		object = serverConfig.Google.Storage.Prefix + "/" + models.DB_NAME
	}

	err = storage.DownloadFile(serverConfig.Google.Storage.Bucket, object, dbFilePath)
	if errors.Is(err, gstorage.ErrObjectNotExist) {
		logg.Infof("No sqlite backup found in gs://%v, starting with a fresh db", serverConfig.Google.Storage.Bucket)
		return
	}
	fatalOnError(err)

	logg.Infof("Restored sqlite db from gs://%v/%v", serverConfig.Google.Storage.Bucket, object)
}

func newGStorage() (*gstorage.GStorage, error) {
	return gstorage.NewGStorage(serverConfig.Google.ApplicationCredentials)
}
