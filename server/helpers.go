package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator"
	"github.com/sindi/umshado/server/models"
	"github.com/sindi/umshado/server/phone"
	"github.com/sindi/umshado/server/work"
	"github.com/sindi/umshado/utils"
)

// ---------------------------------------------------------------------------------//
// Handler Helper functions
// --------------------------------------------------------------------------------//

func writeResponse(rw http.ResponseWriter, payLoad ResponsePayload, statusCode int) {
	if statusCode >= http.StatusInternalServerError {
		logg.Error(payLoad.Errors)
	} else if statusCode >= http.StatusBadRequest {
		logg.Info(payLoad.Errors)
	}

	rw.WriteHeader(statusCode)
	json.NewEncoder(rw).Encode(payLoad)
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}

	return page
}

// normalizedPhone canonicalizes a raw phone value once, at the API
// boundary. Everything downstream trusts the result.
func normalizedPhone(raw string) string {
	return phone.Normalize(raw, serverConfig.Umshado.Wedding.DefaultCountryCode)
}

func RegisterValidators(validate *validator.Validate) error {
	err := validate.RegisterValidation("rsvp_reply", func(fl validator.FieldLevel) bool {
		status := fl.Field().String()
		return status == models.ACCEPTED_RSVP || status == models.DECLINED_RSVP
	})
	if err != nil {
		return err
	}

	return nil
}

// ---------------------------------------------------------------------------------//
// Server Helper functions
// --------------------------------------------------------------------------------//

func serve(server *http.Server) {
	logg.Infof("Umshado server is listening on port:%v", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Fatal(err)
	}
}

func cleanup(workerPool *work.WorkerPoolAdapter, server *http.Server, backupDb bool) {
	// Stop invite-delivery & backup jobs before the db goes away
	workerPool.Stop()

	if backupDb {
		if err := backupSqliteDb(nil); err != nil {
			logg.Error(err)
		}
	}

	// Shutdown server gracefully
	ctxShutDown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutDown); err != nil {
		logg.Fatalf("Umshado server shutdown failed:%+s", err)
	}

	logg.Infof("Umshado server stopped properly")
}

// configDirectory retrieves the directory holding the sqlite db,
// or logs an error message and then calls os.Exit if it's unable to.
func configDirectory(devMode bool) string {
	// Use 'umshado' folder in home directory for prod
	configFolderName := "umshado"
	rootDir, err := os.UserHomeDir()
	fatalOnError(err)

	// Use 'dev' folder in current directory for dev mode
	if devMode {
		configFolderName = "dev"
		rootDir, err = os.Getwd()
		fatalOnError(err)
	}

	configDir := filepath.Join(rootDir, configFolderName)

	err = utils.CreateDirIfNotExist(configDir)
	fatalOnError(err)

	return configDir
}

func sqliteBackupEnabled() bool {
	enabled, ok := serverConfig.Google.Storage.EnableSqliteBackupAndSync.(bool)
	return ok && enabled
}

func fatalOnError(err error) {
	if err != nil {
		logg.Fatal(err)
	}
}
