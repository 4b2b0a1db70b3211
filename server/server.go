package server

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator"
	"github.com/gorilla/mux"
	"github.com/sindi/umshado/server/auth/key"
	"github.com/sindi/umshado/server/dispatcher"
	"github.com/sindi/umshado/server/logger"
	"github.com/sindi/umshado/server/messaging"
	"github.com/sindi/umshado/server/models"
	"github.com/sindi/umshado/server/work"
	"github.com/sindi/umshado/shared"
	"github.com/spf13/viper"
)

var (
	logg     = logger.NewLogger()
	validate = validator.New()

	serverConfig     *shared.ServerConfig
	authKeyPair      *key.KeyPair
	inviteDispatcher *dispatcher.InviteDispatcher
	workerPool       *work.WorkerPoolAdapter
)

// Start boots the whole service: config, encrypted sqlite, the active
// whatsapp provider, delivery workers & the http listener. It blocks
// until SIGINT/SIGTERM, then drains jobs and shuts the listener down.
func Start(config *viper.Viper, devMode bool) {
	fatalOnError(RegisterValidators(validate))
	fatalOnError(initServerConfig(config))

	appConfigDir = configDirectory(devMode)

	// When backups are on, try to restore a missing db file
	// from cloud storage before migrations run against it.
	if sqliteBackupEnabled() {
		restoreSqliteDbIfNotExist(appConfigDir)
	}

	fatalOnError(models.AutoMigrate(serverConfig.Sqlite.PassPhrase, appConfigDir))

	var err error
	authKeyPair, err = key.NewKeyPairFromRSAPrivateKeyPem(serverConfig.Umshado.PrivateKeyPem)
	fatalOnError(err)

	provider, err := messaging.NewProvider(serverConfig.Providers)
	fatalOnError(err)
	inviteDispatcher = dispatcher.NewInviteDispatcher(provider, serverConfig.Umshado.Wedding)
	logg.Infof("Invites will be delivered via %v", inviteDispatcher.ProviderName())

	workerPool = work.NewWorkerAdapter(serverConfig.Umshado.Cron.TimeZone, false)
	registerJobHandlers(workerPool)
	enqueueJobs(workerPool)
	fatalOnError(workerPool.Start())

	server := &http.Server{
		Handler:      NewRouter(),
		Addr:         fmt.Sprintf(":%v", serverConfig.Umshado.Listener.Port),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}
	go serve(server)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	cleanup(workerPool, server, sqliteBackupEnabled())
}

func NewRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware)

	router.HandleFunc("/", guestPage).Methods("GET")
	router.HandleFunc("/admin", adminPage).Methods("GET")

	wellKnownRouter := router.PathPrefix("/.well-known").Subrouter()
	wellKnownRouter.Use(jsonContentTypeMiddleware)
	wellKnownRouter.HandleFunc("/jwks.json", jwks).Methods("GET")

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(jsonContentTypeMiddleware)

	apiRouter.HandleFunc("/add_guest", addGuest).Methods("POST")
	apiRouter.HandleFunc("/guests", listGuests).Methods("GET")
	apiRouter.HandleFunc("/login", logIn).Methods("POST")
	apiRouter.HandleFunc("/admin_login", adminLogIn).Methods("POST")
	apiRouter.HandleFunc("/rsvp", updateRSVP).Methods("POST")

	apiRouter.HandleFunc("/send_invite/{id:[0-9]+}", sendInvite).Methods("POST")
	apiRouter.HandleFunc("/send_invite_with_delay/{id:[0-9]+}", sendInviteWithDelay).Methods("POST")
	apiRouter.HandleFunc("/send_all_invites", sendAllInvites).Methods("POST")

	apiRouter.HandleFunc("/delete_guest/{id:[0-9]+}", deleteGuest).Methods("DELETE")

	apiRouter.HandleFunc("/test_whatsapp", testWhatsapp).Methods("GET")
	apiRouter.HandleFunc("/test_whatsapp_detailed", testWhatsappDetailed).Methods("GET")
	apiRouter.HandleFunc("/jobs/stats", jobStats).Methods("GET")

	adminRouter := apiRouter.NewRoute().Subrouter()
	adminRouter.Use(adminRouteMiddleware)
	adminRouter.HandleFunc("/delete_all_guests", deleteAllGuests).Methods("DELETE")
	adminRouter.HandleFunc("/delete_test_guests", deleteTestGuests).Methods("DELETE")

	return router
}

func initServerConfig(config *viper.Viper) error {
	serverConfig = &shared.ServerConfig{}

	if err := config.Unmarshal(serverConfig); err != nil {
		return err
	}

	return validate.Struct(serverConfig)
}
