package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/daccred/lumenview.attest.so/config"
	"github.com/daccred/lumenview.attest.so/controllers"
	"github.com/daccred/lumenview.attest.so/db"
	"github.com/daccred/lumenview.attest.so/handlers"
	"github.com/daccred/lumenview.attest.so/horizon"
	"github.com/daccred/lumenview.attest.so/server"
	"github.com/daccred/lumenview.attest.so/store"
)

func main() {
	environment := flag.String("e", "development", "")
	flag.Usage = func() {
		fmt.Println("Usage: server -e {mode}")
		os.Exit(1)
	}
	flag.Parse()
	config.Init(*environment)

	logger := logrus.WithField("service", "lumenview")

	dbConn, err := db.Connect(config.DatabaseURL())
	if err != nil {
		logger.Fatalf("failed to connect to database: %v", err)
	}
	defer dbConn.Close()

	horizonClient := horizon.NewClient(horizon.Options{
		BaseURL:           config.HorizonBaseURL(),
		Timeout:           config.HorizonTimeout(),
		RequestsPerSecond: config.HorizonRequestsPerSecond(),
		MaxRetries:        config.HorizonMaxRetries(),
	}, logrus.WithField("service", "horizon"))

	explorer := handlers.NewExplorer(handlers.Config{
		TransactionLimit: config.CacheTransactionLimit(),
		RefreshInterval:  config.CacheRefreshInterval(),
	}, store.NewPostgres(dbConn), horizonClient, logger)

	controller := controllers.NewExplorerController(dbConn, explorer)
	router := server.NewRouter(controller)

	srv := &server.Server{}
	if err := srv.Run(router); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}
