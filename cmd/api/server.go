package main

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"os"

	mw "splitledger/internal/api/middlewares"
	"splitledger/internal/api/routers"
	authhandlers "splitledger/internal/api/handlers/auth"
	"splitledger/internal/auth"
	"splitledger/internal/repositories/sqlconnect"
	"splitledger/pkg/cron"
	"splitledger/pkg/utils"

	"github.com/joho/godotenv"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		return
	}

	utils.InitLogger()

	err = sqlconnect.ConnectDb()
	if err != nil {
		utils.Logger.Fatal("DB connection failed: ", err)
	}

	revocations := auth.NewSQLRevocationStore(sqlconnect.DB)
	authhandlers.Revocations = revocations

	c := cron.StartCronJob(sqlconnect.DB, revocations)
	defer c.Stop()

	port := os.Getenv("SERVER_PORT")

	cert := os.Getenv("CERT_FILE")
	key := os.Getenv("KEY_FILE")

	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}

	router := routers.MainRouter()
	jwtMiddleware := mw.MiddlewaresExcludePaths(mw.JWTMiddleware(revocations), "/users/signup", "/users/login", "/groups/code/")

	secureMux := mw.RequestLog(jwtMiddleware(mw.SecurityHeaders(router)))

	server := &http.Server{
		Addr:      port,
		Handler:   secureMux,
		TLSConfig: tlsConfig,
	}

	fmt.Println("Server is running on port", port)
	err = server.ListenAndServeTLS(cert, key)
	if err != nil {
		log.Fatalln("Error starting the server", err)
	}
}
