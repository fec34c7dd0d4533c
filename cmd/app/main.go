package main

import (
	"medibook/config"
	"medibook/di"
	"medibook/shared/logger"
)

// @title Medibook API
// @version 1.0
// @description Clinic appointment booking and live queue service.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	http := di.InitializeService()
	http.Serve()
}
