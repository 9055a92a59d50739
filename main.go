package main

import (
	"log"

	_ "coach-hub/docs"
	"coach-hub/internal/app"
)

// @title coach-hub API
// @version 1.0
// @description Program CSV uploads, meet notifications and the product wizard.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
