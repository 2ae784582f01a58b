package main

import "marketChat/cmd/app"

//go:generate swag init -g main.go -o docs

// @title                       Market Chat API
// @version                     1.0
// @description                 Buyer and seller conversations, messages and notifications.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	app.GetApp().LetsGo()
}
