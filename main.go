package main

import (
	"context"

	"github.com/shandysiswandi/gotfa/internal/app"
)

// @title           GoTFA API
// @version         1.0
// @description     GoTFA provides password login with a TOTP or backup-code second factor.
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:8080
// @server          https://localhost:8080
// @securityDefinitions.apikey  BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT.
func main() {
	application := app.New()
	<-application.Start()

	ctx, cancel := context.WithTimeout(context.Background(), application.ShutdownTimeout())
	defer cancel()
	application.Stop(ctx)
}
