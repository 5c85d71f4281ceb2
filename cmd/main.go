package main

import (
	"os"
)

// @title                       visiverse API
// @version                     1.0
// @description                 Self-hosted media library server.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
