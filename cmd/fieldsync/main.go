package main

import (
	"context"
	"log"
	"os"

	"github.com/rutero-app/fieldsync/internal/app"
	"github.com/rutero-app/fieldsync/internal/buildinfo"
	"github.com/rutero-app/fieldsync/internal/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	a, err := app.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	if err := a.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
