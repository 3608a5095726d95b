package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/dataportal/internal/buildinfo"
	"github.com/dmitrijs2005/dataportal/internal/config"
	"github.com/dmitrijs2005/dataportal/internal/server"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		os.Exit(1)
	}
}
