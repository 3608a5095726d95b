package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/dataportal/internal/buildinfo"
	"github.com/dmitrijs2005/dataportal/internal/client/cli"
	"github.com/dmitrijs2005/dataportal/internal/config"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
