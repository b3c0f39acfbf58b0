package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/dmitrijs2005/datacleaner/internal/admin/cli"
	"github.com/dmitrijs2005/datacleaner/internal/flagx"
	"github.com/dmitrijs2005/datacleaner/internal/server/config"
)

func main() {

	args := flagx.FilterArgs(os.Args[1:], []string{"-mode", "-defaults", "-email"})

	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	mode := fs.String("mode", "createadmin", "command: createadmin, resetmfa, unlock or purgesessions")
	useDefaults := fs.Bool("defaults", false, "create the default admin account without prompting")
	email := fs.String("email", "", "account email for resetmfa and unlock")
	if err := fs.Parse(args); err != nil {
		log.Fatalf("%v", err)
	}

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx, *mode, *useDefaults, *email); err != nil {
		log.Fatalf("%v", err)
	}
}
