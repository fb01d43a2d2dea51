// Command seed fills the configured database with development data.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"plume/internal/config"
	"plume/internal/database"
	"plume/internal/middleware"
	"plume/internal/seed"
)

func main() {
	opts := seed.DefaultOptions()
	flag.IntVar(&opts.Users, "users", opts.Users, "number of users to create")
	flag.IntVar(&opts.Groups, "groups", opts.Groups, "number of groups to create")
	flag.IntVar(&opts.Posts, "posts", opts.Posts, "number of posts to create")
	flag.IntVar(&opts.Comments, "comments", opts.Comments, "number of comments to create")
	flag.IntVar(&opts.Follows, "follows", opts.Follows, "number of follow edges to create")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		middleware.Logger.Error("config load failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.IsProduction() {
		middleware.Logger.Error("refusing to seed a production database")
		os.Exit(1)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		middleware.Logger.Error("database connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := seed.Run(context.Background(), db, opts); err != nil {
		middleware.Logger.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
