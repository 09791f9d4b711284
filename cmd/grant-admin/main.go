package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"expert-qa/internal/config"
	"expert-qa/internal/repository/sqlstore"
	"expert-qa/internal/service"
)

func main() {
	name := flag.String("name", "", "name of the user to change")
	revoke := flag.Bool("revoke", false, "remove admin rights instead of granting them")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if *name == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sqlstore.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlstore.NewUserRepository(db)
	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}

	user, err := service.NewUserService(userRepo).SetAdmin(ctx, *name, !*revoke)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			logger.Fatalf("user %q does not exist", *name)
		}
		logger.Fatalf("update user: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"user":  user.Name,
		"id":    user.ID,
		"admin": user.Admin,
	}).Info("admin flag updated")
}
