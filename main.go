package main

import (
	"log"

	"github.com/feedcircle/feedcircle/config"
	"github.com/feedcircle/feedcircle/models"
	"github.com/feedcircle/feedcircle/routes"
	"github.com/feedcircle/feedcircle/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db := config.InitDatabase(
		&models.User{},
		&models.Group{},
		&models.GroupMember{},
		&models.Feed{},
		&models.Comment{},
		&models.Like{},
		&models.ChatMessage{},
	)

	router, err := routes.SetupRouter(db)
	if err != nil {
		utils.Sugar.Fatalf("failed to set up router: %v", err)
	}

	utils.Sugar.Infof("listening on :%s", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, router, func() {
		utils.Sugar.Info("draining connections")
	}); err != nil {
		utils.Sugar.Fatalf("server error: %v", err)
	}
}
