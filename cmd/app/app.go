package main

import (
	"os"

	"github.com/briannabogos1157/threadtwin/internal/app"
	config "github.com/briannabogos1157/threadtwin/internal/cfg"
	"github.com/briannabogos1157/threadtwin/pkg/logger"
)

//	@title			threadtwin API
//	@version		1.0
//	@description	Поиск похожих товаров по эмбеддингам изображений и каталог товаров
//	@BasePath		/api

func main() {
	log := logger.NewSlogLogger()

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize app")
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		os.Exit(1)
	}
}
