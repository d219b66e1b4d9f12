package main

import (
	"github.com/KarpovAlexandrGo/task-api/internal/app"
	"github.com/KarpovAlexandrGo/task-api/pkg/logger"
)

// @title           Task Management API
// @version         1.0
// @description     CRUD API for task records backed by a document store.

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /

func main() {
	a, err := app.NewApp()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize app")
	}

	if err := a.Run(); err != nil {
		logger.Log.WithError(err).Fatal("Failed to run app")
	}
}

