package main

import (
	"context"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ammiranda/repose/config"
	"github.com/ammiranda/repose/handlers"
	"github.com/ammiranda/repose/internal/lambda"
	"github.com/ammiranda/repose/logger"
	"github.com/ammiranda/repose/storage"
)

func main() {
	ctx := context.Background()

	logger.Init(&logger.Config{Level: "info", Format: "json", Output: "stdout"})
	defer logger.Sync()
	log := logger.Named("lambda")

	cfgProvider := config.NewEnvProvider("")
	if secrets, err := config.NewAWSConfigProvider(ctx); err == nil {
		cfgProvider = config.NewChainProvider(cfgProvider, secrets)
	} else {
		log.Info("secrets manager not configured", zap.Error(err))
	}

	cfg, err := config.GetStorageConfig(ctx, cfgProvider)
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	store, err := storage.Open(ctx, cfg, cfgProvider, log)
	if err != nil {
		log.Fatal("failed to open storage", zap.Error(err))
	}

	gin.SetMode(gin.ReleaseMode)
	handler := lambda.NewHandler(handlers.NewRouter(store, log.Named("http")), log)
	awslambda.Start(handler.Handle)
}
