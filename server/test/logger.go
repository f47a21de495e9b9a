package test

import (
	"github.com/connstate/connstate/server/logformatter"
	"github.com/connstate/connstate/server/logger"
)

func NewLogger() logger.Logger {
	return logger.NewFromEnv("CONNSTATE_LOG").WithFormatter(logformatter.New())
}
