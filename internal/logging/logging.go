package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the shared application logger
var Logger = logrus.New()

// Init configures the shared logger from the environment. Output is JSON
// so log aggregation can parse fields without extra work.
func Init() {
	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
	Logger.SetOutput(os.Stdout)

	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		Logger.SetLevel(logrus.DebugLevel)
	case "warn":
		Logger.SetLevel(logrus.WarnLevel)
	case "error":
		Logger.SetLevel(logrus.ErrorLevel)
	default:
		Logger.SetLevel(logrus.InfoLevel)
	}
}
