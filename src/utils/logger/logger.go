package logger

import (
	"os"

	"github.com/ika-tensei/relayer/src/utils/config"
	"github.com/sirupsen/logrus"
)

func Init(config *config.Config) (err error) {
	// Global settings
	level, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		return
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stdout)

	if config.IsDevelopment {
		logrus.SetFormatter(&logrus.TextFormatter{
			ForceColors:   true,
			DisableColors: false,
			FullTimestamp: true,
		})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	return
}

func NewSublogger(tag string) (entry *logrus.Entry) {
	logger := logrus.StandardLogger()
	return logger.WithFields(logrus.Fields{"module": "tensei." + tag})
}
