package config

import (
	"time"

	"github.com/spf13/viper"
)

type Redis struct {
	Port     uint16
	Host     string
	User     string
	Password string
	DB       int

	// TLS configuration
	ClientKey  string
	ClientCert string
	CaCert     string

	// Connection configuration
	MinIdleConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	MaxOpenConns    int
	ConnMaxLifetime time.Duration

	// Publish backoff configuration, 0 is no limit
	MaxElapsedTime time.Duration
	MaxInterval    time.Duration

	// Num of workers that publish messages
	MaxWorkers int

	// Max num of requests in worker's queue
	MaxQueueSize int
}

func setRedisDefaults() {
	viper.SetDefault("Redis", []Redis{{
		Port:            6379,
		Host:            "localhost",
		DB:              0,
		Password:        "password",
		MinIdleConns:    1,
		MaxIdleConns:    5,
		ConnMaxIdleTime: 10 * time.Minute,
		MaxOpenConns:    15,
		ConnMaxLifetime: time.Hour,
		MaxElapsedTime:  10 * time.Minute,
		MaxInterval:     60 * time.Second,
		MaxWorkers:      15,
		MaxQueueSize:    5,
	}})
}
