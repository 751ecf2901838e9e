// Package config loads every tunable from the environment with sane local
// defaults, so the binary runs against docker-compose without any setup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env         string
	HTTPPort    string
	MetricsPort string
	LogLevel    string

	Postgres PostgresConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Gateway  GatewayConfig
	SMTP     SMTPConfig
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RabbitMQConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	VHost      string
	RetryCount int
	RetryDelay time.Duration
}

func (c RabbitMQConfig) URL() string {
	vhost := c.VHost
	if vhost != "/" && !strings.HasPrefix(vhost, "/") {
		vhost = "/" + vhost
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%d%s", c.Username, c.Password, c.Host, c.Port, vhost)
}

type GatewayConfig struct {
	Latency     time.Duration
	FailureRate float64
}

type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

func (c SMTPConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func Load() *Config {
	rabbitPort, _ := strconv.Atoi(getEnvOrDefault("RABBITMQ_PORT", "5672"))
	retryCount, _ := strconv.Atoi(getEnvOrDefault("RABBITMQ_RETRY_COUNT", "3"))
	redisDB, _ := strconv.Atoi(getEnvOrDefault("DB_REDIS_DB", "0"))
	gatewayLatencyMS, _ := strconv.Atoi(getEnvOrDefault("PAYMENT_GATEWAY_LATENCY_MS", "1000"))
	failureRate, _ := strconv.ParseFloat(getEnvOrDefault("PAYMENT_GATEWAY_FAILURE_RATE", "0.1"), 64)

	return &Config{
		Env:         getEnvOrDefault("APP_ENV", "development"),
		HTTPPort:    getEnvOrDefault("PORT", "3000"),
		MetricsPort: getEnvOrDefault("METRICS_PORT", "9090"),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", ""),
		Postgres: PostgresConfig{
			Host:     getEnvOrDefault("DB_POSTGRES_HOST", "localhost"),
			Port:     getEnvOrDefault("DB_POSTGRES_PORT", "5432"),
			User:     getEnvOrDefault("DB_POSTGRES_USERNAME", "postgres"),
			Password: getEnvOrDefault("DB_POSTGRES_PASSWORD", "postgres"),
			Database: getEnvOrDefault("DB_POSTGRES_DATABASE", "postgres"),
			SSLMode:  getEnvOrDefault("DB_POSTGRES_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("DB_REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrDefault("DB_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		RabbitMQ: RabbitMQConfig{
			Host:       getEnvOrDefault("RABBITMQ_HOST", "localhost"),
			Port:       rabbitPort,
			Username:   getEnvOrDefault("RABBITMQ_USERNAME", "guest"),
			Password:   getEnvOrDefault("RABBITMQ_PASSWORD", "guest"),
			VHost:      getEnvOrDefault("RABBITMQ_VHOST", "/"),
			RetryCount: retryCount,
			RetryDelay: time.Second * 5,
		},
		Gateway: GatewayConfig{
			Latency:     time.Duration(gatewayLatencyMS) * time.Millisecond,
			FailureRate: failureRate,
		},
		SMTP: SMTPConfig{
			Host: getEnvOrDefault("SMTP_HOST", "localhost"),
			Port: getEnvOrDefault("SMTP_PORT", "1025"),
			User: getEnvOrDefault("SMTP_USER", ""),
			Pass: getEnvOrDefault("SMTP_PASS", ""),
			From: getEnvOrDefault("SMTP_FROM", "no-reply@orders.local"),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
