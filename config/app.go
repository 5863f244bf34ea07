package config

import (
	"os"
	"sync"
)

// AppConfig holds global application configuration
var AppConfig *Config
var once sync.Once

type Config struct {
	AppName string
	Port    string
	Env     string
	Debug   bool
	// AutoComplete enables the scheduled sweep that finishes in-progress
	// steps once their duration elapses. Off unless explicitly turned on.
	AutoComplete bool
}

// LoadAppConfig initializes the global AppConfig variable
func LoadAppConfig() {
	once.Do(func() {
		AppConfig = &Config{
			AppName:      os.Getenv("APP_NAME"),
			Port:         os.Getenv("PORT"),
			Env:          os.Getenv("APP_ENV"),
			Debug:        os.Getenv("DEBUG") == "true",
			AutoComplete: os.Getenv("TRACKING_AUTO_COMPLETE") == "on",
		}
	})
}
