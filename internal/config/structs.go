package config

import (
	"time"

	"github.com/podzol/podzol/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
}

// DB holds the database configuration settings.
type DB struct {
	Path        string // path to the sqlite database file
	SessionPath string // path to the sqlite session storage file
}

// Webserver implement webserver settings.
type Webserver struct {
	Domain       string  // domain name for the webserver
	Port         int     // listening port for the webserver
	ShutDownTime int     // wait time for shutdown
	URL          string  // base url for the webserver, used in outbound mail links
	FrontendDir  string  // directory with the static frontend files
	UploadDir    string  // directory where uploaded files are stored
	Session      Session // session settings
}
