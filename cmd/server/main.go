package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/himanishpuri/fluxline/pkg/fluxline"
)

var (
	port           int
	dbPath         string
	artifactDir    string
	allowedOrigins string
)

func init() {
	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&dbPath, "db", getEnvOrDefault("FLUXLINE_DB_PATH", "fluxline.sqlite3"), "Path to SQLite catalog")
	flag.StringVar(&artifactDir, "dir", getEnvOrDefault("FLUXLINE_DIR", "."), "Artifact directory")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	flag.Parse()

	var origins []string
	if allowedOrigins == "*" {
		origins = []string{"*"}
	} else {
		origins = strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}

	service, err := fluxline.NewService(
		fluxline.WithDBPath(dbPath),
		fluxline.WithArtifactDir(artifactDir),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	config := &ServerConfig{
		Port:           port,
		DBPath:         dbPath,
		ArtifactDir:    artifactDir,
		AllowedOrigins: origins,
	}

	server := NewServer(service, config)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
