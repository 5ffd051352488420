package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lanchecard/canteen-api/internal/config"
	"github.com/lanchecard/canteen-api/internal/database"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if len(os.Args) < 2 {
		logger.Fatal("Usage: go run scripts/run_migrations.go [up|down] [dir]")
	}

	direction := os.Args[1]
	if direction != "up" && direction != "down" {
		logger.Fatal("Direction must be 'up' or 'down'")
	}

	migrationDir := "migrations"
	if len(os.Args) > 2 {
		migrationDir = os.Args[2]
	}

	cfg, err := config.LoadDatabase()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load config")
	}

	db, err := database.NewConnection(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	files, err := migrationFiles(migrationDir, direction)
	if err != nil {
		logger.WithError(err).Fatal("Failed to read migrations")
	}

	for _, filename := range files {
		content, err := os.ReadFile(filepath.Join(migrationDir, filename))
		if err != nil {
			logger.WithError(err).WithField("file", filename).Fatal("Failed to read migration")
		}

		logger.WithField("file", filename).Info("Running migration")
		if _, err := db.Exec(string(content)); err != nil {
			logger.WithError(err).WithField("file", filename).Fatal("Migration failed")
		}
	}

	logger.WithFields(logrus.Fields{
		"count":     len(files),
		"direction": direction,
	}).Info("Migrations complete")
}

// migrationFiles lists the files for direction, newest first when going down.
func migrationFiles(dir, direction string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	suffix := fmt.Sprintf(".%s.sql", direction)
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), suffix) {
			files = append(files, entry.Name())
		}
	}

	sort.Strings(files)
	if direction == "down" {
		sort.Sort(sort.Reverse(sort.StringSlice(files)))
	}
	return files, nil
}
