// Command loaddata imports reference data from CSV files.
//
//	loaddata -ingredients data/ingredients.csv -tags data/tags.csv
//
// Ingredient rows are "name,measurement_unit"; tag rows are "name,color,slug".
// Rows that already exist are skipped, so the command can be rerun.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/config"
	"github.com/franciscosanchezn/gin-recipe-api/internal/database"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	ingredientsPath := flag.String("ingredients", "", "CSV file with name,measurement_unit rows")
	tagsPath := flag.String("tags", "", "CSV file with name,color,slug rows")
	flag.Parse()

	if *ingredientsPath == "" && *tagsPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
	conf, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	db, err := database.InitDatabase(conf.Database())
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}

	ctx := context.Background()
	if *ingredientsPath != "" {
		if err := loadIngredients(ctx, services.NewIngredientService(db), *ingredientsPath); err != nil {
			log.WithError(err).Fatal("Ingredient import failed")
		}
	}
	if *tagsPath != "" {
		if err := loadTags(ctx, services.NewTagService(db, nil), *tagsPath); err != nil {
			log.WithError(err).Fatal("Tag import failed")
		}
	}
}

func loadIngredients(ctx context.Context, svc services.IngredientService, path string) error {
	records, err := readCSV(path, 2)
	if err != nil {
		return err
	}
	rows := make([]services.CreateIngredientInput, 0, len(records))
	for _, rec := range records {
		rows = append(rows, services.CreateIngredientInput{Name: rec[0], MeasurementUnit: rec[1]})
	}

	result, err := svc.ImportIngredients(ctx, rows)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"created": result.Created, "existing": result.Skipped}).Info("Ingredients imported")
	return nil
}

func loadTags(ctx context.Context, svc services.TagService, path string) error {
	records, err := readCSV(path, 3)
	if err != nil {
		return err
	}
	created, existing := 0, 0
	for i, rec := range records {
		_, err := svc.CreateTag(ctx, services.CreateTagInput{Name: rec[0], Color: rec[1], Slug: rec[2]})
		switch {
		case err == nil:
			created++
		case errors.Is(err, services.ErrConflict):
			existing++
		default:
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	log.WithFields(log.Fields{"created": created, "existing": existing}).Info("Tags imported")
	return nil
}

// readCSV returns trimmed records, skipping blank lines and a header row
func readCSV(path string, columns int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = columns
	r.TrimLeadingSpace = true

	var records [][]string
	for line := 1; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if line == 1 && isHeader(rec) {
			continue
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		records = append(records, rec)
	}
}

func isHeader(rec []string) bool {
	return rec[0] == "name"
}
