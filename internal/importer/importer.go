package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/example/lattice/internal/database"
	"github.com/example/lattice/internal/taxonomy"
	"github.com/example/lattice/pkg/models"
)

// Config defines the import configuration
type Config struct {
	FilePath   string // Path to the Excel or CSV file
	SheetName  string // Name of the sheet to import (Excel only)
	SkipHeader bool   // Skip the header row
}

// DefaultConfig returns the default import configuration
func DefaultConfig(path string) Config {
	return Config{
		FilePath:   path,
		SheetName:  "Sheet1",
		SkipHeader: true,
	}
}

// Result holds the result of an import operation
type Result struct {
	TotalProcessed int
	Created        int
	Skipped        int
	Errors         []string
}

// Columns per row: category, subcategories (';' separated), tags
// (';' separated), difficulty, type, body, expected read time seconds.
const columnsPerRow = 7

// ImportContent bulk-loads curated content units from an Excel or CSV
// file. Every unit passes through the taxonomy guard; rows with an
// invalid category are skipped and reported, not fatal.
func ImportContent(cfg Config, guard *taxonomy.Guard, logger zerolog.Logger) (*Result, error) {
	rows, err := readRows(cfg)
	if err != nil {
		return nil, err
	}

	repo := database.NewContentRepository()
	result := &Result{}

	for i, row := range rows {
		if cfg.SkipHeader && i == 0 {
			continue
		}
		result.TotalProcessed++

		item, err := rowToItem(row)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		if _, err := guard.ValidateAndClean(item); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		if err := repo.Create(item); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		result.Created++
	}

	logger.Info().
		Int("processed", result.TotalProcessed).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Msg("content import finished")
	return result, nil
}

func readRows(cfg Config) ([][]string, error) {
	ext := strings.ToLower(filepath.Ext(cfg.FilePath))
	switch ext {
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenFile(cfg.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open Excel file: %w", err)
		}
		defer f.Close()
		rows, err := f.GetRows(cfg.SheetName)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", cfg.SheetName, err)
		}
		return rows, nil
	case ".csv":
		f, err := os.Open(cfg.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open CSV file: %w", err)
		}
		defer f.Close()
		reader := csv.NewReader(f)
		reader.FieldsPerRecord = -1
		var rows [][]string
		for {
			record, err := reader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("failed to read CSV: %w", err)
			}
			rows = append(rows, record)
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

func rowToItem(row []string) (*models.ContentItem, error) {
	if len(row) < columnsPerRow {
		return nil, fmt.Errorf("expected %d columns, got %d", columnsPerRow, len(row))
	}

	difficulty := models.Difficulty(strings.TrimSpace(row[3]))
	if !difficulty.Valid() {
		difficulty = models.DifficultyIntermediate
	}

	readTime, err := strconv.Atoi(strings.TrimSpace(row[6]))
	if err != nil {
		readTime = 0
	}

	body := row[5]
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("empty body")
	}

	return &models.ContentItem{
		ID:                  uuid.NewString(),
		Category:            strings.TrimSpace(row[0]),
		Subcategories:       splitList(row[1]),
		Tags:                splitList(row[2]),
		Difficulty:          difficulty,
		Type:                models.ContentType(strings.TrimSpace(row[4])),
		Body:                body,
		Status:              models.StatusActive,
		ExpectedReadTimeSec: readTime,
		AIMetadata: models.AIMetadata{
			PromptVersion: "imported",
			ModelVersion:  "human-curated",
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

func splitList(cell string) models.StringList {
	var list models.StringList
	for _, entry := range strings.Split(cell, ";") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			list = append(list, entry)
		}
	}
	return list
}
