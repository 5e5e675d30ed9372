package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"mise/internal/config"
	"mise/internal/db"
	"mise/internal/inventory"
	applog "mise/internal/log"
	"mise/models"
)

type stockRow struct {
	line     int
	name     string
	quantity decimal.Decimal
	unit     string
}

type importSummary struct {
	Created   int
	Restocked int
	Skipped   int
}

func main() {
	path := "stock.csv"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	if err := run(context.Background(), path, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path string, out io.Writer) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("stock sheet path must not be empty")
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("locate stock sheet: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applog.SetLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("set log level: %w", err)
	}

	database, err := db.Configure(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	rows, err := readRows(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	summary, err := importStock(ctx, inventory.New(database), rows)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Imported %s: %d created, %d restocked, %d skipped\n",
		filepath.Base(path), summary.Created, summary.Restocked, summary.Skipped)
	return nil
}

// importStock restocks ingredients that already exist (matched by name,
// case-insensitively) and creates the rest. A zero quantity skips an existing
// ingredient but still registers a new one with empty stock.
func importStock(ctx context.Context, svc *inventory.Service, rows []stockRow) (importSummary, error) {
	var summary importSummary

	existing, err := svc.Ledger.List(ctx)
	if err != nil {
		return summary, fmt.Errorf("list ingredients: %w", err)
	}
	byName := make(map[string]models.Ingredient, len(existing))
	for _, ingredient := range existing {
		byName[strings.ToLower(ingredient.Name)] = ingredient
	}

	for _, row := range rows {
		key := strings.ToLower(row.name)
		if current, ok := byName[key]; ok {
			if row.quantity.IsZero() {
				summary.Skipped++
				continue
			}
			updated, err := svc.Ledger.Restock(ctx, current.ID, row.quantity)
			if err != nil {
				return summary, fmt.Errorf("row %d (%s): %w", row.line, row.name, err)
			}
			byName[key] = updated
			summary.Restocked++
			continue
		}

		created, err := svc.Ledger.Create(ctx, inventory.IngredientInput{
			Name:     row.name,
			Quantity: row.quantity,
			Unit:     row.unit,
		})
		if err != nil {
			return summary, fmt.Errorf("row %d (%s): %w", row.line, row.name, err)
		}
		byName[key] = created
		summary.Created++
	}

	applog.Info(ctx, "stock import finished",
		"created", summary.Created,
		"restocked", summary.Restocked,
		"skipped", summary.Skipped,
	)
	return summary, nil
}

func readRows(path string) ([]stockRow, error) {
	var (
		table [][]string
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		table, err = readXLSX(path)
	case ".csv", "":
		table, err = readCSV(path)
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return parseTable(table)
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

// readXLSX returns the rows of the first sheet.
func readXLSX(path string) ([][]string, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return book.GetRows(sheets[0])
}

// parseTable maps a header row with name, quantity and unit columns (any
// order, any case) onto stock rows. Blank lines are ignored.
func parseTable(table [][]string) ([]stockRow, error) {
	if len(table) == 0 {
		return nil, errors.New("sheet is empty")
	}

	columns := map[string]int{}
	for idx, heading := range table[0] {
		columns[strings.ToLower(strings.TrimSpace(heading))] = idx
	}
	for _, required := range []string{"name", "quantity"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing %q column", required)
		}
	}

	cell := func(row []string, column string) string {
		idx, ok := columns[column]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	rows := make([]stockRow, 0, len(table)-1)
	for i, raw := range table[1:] {
		line := i + 2
		name := cell(raw, "name")
		qty := cell(raw, "quantity")
		if name == "" && qty == "" {
			continue
		}
		if name == "" {
			return nil, fmt.Errorf("row %d: name is required", line)
		}

		quantity := decimal.Zero
		if qty != "" {
			parsed, err := inventory.ParseQuantity(qty)
			if err != nil {
				return nil, fmt.Errorf("row %d (%s): %w", line, name, err)
			}
			quantity = parsed
		}
		if quantity.IsNegative() {
			return nil, fmt.Errorf("row %d (%s): quantity must not be negative", line, name)
		}

		rows = append(rows, stockRow{
			line:     line,
			name:     name,
			quantity: quantity,
			unit:     cell(raw, "unit"),
		})
	}
	return rows, nil
}
