package usecase

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"ShopScore/internal/domain/models"
	"ShopScore/internal/services/forecast"
	"ShopScore/pkg/config"
	"ShopScore/pkg/logger"
	"ShopScore/pkg/table"
)

// Catalog resolves products to their data tables under the data directory.
// Tables are cached until the file's modification time changes.
type Catalog struct {
	dir           string
	products      []models.Product
	trainingFiles []string
	crossFile     string
	warehouseFile string
	now           func() time.Time
	logger        *logger.Logger

	mu     sync.Mutex
	tables map[string]cachedTable
}

type cachedTable struct {
	mod time.Time
	t   *table.Table
}

// NewCatalog builds a catalog from the data section of cfg.
func NewCatalog(cfg *config.Config, log *logger.Logger) *Catalog {
	if log == nil {
		log = logger.Nop()
	}
	products := make([]models.Product, 0, len(cfg.Data.Products))
	for _, p := range cfg.Data.Products {
		products = append(products, models.Product{Name: p.Name, File: p.File, Category: p.Category})
	}
	return &Catalog{
		dir:           cfg.Data.Dir,
		products:      products,
		trainingFiles: cfg.Data.TrainingFiles,
		crossFile:     cfg.Data.CrossPlatformFile,
		warehouseFile: cfg.Data.WarehouseFile,
		now:           time.Now,
		logger:        log,
		tables:        make(map[string]cachedTable),
	}
}

// Products lists the catalog in configuration order.
func (c *Catalog) Products() []models.Product {
	return append([]models.Product(nil), c.products...)
}

// Lookup finds a product by case-insensitive name.
func (c *Catalog) Lookup(name string) (models.Product, error) {
	want := strings.TrimSpace(name)
	for _, p := range c.products {
		if strings.EqualFold(p.Name, want) {
			return p, nil
		}
	}
	return models.Product{}, fmt.Errorf("%w: %q", models.ErrProductNotFound, name)
}

// Reviews returns the product's own table.
func (c *Catalog) Reviews(product string) (*table.Table, error) {
	p, err := c.Lookup(product)
	if err != nil {
		return nil, err
	}
	return c.read(p.File)
}

// CrossPlatformSeries expands the product's rows of the cross-platform
// monthly table into a dated series table.
func (c *Catalog) CrossPlatformSeries(product string) (*table.Table, error) {
	p, err := c.Lookup(product)
	if err != nil {
		return nil, err
	}
	if c.crossFile == "" {
		return nil, fmt.Errorf("cross-platform table: %w", fs.ErrNotExist)
	}
	t, err := c.read(c.crossFile)
	if err != nil {
		return nil, err
	}
	return forecast.ExpandMonthly(t, p.Name, c.now())
}

// SeriesTable returns the table to forecast metric from: the product's own
// table when it carries date and metric columns, otherwise the product's
// cross-platform monthly rows.
func (c *Catalog) SeriesTable(product string, metric models.Metric) (*table.Table, error) {
	own, err := c.Reviews(product)
	if err != nil {
		return nil, err
	}
	_, ownErr := forecast.DetectColumns(own, metric)
	if ownErr == nil {
		return own, nil
	}
	cross, err := c.CrossPlatformSeries(product)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ownErr
		}
		return nil, err
	}
	if cross.Len() == 0 {
		return nil, ownErr
	}
	return cross, nil
}

// TrainingTable returns the first training file that exists.
func (c *Catalog) TrainingTable() (*table.Table, error) {
	for _, name := range c.trainingFiles {
		t, err := c.read(name)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("training data %v: %w", c.trainingFiles, fs.ErrNotExist)
}

// Warehouses returns the warehouse table, if one is configured.
func (c *Catalog) Warehouses() (*table.Table, error) {
	if c.warehouseFile == "" {
		return nil, fmt.Errorf("warehouse table: %w", fs.ErrNotExist)
	}
	return c.read(c.warehouseFile)
}

func (c *Catalog) read(name string) (*table.Table, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.dir, name)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	c.mu.Lock()
	cached, ok := c.tables[path]
	c.mu.Unlock()
	if ok && cached.mod.Equal(info.ModTime()) {
		return cached.t, nil
	}

	t, err := table.ReadCSVFile(path)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.tables[path] = cachedTable{mod: info.ModTime(), t: t}
	c.mu.Unlock()
	c.logger.Debug("table loaded", logger.String("file", name), logger.Int("rows", t.Len()))
	return t, nil
}
