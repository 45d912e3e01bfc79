package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"allergy-menu-guard/internal/pkg/common"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Format 資料檔格式
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath 依副檔名判斷格式，未知副檔名視為 JSON
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load 從檔案載入菜單資料集
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.Wrap(common.ErrDataUnavailable, fmt.Errorf("read catalog %s: %w", path, err))
	}

	c, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, err
	}
	c.source = path

	common.LogInfo("菜單資料集已載入",
		zap.String("path", path),
		zap.Int("items", c.Len()),
		zap.Int("allergen_categories", len(c.categories)),
		zap.Int("synonym_groups", len(c.synonyms)),
	)
	return c, nil
}

// Parse 解析資料集內容
func Parse(data []byte, format Format) (*Catalog, error) {
	var ds dataset

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &ds); err != nil {
			return nil, common.Wrap(common.ErrDataUnavailable, fmt.Errorf("parse yaml catalog: %w", err))
		}
	default:
		if err := common.ParseJSONBytes(data, &ds); err != nil {
			return nil, common.Wrap(common.ErrDataUnavailable, fmt.Errorf("parse json catalog: %w", err))
		}
	}

	if len(ds.Items) == 0 {
		return nil, common.Wrap(common.ErrDataUnavailable, fmt.Errorf("catalog has no menu items"))
	}

	c, err := fromDataset(&ds)
	if err != nil {
		return nil, common.Wrap(common.ErrDataUnavailable, err)
	}
	return c, nil
}
