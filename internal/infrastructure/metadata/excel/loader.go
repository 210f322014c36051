package excel

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/visionops/camsight/internal/core/domain"
)

// Catalog maps camera IPs to their deployment-sheet metadata, loaded once at
// startup from the operations xlsx. Lookups never fail: cameras absent from
// the sheet get the unknown record.
type Catalog struct {
	byIP map[string]domain.CameraMetadata
}

// Load reads the first sheet of the workbook. A missing file is tolerated so
// the service can run without a deployment sheet; every lookup then returns
// the unknown record.
func Load(path string) (*Catalog, error) {
	catalog := &Catalog{byIP: make(map[string]domain.CameraMetadata)}
	if path == "" {
		return catalog, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Warn("camera_catalog_missing", "path", path)
		return catalog, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("excel: open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel: %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("excel: read sheet %s: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		slog.Warn("camera_catalog_empty", "path", path)
		return catalog, nil
	}

	columns := headerIndex(rows[0])
	ipCol, ok := columns["camera ip"]
	if !ok {
		return nil, fmt.Errorf("excel: %s is missing the CAMERA IP column", path)
	}

	for _, row := range rows[1:] {
		ip := strings.TrimSpace(cell(row, ipCol))
		if ip == "" {
			continue
		}
		catalog.byIP[ip] = domain.CameraMetadata{
			LocationName:  fieldOrUnknown(row, columns, "location name"),
			District:      districtField(row, columns),
			Mandal:        fieldOrUnknown(row, columns, "mandal"),
			Latitude:      field(row, columns, "latitude"),
			Longitude:     field(row, columns, "longitude"),
			CameraType:    fieldOrUnknown(row, columns, "type of camera"),
			AnalyticsType: fieldOrUnknown(row, columns, "type of analytics"),
		}
	}
	slog.Info("camera_catalog_loaded", "path", path, "cameras", len(catalog.byIP))
	return catalog, nil
}

func (c *Catalog) Lookup(cameraIP string) domain.CameraMetadata {
	if meta, ok := c.byIP[strings.TrimSpace(cameraIP)]; ok {
		return meta
	}
	return domain.UnknownCameraMetadata()
}

func (c *Catalog) Size() int {
	return len(c.byIP)
}

func headerIndex(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.Join(strings.Fields(name), " "))
		if key != "" {
			columns[key] = i
		}
	}
	return columns
}

// districtField prefers the renamed-district column over the legacy one.
func districtField(row []string, columns map[string]int) string {
	if i, ok := columns["new district"]; ok {
		if v := strings.TrimSpace(cell(row, i)); v != "" {
			return v
		}
	}
	if i, ok := columns["old district"]; ok {
		if v := strings.TrimSpace(cell(row, i)); v != "" {
			return v
		}
	}
	return "Unknown"
}

func field(row []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok {
		return ""
	}
	return strings.TrimSpace(cell(row, i))
}

func fieldOrUnknown(row []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok {
		return "Unknown"
	}
	if v := strings.TrimSpace(cell(row, i)); v != "" {
		return v
	}
	return "Unknown"
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
