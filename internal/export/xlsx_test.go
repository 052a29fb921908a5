package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/gardenscape/plant-import/internal/model"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				row.AddCell().SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "plants.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestWritePlants(t *testing.T) {
	plants := []model.Plant{
		{
			ID:              "p-1",
			ScientificName:  "Echinacea purpurea 'Magnus'",
			CommonName:      "Purple Coneflower",
			Family:          "Asteraceae",
			Genus:           "Echinacea",
			Species:         "purpurea",
			Cultivar:        "Magnus",
			Sunlight:        []string{"full sun", "part shade"},
			Soil:            []string{"well-drained"},
			PoisonousToPets: true,
			HeightMaxCM:     model.Float(120),
			HeightMaxInches: model.Float(47.2),
			Source:          model.SourcePerenual,
			CreatedAt:       time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{ID: "p-2", ScientificName: "Salvia nemorosa", Source: model.SourceManual},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePlants(&buf, plants))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet, ok := f.Sheet[SheetName]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 3)

	header := sheet.Rows[0]
	require.Len(t, header.Cells, len(Columns))
	assert.Equal(t, "Scientific Name", header.Cells[1].String())

	row := sheet.Rows[1]
	assert.Equal(t, "Echinacea purpurea 'Magnus'", row.Cells[1].String())
	assert.Equal(t, "full sun, part shade", row.Cells[9].String())
	assert.Equal(t, "true", row.Cells[16].String())
	assert.Equal(t, "false", row.Cells[17].String())
	assert.Equal(t, "", row.Cells[18].String())
	assert.Equal(t, "120", row.Cells[19].String())
	assert.Equal(t, "perenual", row.Cells[29].String())
	assert.Equal(t, "2025-03-01T12:00:00Z", row.Cells[31].String())
}

func TestWritePlants_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePlants(&buf, nil))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	assert.Len(t, f.Sheets[0].Rows, 1)
}

func TestReadNames(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"Plant", "Qty"},
			{"Rosa 'Peace'", "3"},
			{"  ", "1"},
			{"HELIANTHUS CAPENOCH STAR", "5"},
		},
	})

	names, err := ReadNames(path, ReadOptions{SkipRows: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Rosa 'Peace'", "HELIANTHUS CAPENOCH STAR"}, names)
}

func TestReadNames_Column(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Order": {
			{"1", "Salvia nemorosa"},
			{"2"},
		},
	})

	names, err := ReadNames(path, ReadOptions{SheetName: "Order", Column: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Salvia nemorosa"}, names)
}

func TestReadNames_SheetNotFound(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Sheet1": {{"a"}}})

	_, err := ReadNames(path, ReadOptions{SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReadNames_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o600))

	_, err := ReadNames(path, ReadOptions{})
	require.Error(t, err)
}

func TestReadNames_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.csv")
	data := "name,qty\n\"Rosa 'Peace'\",3\n,1\nSalvia nemorosa 'Caradonna',2\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	names, err := ReadNames(path, ReadOptions{SkipRows: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Rosa 'Peace'", "Salvia nemorosa 'Caradonna'"}, names)
}

func TestReadNames_CSVMissing(t *testing.T) {
	_, err := ReadNames(filepath.Join(t.TempDir(), "nope.csv"), ReadOptions{})
	require.Error(t, err)
}
