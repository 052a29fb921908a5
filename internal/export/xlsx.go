// Package export reads and writes plant spreadsheets.
package export

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/gardenscape/plant-import/internal/model"
)

// SheetName is the worksheet plants are written to.
const SheetName = "Plants"

// Columns is the header row of an exported sheet.
var Columns = []string{
	"ID", "Scientific Name", "Common Name", "Family", "Genus", "Species", "Cultivar",
	"Cycle", "Watering", "Sunlight", "Soil", "Maintenance", "Hardiness Zones", "Growth Rate",
	"Flower Color", "Flowering Season", "Poisonous to Pets", "Poisonous to Humans",
	"Height Min (cm)", "Height Max (cm)", "Height Min (in)", "Height Max (in)",
	"Spread Min (cm)", "Spread Max (cm)", "Spread Min (in)", "Spread Max (in)",
	"Conservation Status", "Native Region", "Image URL", "Source", "External ID", "Created At",
}

// WritePlants writes plants as a single-sheet workbook to w.
func WritePlants(w io.Writer, plants []model.Plant) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range Columns {
		header.AddCell().SetString(col)
	}

	for i := range plants {
		p := &plants[i]
		row := sheet.AddRow()
		for _, s := range []string{
			p.ID, p.ScientificName, p.CommonName, p.Family, p.Genus, p.Species, p.Cultivar,
			p.Cycle, p.Watering, strings.Join(p.Sunlight, ", "), strings.Join(p.Soil, ", "),
			p.Maintenance, p.HardinessZones, p.GrowthRate, p.FlowerColor, p.FloweringSeason,
			strconv.FormatBool(p.PoisonousToPets), strconv.FormatBool(p.PoisonousToHumans),
		} {
			row.AddCell().SetString(s)
		}
		for _, v := range []*float64{
			p.HeightMinCM, p.HeightMaxCM, p.HeightMinInches, p.HeightMaxInches,
			p.SpreadMinCM, p.SpreadMaxCM, p.SpreadMinInches, p.SpreadMaxInches,
		} {
			c := row.AddCell()
			if v != nil {
				c.SetFloat(*v)
			}
		}
		for _, s := range []string{
			p.ConservationStatus, p.NativeRegion, p.ImageURL, string(p.Source), p.ExternalID,
			p.CreatedAt.UTC().Format(time.RFC3339),
		} {
			row.AddCell().SetString(s)
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write workbook")
	}
	return nil
}

func readXLSXNames(path string, opts ReadOptions) ([]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "export: open workbook")
	}

	sheet, err := getSheet(f, opts.SheetName)
	if err != nil {
		return nil, err
	}

	var names []string
	for i, row := range sheet.Rows {
		if i < opts.SkipRows || row == nil || opts.Column >= len(row.Cells) {
			continue
		}
		if name := strings.TrimSpace(row.Cells[opts.Column].String()); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func getSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("export: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("export: workbook has no sheets")
	}
	return f.Sheets[0], nil
}
