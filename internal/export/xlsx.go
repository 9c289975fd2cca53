// Package export writes saved reports to spreadsheet files.
package export

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/market-scout/internal/model"
)

var reportHeader = []string{
	"ID",
	"Business Term",
	"Created At",
	"Search Location",
	"Search Type",
	"Population",
	"Median Income",
	"Competitor Count",
	"Opportunity Score",
	"Opportunity Value",
}

// WriteReportsXLSX writes the reports to an XLSX workbook at path, one row
// per report with a header row.
func WriteReportsXLSX(path string, reports []model.SavedReport) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Reports")
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range reportHeader {
		header.AddCell().SetString(h)
	}

	for _, sr := range reports {
		row := sheet.AddRow()
		row.AddCell().SetString(sr.ID)
		row.AddCell().SetString(sr.BusinessTerm)
		row.AddCell().SetString(sr.CreatedAt.UTC().Format(time.RFC3339))
		row.AddCell().SetString(sr.Report.SearchLocation)
		row.AddCell().SetString(string(sr.Report.SearchType))
		row.AddCell().SetInt(sr.Report.Population)
		row.AddCell().SetInt(sr.Report.MedianIncome)
		row.AddCell().SetInt(sr.Report.CompetitorCount)
		row.AddCell().SetString(sr.Report.OpportunityScore)
		row.AddCell().SetInt(sr.Report.OpportunityValue)
	}

	return eris.Wrap(f.Save(path), "xlsx: save")
}
