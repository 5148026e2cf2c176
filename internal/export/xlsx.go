// Package export writes run records to spreadsheets for hand-off to sales.
package export

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Sheet names in the exported workbook.
const (
	LeadsSheet    = "Leads"
	ContactsSheet = "Contacts"
)

var leadHeader = []string{
	"Index", "Company", "Domain", "Location", "Category", "Employees", "Industry",
	"Funding Stage", "Likely Stack", "AI/ML Indicators", "Data Infrastructure",
	"Strategy", "Strategy Error",
}

var contactHeader = []string{"Company", "Domain", "Name", "Title", "Email", "LinkedIn"}

// Workbook builds an XLSX file with one row per record on the Leads sheet and
// one row per contact on the Contacts sheet.
func Workbook(recs []model.OutputRecord) (*xlsx.File, error) {
	f := xlsx.NewFile()

	leads, err := f.AddSheet(LeadsSheet)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: add leads sheet")
	}
	contacts, err := f.AddSheet(ContactsSheet)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: add contacts sheet")
	}

	addRow(leads, leadHeader)
	addRow(contacts, contactHeader)

	for _, rec := range recs {
		c := rec.Company
		row := leads.AddRow()
		row.AddCell().SetInt(rec.Index)
		for _, v := range []string{
			c.Name, c.Domain, c.Location, string(c.Category), c.EmployeeCount, c.Industry,
			c.FundingStage,
			strings.Join(rec.TechSignal.LikelyStack, ", "),
			strings.Join(rec.TechSignal.AIMLIndicators, ", "),
			strings.Join(rec.TechSignal.DataInfrastructure, ", "),
			rec.Strategy, rec.StrategyError,
		} {
			row.AddCell().SetString(v)
		}

		for _, ct := range rec.Contacts {
			addRow(contacts, []string{c.Name, c.Domain, ct.Name, ct.Title, ct.Email, ct.LinkedInURL})
		}
	}
	return f, nil
}

// WriteXLSX saves recs as a workbook at path.
func WriteXLSX(path string, recs []model.OutputRecord) error {
	f, err := Workbook(recs)
	if err != nil {
		return err
	}
	return eris.Wrapf(f.Save(path), "xlsx: save %s", path)
}

// WriteXLSXTo streams the workbook to w.
func WriteXLSXTo(w io.Writer, recs []model.OutputRecord) error {
	f, err := Workbook(recs)
	if err != nil {
		return err
	}
	return eris.Wrap(f.Write(w), "xlsx: write")
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, v := range cells {
		row.AddCell().SetString(v)
	}
}
