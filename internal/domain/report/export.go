package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the MIME type of the period export.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var fixedHeaders = []string{"Barangay", "Status", "Due Date", "Submitted At"}

// BuildWorkbook renders a period's submissions into an xlsx workbook with one
// sheet per report type. Payload keys become columns, sorted by name.
func BuildWorkbook(period string, subs []*Submission) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	byType := map[string][]*Submission{}
	for _, s := range subs {
		byType[s.ReportType] = append(byType[s.ReportType], s)
	}

	for i, reportType := range []string{TypeM1, TypeM2} {
		sheet := strings.ToUpper(reportType)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", sheet, err)
		}
		if err := writeSheet(f, sheet, headerStyle, byType[reportType]); err != nil {
			return nil, fmt.Errorf("write %s sheet for %s: %w", sheet, period, err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, subs []*Submission) error {
	payloads := make([]map[string]interface{}, len(subs))
	keySet := map[string]bool{}
	for i, s := range subs {
		if len(s.Payload) > 0 {
			if err := json.Unmarshal(s.Payload, &payloads[i]); err != nil {
				return fmt.Errorf("decode payload of %s: %w", s.ID, err)
			}
		}
		for k := range payloads[i] {
			keySet[k] = true
		}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	header := make([]interface{}, 0, len(fixedHeaders)+len(keys))
	for _, h := range fixedHeaders {
		header = append(header, h)
	}
	for _, k := range keys {
		header = append(header, k)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, s := range subs {
		submitted := ""
		if s.SubmittedAt != nil {
			submitted = s.SubmittedAt.Format("2006-01-02 15:04")
		}
		row := []interface{}{s.BarangayName, s.Status, s.DueAt.Format("2006-01-02"), submitted}
		for _, k := range keys {
			row = append(row, cellValue(payloads[i][k]))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	if len(subs) > 0 {
		return f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
	}
	return nil
}

func cellValue(v interface{}) interface{} {
	switch v.(type) {
	case nil, string, float64, bool:
		return v
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}
