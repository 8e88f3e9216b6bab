package parsers

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// worksheet is the JSON shape of a parsed spreadsheet sheet.
type worksheet struct {
	Name string     `json:"name"`
	Data [][]string `json:"data"`
}

// parseExcel converts spreadsheet bytes to a JSON array of worksheets. XLSX
// is tried first; legacy XLS is the fallback since the declared media type is
// often wrong for old files.
func (r *Registry) parseExcel(body []byte) ([]byte, error) {
	sheets, xlsxErr := parseXLSX(body)
	if xlsxErr != nil {
		var xlsErr error
		sheets, xlsErr = parseXLS(body)
		if xlsErr != nil {
			return nil, fmt.Errorf("content is neither xlsx (%v) nor xls: %w", xlsxErr, xlsErr)
		}
	}

	out, err := json.Marshal(sheets)
	if err != nil {
		return nil, fmt.Errorf("encode worksheets: %w", err)
	}
	return out, nil
}

// parseXLSX reads a modern OOXML workbook via excelize.
func parseXLSX(body []byte) ([]worksheet, error) {
	file, err := excelize.OpenReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("open xlsx workbook: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	names := file.GetSheetList()
	sheets := make([]worksheet, 0, len(names))
	for _, name := range names {
		rows, err := file.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		if rows == nil {
			rows = [][]string{}
		}
		sheets = append(sheets, worksheet{Name: name, Data: rows})
	}
	return sheets, nil
}

// parseXLS reads a legacy BIFF workbook.
func parseXLS(body []byte) ([]worksheet, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(body), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls workbook: %w", err)
	}

	sheets := make([]worksheet, 0, workbook.NumSheets())
	for i := 0; i < workbook.NumSheets(); i++ {
		sheet := workbook.GetSheet(i)
		if sheet == nil {
			continue
		}

		rows := [][]string{}
		for rowIdx := 0; rowIdx <= int(sheet.MaxRow); rowIdx++ {
			row := sheet.Row(rowIdx)
			if row == nil {
				rows = append(rows, []string{})
				continue
			}

			cells := []string{}
			// LastCol is exclusive.
			for colIdx := row.FirstCol(); colIdx < row.LastCol(); colIdx++ {
				cells = append(cells, row.Col(colIdx))
			}
			rows = append(rows, cells)
		}
		sheets = append(sheets, worksheet{Name: sheet.Name, Data: rows})
	}
	return sheets, nil
}
