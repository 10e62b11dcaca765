package thermfield

import (
	"fmt"

	"github.com/extrame/xls"
)

// LoadSheet reads the first worksheet of a legacy .xls workbook as a dense
// numeric grid. Blank and non-numeric cells follow the same NaN-to-zero
// scrubbing as delimited tables, so a spreadsheet and its CSV export
// normalize identically.
func LoadSheet(path string) (*Field, error) {
	// Surface zero-byte and permission problems with the shared error kind
	// before handing the path to the xls reader.
	probe, err := openInput(path)
	if err != nil {
		return nil, err
	}
	probe.Close()

	workbook, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	if workbook.NumSheets() == 0 {
		return nil, fmt.Errorf("%w: %s: workbook has no sheets", ErrEmpty, path)
	}

	sheet := workbook.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("%w: %s: first sheet is unreadable", ErrUnreadable, path)
	}

	// Column count is the widest row; narrower rows are padded with blanks,
	// which scrub to zero like any other non-numeric cell.
	width := 0
	for rowID := 0; rowID <= int(sheet.MaxRow); rowID++ {
		row := sheet.Row(rowID)
		if row == nil {
			continue
		}
		if w := row.LastCol() + 1; w > width {
			width = w
		}
	}
	if width == 0 {
		return nil, fmt.Errorf("%w: %s: sheet %q has no cells", ErrEmpty, path, sheet.Name)
	}

	records := make([][]string, 0, int(sheet.MaxRow)+1)
	for rowID := 0; rowID <= int(sheet.MaxRow); rowID++ {
		cells := make([]string, width)

		row := sheet.Row(rowID)
		if row != nil {
			for colID := 0; colID <= row.LastCol(); colID++ {
				cells[colID] = row.Col(colID)
			}
		}

		records = append(records, cells)
	}

	field, _, err := gridToField(records)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return field, nil
}
