package sheets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gobridge/reviewbot/apperr"
	"github.com/xuri/excelize/v2"
)

// CellRange addresses a rectangular range in a spreadsheet.
type CellRange struct {
	SpreadsheetID string
	// A1 is an A1 notation address such as "A2:E10", "A:H" or "Sheet1!B3".
	A1 string
}

// NewCellRange validates and returns a CellRange.
func NewCellRange(spreadsheetID, a1 string) (CellRange, error) {
	r := CellRange{SpreadsheetID: strings.TrimSpace(spreadsheetID), A1: strings.TrimSpace(a1)}
	if err := r.validate(); err != nil {
		return CellRange{}, err
	}
	return r, nil
}

func (r CellRange) String() string {
	return r.SpreadsheetID + "!" + r.A1
}

func (r CellRange) validate() error {
	if r.SpreadsheetID == "" {
		return apperr.New(apperr.Adapter, "sheets.CellRange", "spreadsheet id is empty")
	}
	if strings.ContainsAny(r.SpreadsheetID, " /?#") {
		return apperr.New(apperr.Adapter, "sheets.CellRange", fmt.Sprintf("invalid spreadsheet id %q", r.SpreadsheetID))
	}
	if err := validateA1(r.A1); err != nil {
		return apperr.Wrapf(apperr.Adapter, "sheets.CellRange", err, "invalid range %q", r.A1)
	}
	return nil
}

type refKind int

const (
	refCell refKind = iota
	refColumn
	refRow
)

func validateA1(a1 string) error {
	addr := a1
	if i := strings.LastIndex(a1, "!"); i >= 0 {
		if strings.Trim(a1[:i], "'") == "" {
			return fmt.Errorf("empty sheet name")
		}
		addr = a1[i+1:]
	}
	if addr == "" {
		return fmt.Errorf("empty address")
	}

	parts := strings.Split(addr, ":")
	if len(parts) > 2 {
		return fmt.Errorf("too many ':' separators")
	}

	kinds := make([]refKind, len(parts))
	for i, p := range parts {
		k, err := classifyRef(p)
		if err != nil {
			return err
		}
		kinds[i] = k
	}

	if len(parts) == 1 {
		if kinds[0] != refCell {
			return fmt.Errorf("a single reference must be a cell")
		}
		return nil
	}
	if (kinds[0] == refRow) != (kinds[1] == refRow) {
		return fmt.Errorf("cannot mix row and column references")
	}
	return nil
}

func classifyRef(ref string) (refKind, error) {
	if ref == "" {
		return 0, fmt.Errorf("empty reference")
	}
	if _, _, err := excelize.CellNameToCoordinates(ref); err == nil {
		return refCell, nil
	}
	if isLetters(ref) {
		if _, err := excelize.ColumnNameToNumber(ref); err == nil {
			return refColumn, nil
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n > 0 {
		return refRow, nil
	}
	return 0, fmt.Errorf("invalid reference %q", ref)
}

func isLetters(s string) bool {
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return s != ""
}
