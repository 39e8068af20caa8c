package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/xavierca1/leadflow/internal/entity"
)

var remarkHeader = []interface{}{
	"remark_id",
	"status",
	"remark",
	"project_value",
	"created_by",
	"created_at",
}

// WriteRemarks streams the ledger of a lead as an xlsx workbook, one row
// per remark in ledger order.
func WriteRemarks(w io.Writer, leadID int, remarks []entity.Remark) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := fmt.Sprintf("lead_%d", leadID)
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &remarkHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range remarks {
		var projectValue interface{}
		if r.ProjectValue != nil {
			projectValue = *r.ProjectValue
		}
		var createdAt interface{}
		if !r.CreatedAt.IsZero() {
			createdAt = r.CreatedAt.Format(time.RFC3339)
		}
		row := []interface{}{r.ID, r.StatusName, r.Text, projectValue, r.CreatedBy, createdAt}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
