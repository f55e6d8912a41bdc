// Package report exports evaluation results and the loss history to an
// Excel workbook.
package report

import (
	"fmt"
	"log"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/born-ml/cifarnet/internal/evaluator"
	"github.com/born-ml/cifarnet/internal/trainer"
)

const (
	AccuracySheet = "Accuracy"
	TrainingSheet = "Training"

	percentFormat = 10 // built-in "0.00%"
)

// Workbook is the content of an exported run.
type Workbook struct {
	Classes   []string // short display names
	Labels    []string // dataset label names, optional
	Result    evaluator.Report
	History   []trainer.Progress
	EpochLoss []float64 // mean loss per epoch, optional
}

// Write saves wb as an .xlsx file at path.
func Write(path string, wb Workbook) error {
	if len(wb.Classes) != evaluator.NumClasses {
		return fmt.Errorf("report: %d class names for %d classes", len(wb.Classes), evaluator.NumClasses)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Error closing workbook: %v", err)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), AccuracySheet); err != nil {
		return fmt.Errorf("report: rename sheet: %w", err)
	}
	if err := writeAccuracy(f, wb); err != nil {
		return err
	}
	if _, err := f.NewSheet(TrainingSheet); err != nil {
		return fmt.Errorf("report: add sheet: %w", err)
	}
	if err := writeTraining(f, wb); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}
	return nil
}

func writeAccuracy(f *excelize.File, wb Workbook) error {
	header := []interface{}{"Class", "Label", "Correct", "Total", "Accuracy"}
	if err := f.SetSheetRow(AccuracySheet, "A1", &header); err != nil {
		return fmt.Errorf("report: header: %w", err)
	}

	ratios := wb.Result.Ratios()
	for i := range ratios {
		label := wb.Classes[i]
		if i < len(wb.Labels) {
			label = wb.Labels[i]
		}
		row := []interface{}{wb.Classes[i], label, wb.Result.Correct[i], wb.Result.Total[i], ratioCell(ratios[i])}
		if err := f.SetSheetRow(AccuracySheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("report: row %d: %w", i, err)
		}
	}

	var correct, total int
	for i := range wb.Result.Total {
		correct += wb.Result.Correct[i]
		total += wb.Result.Total[i]
	}
	last := evaluator.NumClasses + 2
	overall := []interface{}{"overall", "", correct, total, ratioCell(wb.Result.Overall())}
	if err := f.SetSheetRow(AccuracySheet, fmt.Sprintf("A%d", last), &overall); err != nil {
		return fmt.Errorf("report: overall row: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{NumFmt: percentFormat})
	if err != nil {
		return fmt.Errorf("report: style: %w", err)
	}
	if err := f.SetCellStyle(AccuracySheet, "E2", fmt.Sprintf("E%d", last), style); err != nil {
		return fmt.Errorf("report: style cells: %w", err)
	}
	return nil
}

func writeTraining(f *excelize.File, wb Workbook) error {
	header := []interface{}{"Epoch", "Batch", "Running loss"}
	if err := f.SetSheetRow(TrainingSheet, "A1", &header); err != nil {
		return fmt.Errorf("report: training header: %w", err)
	}
	for i, p := range wb.History {
		row := []interface{}{p.Epoch, p.Batch, p.Loss}
		if err := f.SetSheetRow(TrainingSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("report: training row %d: %w", i, err)
		}
	}

	if len(wb.EpochLoss) == 0 {
		return nil
	}
	epochHeader := []interface{}{"Epoch", "Mean loss"}
	if err := f.SetSheetRow(TrainingSheet, "E1", &epochHeader); err != nil {
		return fmt.Errorf("report: epoch header: %w", err)
	}
	for i, loss := range wb.EpochLoss {
		row := []interface{}{i + 1, loss}
		if err := f.SetSheetRow(TrainingSheet, fmt.Sprintf("E%d", i+2), &row); err != nil {
			return fmt.Errorf("report: epoch row %d: %w", i, err)
		}
	}
	return nil
}

// ratioCell keeps undefined ratios readable; NaN is not a valid cell number.
func ratioCell(v float64) interface{} {
	if math.IsNaN(v) {
		return "n/a"
	}
	return v
}
