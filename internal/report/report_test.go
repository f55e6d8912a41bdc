package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/born-ml/cifarnet/internal/dataset"
	"github.com/born-ml/cifarnet/internal/evaluator"
	"github.com/born-ml/cifarnet/internal/trainer"
)

func sampleWorkbook() Workbook {
	var acc evaluator.Accumulator
	acc.Add([]int{0, 0, 1, 2}, []int{0, 1, 1, 2})
	return Workbook{
		Classes: dataset.Classes[:],
		Labels:  []string{"airplane", "automobile"},
		Result:  acc.Report(),
		History: []trainer.Progress{
			{Epoch: 1, Batch: 2000, Loss: 2.2},
			{Epoch: 1, Batch: 4000, Loss: 1.9},
		},
		EpochLoss: []float64{2.05},
	}
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.xlsx")
	require.NoError(t, Write(path, sampleWorkbook()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{AccuracySheet, TrainingSheet}, f.GetSheetList())

	rows, err := f.GetRows(AccuracySheet)
	require.NoError(t, err)
	require.Len(t, rows, evaluator.NumClasses+2)
	assert.Equal(t, []string{"Class", "Label", "Correct", "Total", "Accuracy"}, rows[0])
	assert.Equal(t, []string{"plane", "airplane", "1", "1"}, rows[1][:4])
	assert.Equal(t, []string{"car", "automobile", "1", "2"}, rows[2][:4])
	assert.Equal(t, []string{"deer", "deer", "0", "0", "n/a"}, rows[5])
	assert.Equal(t, "overall", rows[11][0])
	assert.Equal(t, []string{"3", "4"}, rows[11][2:4])

	training, err := f.GetRows(TrainingSheet)
	require.NoError(t, err)
	require.Len(t, training, 3)
	assert.Equal(t, []string{"1", "4000", "1.9"}, training[2][:3])
	assert.Equal(t, "Mean loss", training[0][5])
}

func TestWriteRejectsWrongClassCount(t *testing.T) {
	wb := sampleWorkbook()
	wb.Classes = wb.Classes[:2]
	assert.Error(t, Write(filepath.Join(t.TempDir(), "x.xlsx"), wb))
}

func TestWriteBadPath(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "missing", "dir", "x.xlsx"), sampleWorkbook())
	assert.Error(t, err)
}
