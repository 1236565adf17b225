package export

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/unitrack/core/gpa"
	"github.com/trezcool/unitrack/core/user"
)

const summarySheet = "Summary"

var subjectHeaders = []string{"Subject", "Credits", "Grade", "Grade Points", "Counted"}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// semesterSheet names a semester sheet, e.g. "Y2 S1". Sheet names must be unique.
func semesterSheet(rec gpa.SemesterRecord, taken map[string]bool) string {
	name := fmt.Sprintf("Y%d S%d", rec.Semester.Year, rec.Semester.Number)
	if taken[name] {
		name = fmt.Sprintf("%s (%d)", name, rec.Semester.ID)
	}
	taken[name] = true
	return name
}

// NewTranscript builds a workbook holding a summary sheet (student, overall GPA and one row
// per semester) followed by one sheet per semester listing its subjects.
func NewTranscript(usr user.User, tr gpa.Transcript) (*excelize.File, error) {
	f := excelize.NewFile()
	idx, err := f.NewSheet(summarySheet)
	if err != nil {
		return nil, errors.Wrap(err, "creating summary sheet")
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating header style")
	}

	// summary
	_ = f.SetColWidth(summarySheet, "A", "A", 24)
	_ = f.SetColWidth(summarySheet, "B", "E", 14)
	for row, kv := range [][2]interface{}{
		{"Name", usr.Name},
		{"Student ID", usr.StudentID},
		{"University", usr.University},
		{"Overall GPA", tr.OverallGPA},
		{"Credits", tr.Tally.Credits},
	} {
		_ = f.SetCellValue(summarySheet, cell("A", row+1), kv[0])
		_ = f.SetCellValue(summarySheet, cell("B", row+1), kv[1])
	}

	row := 7
	for i, h := range []string{"Semester", "Year", "Number", "Credits", "GPA"} {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetCellValue(summarySheet, cell(col, row), h)
	}
	_ = f.SetCellStyle(summarySheet, cell("A", row), cell("E", row), headerStyle)

	taken := map[string]bool{summarySheet: true}
	for _, rec := range tr.Semesters {
		row++
		_ = f.SetCellValue(summarySheet, cell("A", row), rec.Semester.Name)
		_ = f.SetCellValue(summarySheet, cell("B", row), rec.Semester.Year)
		_ = f.SetCellValue(summarySheet, cell("C", row), rec.Semester.Number)
		_ = f.SetCellValue(summarySheet, cell("D", row), rec.Tally.Credits)
		_ = f.SetCellValue(summarySheet, cell("E", row), rec.GPA)

		if err = writeSemester(f, semesterSheet(rec, taken), rec, headerStyle); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func writeSemester(f *excelize.File, sheet string, rec gpa.SemesterRecord, headerStyle int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return errors.Wrapf(err, "creating sheet %q", sheet)
	}
	_ = f.SetColWidth(sheet, "A", "A", 32)
	_ = f.SetColWidth(sheet, "B", "E", 12)

	_ = f.SetCellValue(sheet, "A1", rec.Semester.Name)
	_ = f.SetCellStyle(sheet, "A1", "A1", headerStyle)
	for i, h := range subjectHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetCellValue(sheet, cell(col, 3), h)
	}
	_ = f.SetCellStyle(sheet, "A3", "E3", headerStyle)

	row := 3
	for _, sub := range rec.Subjects {
		row++
		counted := "No"
		if sub.IsCalculated {
			counted = "Yes"
		}
		_ = f.SetCellValue(sheet, cell("A", row), sub.Name)
		_ = f.SetCellValue(sheet, cell("B", row), sub.CreditValue)
		_ = f.SetCellValue(sheet, cell("C", row), sub.Grade)
		_ = f.SetCellValue(sheet, cell("D", row), sub.GradePoints())
		_ = f.SetCellValue(sheet, cell("E", row), counted)
	}

	row += 2
	_ = f.SetCellValue(sheet, cell("A", row), "Semester GPA")
	_ = f.SetCellValue(sheet, cell("B", row), rec.GPA)
	return nil
}

// WriteTranscript writes the XLSX transcript to w.
func WriteTranscript(w io.Writer, usr user.User, tr gpa.Transcript) error {
	f, err := NewTranscript(usr, tr)
	if err != nil {
		return err
	}
	defer f.Close()

	if err = f.Write(w); err != nil {
		return errors.Wrap(err, "writing transcript")
	}
	return nil
}
