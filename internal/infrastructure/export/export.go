// Package export escribe tablas en CSV y en hojas de cálculo xlsx.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/taller-macetas/macetas-erp/internal/application/inventory"
	"github.com/xuri/excelize/v2"
)

var (
	_ inventory.TableWriter = CSVWriter{}
	_ inventory.TableWriter = ExcelWriter{}
)

// Formats formatos de exportación disponibles, indexados por el parámetro ?format=.
func Formats() map[string]inventory.ExportFormat {
	return map[string]inventory.ExportFormat{
		"csv":  {ContentType: "text/csv; charset=utf-8", Extension: "csv", Writer: CSVWriter{}},
		"xlsx": {ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Extension: "xlsx", Writer: ExcelWriter{}},
	}
}

// CSVWriter escribe la tabla como CSV con cabecera.
type CSVWriter struct{}

// WriteTable ignora sheet.
func (CSVWriter) WriteTable(w io.Writer, _ string, headers []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("csv cabecera: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("csv filas: %w", err)
	}
	return nil
}

// ExcelWriter escribe la tabla en una hoja xlsx con la cabecera en negrita.
type ExcelWriter struct{}

// WriteTable crea un libro con una sola hoja llamada sheet.
func (ExcelWriter) WriteTable(w io.Writer, sheet string, headers []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("crear hoja: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("estilo cabecera: %w", err)
	}

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return err
	}

	if sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("borrar hoja por defecto: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("escribir xlsx: %w", err)
	}
	return nil
}
