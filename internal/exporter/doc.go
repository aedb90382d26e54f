// Package exporter writes prepared deck datasets for the rendering layer.
//
// CSVWriter produces Excel-compatible CSV files (UTF-8 BOM) and supports
// appending and streaming. WriteJSON and EncodeJSON produce the widget payload
// {"name", "columns", "rows"}. WorkbookExporter writes every dataset of a build
// into one workbook, one sheet per dataset. Exporter ties the three together
// for a finished build.
//
// Numbers are written at full precision, dates as YYYY-MM-DD, and missing
// cells as empty CSV fields, empty workbook cells or JSON null.
//
// Example usage:
//
//	exp := exporter.NewExporter(paths)
//	files, err := exp.Export("deck-2019", "aviation", tables, exporter.AllFormats)
package exporter
