// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

// Package export writes admin spreadsheets.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/arko8919/cotswold-cycling-adventures/internal/models"
)

// BookingsSheet is the name of the only sheet in the bookings workbook.
const BookingsSheet = "Bookings"

// ContentType is the MIME type of an .xlsx workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type column struct {
	header string
	width  float64
	value  func(b *models.Booking) interface{}
}

var bookingColumns = []column{
	{"Booking", 38, func(b *models.Booking) interface{} { return b.ID }},
	{"Adventure", 28, func(b *models.Booking) interface{} { return b.Adventure.Name }},
	{"User", 24, func(b *models.Booking) interface{} { return b.User.Name }},
	{"Email", 30, func(b *models.Booking) interface{} { return b.User.Email }},
	{"Price", 12, func(b *models.Booking) interface{} { return b.Price }},
	{"Paid", 8, func(b *models.Booking) interface{} { return b.Paid }},
	{"Status", 12, func(b *models.Booking) interface{} { return b.Status }},
	{"Start date", 14, func(b *models.Booking) interface{} {
		if b.StartDate == nil {
			return ""
		}
		return b.StartDate.UTC().Format("2006-01-02")
	}},
	{"Created", 20, func(b *models.Booking) interface{} { return b.CreatedAt.UTC().Format("2006-01-02 15:04") }},
}

// BookingsWorkbook writes one row per booking under a styled header row.
// The caller must Close the returned file.
func BookingsWorkbook(bookings []models.Booking) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", BookingsSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeHeader(f); err != nil {
		_ = f.Close()
		return nil, err
	}

	for i := range bookings {
		row := make([]interface{}, len(bookingColumns))
		for j, col := range bookingColumns {
			row[j] = col.value(&bookings[i])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(BookingsSheet, cell, &row); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	return f, nil
}

func writeHeader(f *excelize.File) error {
	headers := make([]interface{}, len(bookingColumns))
	for i, col := range bookingColumns {
		headers[i] = col.header

		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(BookingsSheet, name, name, col.width); err != nil {
			return fmt.Errorf("set width of %s: %w", name, err)
		}
	}
	if err := f.SetSheetRow(BookingsSheet, "A1", &headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#55C57A"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(bookingColumns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(BookingsSheet, "A1", last, style); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}
	return f.SetPanes(BookingsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
