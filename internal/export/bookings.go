// Package export renders bookings as an Excel workbook.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/game-table-reservation/internal/model"
)

const (
	BookingsSheet = "Bookings"
	SummarySheet  = "Summary"
)

var headers = []string{"ID", "Date", "Time", "Table", "Customer", "Username", "Phone", "Email", "Party", "Games", "Status", "Notes", "Created"}

var statusFill = map[string]string{
	model.StatusPending:   "#FFEB9C",
	model.StatusConfirmed: "#C6EFCE",
	model.StatusCancelled: "#FFC7CE",
}

// Period labels the exported range.  Nil bounds are open.
type Period struct {
	From *model.Date
	To   *model.Date
}

func (p Period) String() string {
	from, to := "start", "today"
	if p.From != nil {
		from = p.From.String()
	}
	if p.To != nil {
		to = p.To.String()
	}
	return fmt.Sprintf("Bookings %s to %s", from, to)
}

// Filename is the attachment name offered to the browser.
func (p Period) Filename() string {
	name := "bookings"
	if p.From != nil {
		name += "_" + p.From.String()
	}
	if p.To != nil {
		name += "_to_" + p.To.String()
	}
	return name + ".xlsx"
}

func gamesCell(items []model.BookingItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s x%d", it.GameName, it.Qty))
	}
	return strings.Join(parts, ", ")
}

// WriteBookings writes a workbook with one row per booking and a summary
// of counts per status.
func WriteBookings(w io.Writer, period Period, list []model.BookingDetail) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(BookingsSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	if err := f.SetCellValue(BookingsSheet, "A1", period.String()); err != nil {
		return err
	}
	last, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.MergeCell(BookingsSheet, "A1", last+"1")
	if title, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err == nil {
		_ = f.SetCellStyle(BookingsSheet, "A1", "A1", title)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellValue(BookingsSheet, cell, h); err != nil {
			return err
		}
	}
	if head, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err == nil {
		_ = f.SetCellStyle(BookingsSheet, "A2", last+"2", head)
	}

	styles := map[string]int{}
	for status, color := range statusFill {
		if id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		}); err == nil {
			styles[status] = id
		}
	}

	counts := map[string]int{}
	for i, b := range list {
		row := i + 3
		values := []any{
			b.ID,
			b.BookingDate.String(),
			b.Timeslot.Label(),
			b.TableName,
			b.CustomerName,
			b.Username,
			b.Phone,
			b.Email,
			b.PartySize,
			gamesCell(b.Items),
			b.Status,
			b.Notes,
			b.CreatedAt.UTC().Format("2006-01-02 15:04"),
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(BookingsSheet, start, &values); err != nil {
			return err
		}
		if id, ok := styles[b.Status]; ok {
			cell, _ := excelize.CoordinatesToCellName(11, row)
			_ = f.SetCellStyle(BookingsSheet, cell, cell, id)
		}
		counts[b.Status]++
	}

	_ = f.SetColWidth(BookingsSheet, "A", "A", 8)
	_ = f.SetColWidth(BookingsSheet, "B", "I", 16)
	_ = f.SetColWidth(BookingsSheet, "J", "J", 40)
	_ = f.SetColWidth(BookingsSheet, "K", "M", 18)
	_ = f.SetPanes(BookingsSheet, &excelize.Panes{Freeze: true, YSplit: 2, TopLeftCell: "A3", ActivePane: "bottomLeft"})

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}
	_ = f.SetSheetRow(SummarySheet, "A1", &[]any{"Status", "Bookings"})
	for i, s := range model.Statuses {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = f.SetSheetRow(SummarySheet, cell, &[]any{s, counts[s]})
	}
	totalCell, _ := excelize.CoordinatesToCellName(1, len(model.Statuses)+2)
	_ = f.SetSheetRow(SummarySheet, totalCell, &[]any{"Total", len(list)})

	_, err = f.WriteTo(w)
	return err
}
