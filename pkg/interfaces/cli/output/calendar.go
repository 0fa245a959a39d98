package output

import (
	"fmt"
	"html"
	"strings"

	"github.com/copropiedad/ledger/pkg/application/dto"
	"github.com/copropiedad/ledger/pkg/domain/entities"
)

// ShareCalendar draws the summer occupancy of each property as an SVG grid:
// one row per property, one column per share period.
type ShareCalendar struct {
	Width        int
	Height       int
	MarginLeft   int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	RowHeight    int
}

// CalendarCell is one share of one property placed on the grid
type CalendarCell struct {
	PropertyName string
	Share        dto.ShareView
	X            int
	Width        int
	Color        string
}

// NewShareCalendar sizes a calendar for the given number of properties
func NewShareCalendar(properties int) *ShareCalendar {
	rowHeight := 30
	return &ShareCalendar{
		Width:        1000,
		Height:       properties*rowHeight + 160,
		MarginLeft:   220,
		MarginTop:    70,
		MarginRight:  40,
		MarginBottom: 90,
		RowHeight:    rowHeight,
	}
}

// GenerateSVG creates the SVG calendar
func (sc *ShareCalendar) GenerateSVG(views []*dto.PropertyView) string {
	if len(views) == 0 {
		return sc.generateEmptyChart()
	}

	var svg strings.Builder

	svg.WriteString(fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`, sc.Width, sc.Height))
	svg.WriteString(`<defs>`)
	svg.WriteString(`<style>`)
	svg.WriteString(`.property-label { font-family: Arial, sans-serif; font-size: 12px; fill: #333; }`)
	svg.WriteString(`.period-label { font-family: Arial, sans-serif; font-size: 11px; fill: #666; }`)
	svg.WriteString(`.title { font-family: Arial, sans-serif; font-size: 16px; font-weight: bold; fill: #333; }`)
	svg.WriteString(`.grid-line { stroke: #e0e0e0; stroke-width: 1; }`)
	svg.WriteString(`.share-cell { stroke: #333; stroke-width: 1; }`)
	svg.WriteString(`.share-text { font-family: Arial, sans-serif; font-size: 10px; fill: white; }`)
	svg.WriteString(`</style>`)
	svg.WriteString(`</defs>`)

	svg.WriteString(fmt.Sprintf(`<rect width="%d" height="%d" fill="white"/>`, sc.Width, sc.Height))
	svg.WriteString(fmt.Sprintf(`<text x="%d" y="30" class="title" text-anchor="middle">Summer Share Calendar</text>`, sc.Width/2))

	sc.drawPeriodAxis(&svg)
	sc.drawGrid(&svg, len(views))
	for i, v := range views {
		sc.drawPropertyRow(&svg, i, v)
	}
	sc.drawLegend(&svg)

	svg.WriteString(`</svg>`)
	return svg.String()
}

// Cells places every share of views on the grid, row by row
func (sc *ShareCalendar) Cells(views []*dto.PropertyView) []CalendarCell {
	var cells []CalendarCell
	for _, v := range views {
		for _, share := range v.Shares {
			x, width := sc.column(share.Number)
			cells = append(cells, CalendarCell{
				PropertyName: v.Property.Name,
				Share:        share,
				X:            x,
				Width:        width,
				Color:        statusColor(share.Status),
			})
		}
	}
	return cells
}

func (sc *ShareCalendar) column(number entities.ShareNumber) (x, width int) {
	chartWidth := sc.Width - sc.MarginLeft - sc.MarginRight
	width = chartWidth / entities.SharesPerProperty
	x = sc.MarginLeft + int(number-1)*width
	return x, width
}

func (sc *ShareCalendar) drawPeriodAxis(svg *strings.Builder) {
	for n := entities.ShareNumber(1); n <= entities.SharesPerProperty; n++ {
		x, width := sc.column(n)
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="period-label" text-anchor="middle">%s</text>`,
			x+width/2, sc.MarginTop-10, n.Period()))
	}
}

func (sc *ShareCalendar) drawGrid(svg *strings.Builder, rows int) {
	gridBottom := sc.MarginTop + rows*sc.RowHeight
	for n := entities.ShareNumber(1); n <= entities.SharesPerProperty+1; n++ {
		x, _ := sc.column(n)
		svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
			x, sc.MarginTop, x, gridBottom))
	}
}

func (sc *ShareCalendar) drawPropertyRow(svg *strings.Builder, row int, v *dto.PropertyView) {
	y := sc.MarginTop + row*sc.RowHeight

	svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="property-label" text-anchor="end">%s</text>`,
		sc.MarginLeft-15, y+sc.RowHeight/2+4, html.EscapeString(truncate(v.Property.Name, 28))))
	svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
		sc.MarginLeft, y+sc.RowHeight, sc.Width-sc.MarginRight, y+sc.RowHeight))

	for _, cell := range sc.Cells([]*dto.PropertyView{v}) {
		sc.drawCell(svg, cell, y)
	}
}

func (sc *ShareCalendar) drawCell(svg *strings.Builder, cell CalendarCell, rowY int) {
	cellHeight := sc.RowHeight - 4
	cellY := rowY + 2

	svg.WriteString(fmt.Sprintf(`<g><rect x="%d" y="%d" width="%d" height="%d" fill="%s" class="share-cell"/>`,
		cell.X+2, cellY, cell.Width-4, cellHeight, cell.Color))

	label := cell.Share.Status.String()
	if cell.Share.OwnerName != "" {
		label = cell.Share.OwnerName
	}
	svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="share-text" text-anchor="middle">%s</text>`,
		cell.X+cell.Width/2, cellY+cellHeight/2+3, html.EscapeString(truncate(label, 26))))

	tooltip := fmt.Sprintf("%s, share %d (%s): %s, %s",
		cell.PropertyName, cell.Share.Number, cell.Share.Period, cell.Share.Status, cell.Share.Price)
	if cell.Share.OwnerName != "" {
		tooltip += ", held by " + cell.Share.OwnerName
	}
	svg.WriteString(fmt.Sprintf(`<title>%s</title></g>`, html.EscapeString(tooltip)))
}

func (sc *ShareCalendar) drawLegend(svg *strings.Builder) {
	legendX := sc.MarginLeft
	legendY := sc.Height - sc.MarginBottom + 30

	items := []struct {
		status entities.ShareStatus
		label  string
	}{
		{entities.ShareAvailable, "Available"},
		{entities.ShareReserved, "Reserved"},
		{entities.ShareSold, "Sold"},
	}
	for i, item := range items {
		itemX := legendX + i*120
		svg.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="12" height="12" fill="%s"/>`,
			itemX, legendY, statusColor(item.status)))
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="period-label">%s</text>`,
			itemX+18, legendY+10, item.label))
	}
}

func statusColor(status entities.ShareStatus) string {
	switch status {
	case entities.ShareAvailable:
		return "#4CAF50"
	case entities.ShareReserved:
		return "#FF9800"
	case entities.ShareSold:
		return "#2196F3"
	default:
		return "#9E9E9E"
	}
}

func (sc *ShareCalendar) generateEmptyChart() string {
	return fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">
		<rect width="%d" height="%d" fill="white"/>
		<text x="%d" y="%d" class="title" text-anchor="middle">No Properties Found</text>
		<style>
			.title { font-family: Arial, sans-serif; font-size: 16px; fill: #666; }
		</style>
	</svg>`, sc.Width, sc.Height, sc.Width, sc.Height, sc.Width/2, sc.Height/2)
}
