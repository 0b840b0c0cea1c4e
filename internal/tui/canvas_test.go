package tui

import (
	"strings"
	"testing"

	"github.com/hylla/gantry/internal/domain"
	"github.com/hylla/gantry/internal/visual"
)

func TestCellCanvasRectAndText(t *testing.T) {
	c := newCellCanvas(10, 2, 6, 25, 0, 0)
	c.Rect(visual.Rect{X: 6, Y: 0, Width: 18, Height: 25, Fill: "#a3a3ff"})
	c.Text(visual.Text{X: 6, Y: 10, Content: "Go", Anchor: domain.AnchorStart, Fill: "#fff"})
	c.Text(visual.Text{X: 30, Y: 30, Content: "hidden", Hidden: true})

	if got := c.Plain(); got != " Go\n" {
		t.Fatalf("unexpected plain render %q", got)
	}
	for col := 1; col <= 3; col++ {
		if c.cells[0][col].bg != "#a3a3ff" {
			t.Fatalf("expected cell %d painted, got %q", col, c.cells[0][col].bg)
		}
	}
	if c.cells[0][0].bg != "" || c.cells[0][4].bg != "" {
		t.Fatal("expected rect to stay inside its span")
	}
	if c.cells[0][1].fg != "#ffffff" {
		t.Fatalf("expected text color blended, got %q", c.cells[0][1].fg)
	}
}

func TestCellCanvasMiddleAnchorAndOffset(t *testing.T) {
	c := newCellCanvas(10, 1, 6, 25, 2, 1)
	c.Text(visual.Text{X: 60, Y: 30, Content: "abcd", Anchor: domain.AnchorMiddle, Fill: "#000"})
	// 60/6 = 10, minus half width 2 = 8, minus offset 2 = column 6.
	if got := c.Plain(); got != "      abcd" {
		t.Fatalf("unexpected middle anchored text %q", got)
	}
	c.Text(visual.Text{X: 0, Y: 0, Content: "above"})
	if strings.Contains(c.Plain(), "above") {
		t.Fatal("expected text above the offset to be clipped")
	}
}

func TestCellCanvasWideRunes(t *testing.T) {
	c := newCellCanvas(6, 1, 6, 25, 0, 0)
	c.Text(visual.Text{X: 0, Y: 0, Content: "日本", Anchor: domain.AnchorStart})
	if got := c.Plain(); got != "日本" {
		t.Fatalf("unexpected wide rune render %q", got)
	}
	if c.cells[0][1].ch != 0 || c.cells[0][3].ch != 0 {
		t.Fatal("expected continuation cells for wide runes")
	}
}

func TestCellCanvasLinesAndPolygons(t *testing.T) {
	c := newCellCanvas(8, 3, 6, 25, 0, 0)
	c.Line(visual.Line{Points: []visual.Point{{X: 0, Y: 30}, {X: 42, Y: 30}}, Stroke: "grey", Class: "arrow"})
	c.Line(visual.Line{Points: []visual.Point{{X: 0, Y: 60}, {X: 42, Y: 60}}, Stroke: "grey", Class: "grid-row-line"})
	c.Polygon(visual.Polygon{Points: []visual.Point{{X: 40, Y: 55}, {X: 44, Y: 58}, {X: 40, Y: 61}}, Fill: "grey"})

	lines := strings.Split(c.Plain(), "\n")
	if lines[1] != "────────" {
		t.Fatalf("expected horizontal arrow segment, got %q", lines[1])
	}
	if strings.TrimSpace(lines[2]) != "" {
		t.Fatalf("expected grid lines skipped, got %q", lines[2])
	}
	if c.cells[2][7].bg != "#808080" && c.cells[2][6].bg != "#808080" {
		t.Fatal("expected tiny polygon to paint the cell under its centroid")
	}

	vertical := newCellCanvas(3, 3, 6, 25, 0, 0)
	vertical.Line(visual.Line{Points: []visual.Point{{X: 6, Y: 0}, {X: 6, Y: 70}}, Stroke: "#000"})
	for row := range 3 {
		if vertical.cells[row][1].ch != '│' {
			t.Fatalf("expected vertical glyph on row %d", row)
		}
	}
}

func TestCellCanvasStyledOutputKeepsText(t *testing.T) {
	c := newCellCanvas(12, 1, 6, 25, 0, 0)
	c.Text(visual.Text{X: 0, Y: 0, Content: "Design", Fill: "#555"})
	if !strings.Contains(c.String(), "Design") {
		t.Fatalf("expected single styled run to keep text contiguous, got %q", c.String())
	}
}

func TestPointInPolygon(t *testing.T) {
	square := []visual.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	if !pointInPolygon(square, 5, 5) || pointInPolygon(square, 15, 5) {
		t.Fatal("unexpected point in polygon result")
	}
}
