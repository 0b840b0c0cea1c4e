package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/hylla/gantry/internal/chart"
	"github.com/hylla/gantry/internal/domain"
)

func TestMeasurerWidth(t *testing.T) {
	m := NewMeasurer("", 10)
	narrow := m.Width("iii")
	wide := m.Width("WWW")
	if narrow <= 0 || wide <= narrow {
		t.Fatalf("expected proportional metrics, got iii=%v WWW=%v", narrow, wide)
	}
	if m.Width("") != 0 {
		t.Fatal("expected empty text to have zero width")
	}
}

func TestWriteProducesPDF(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	tasks := []domain.Task{
		{ID: "a", ProjectID: "p", Name: "Design review…", Type: domain.TaskTypeTask, Start: day, End: day.AddDate(0, 0, 4), Progress: 40},
		{ID: "b", ProjectID: "p", Name: "Phase", Type: domain.TaskTypeProject, Start: day, End: day.AddDate(0, 0, 6)},
	}
	frame := chart.New(chart.DefaultConfig()).Build(tasks, chart.BuildOptions{
		Measurer: NewMeasurer(DefaultFont, 14),
		Now:      day.AddDate(0, 0, 1),
	})
	var buf bytes.Buffer
	if err := Write(&buf, frame); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("expected pdf header, got %q", buf.Bytes()[:min(buf.Len(), 8)])
	}
}
