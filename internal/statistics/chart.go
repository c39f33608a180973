package statistics

import (
	"bytes"
	"fmt"
	"os"

	"github.com/golang/freetype/truetype"
	chart "github.com/wcharczuk/go-chart/v2"
)

const chartTitle = "가장 많이 질문한 내용"

// loadFont parses the TTF at path. An empty path keeps the chart default.
func loadFont(path string) (*truetype.Font, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chart font: %w", err)
	}
	font, err := truetype.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse chart font: %w", err)
	}
	return font, nil
}

// renderChart draws data as a PNG bar chart.
func renderChart(data []UtteranceCount, font *truetype.Font) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("no data to chart")
	}
	bars := make([]chart.Value, 0, len(data))
	maxCount := 0
	for _, item := range data {
		bars = append(bars, chart.Value{Value: float64(item.Count), Label: item.Utterance})
		if item.Count > maxCount {
			maxCount = item.Count
		}
	}
	graph := chart.BarChart{
		Title:      chartTitle,
		Font:       font,
		Width:      800,
		Height:     600,
		BarWidth:   80,
		Background: chart.Style{Padding: chart.Box{Top: 60, Left: 20, Right: 20, Bottom: 20}},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount + 1)},
		},
		Bars: bars,
	}
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}
