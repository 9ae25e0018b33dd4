package app

import (
	"bytes"
	"fmt"
	"log"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	tele "gopkg.in/telebot.v3"
)

// ==========================================
// ГРАФИК АКТИВНОСТИ
// ==========================================

const chartDays = 14

// generateCreativesChart рисует PNG с количеством созданных креативов
// по дням за последние chartDays суток.
func generateCreativesChart() ([]byte, error) {
	rows, err := store.CreativesPerDay(chartDays)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]int, len(rows))
	for _, r := range rows {
		byDay[r.Day] = r.Cnt
	}

	var dates []time.Time
	var values []float64
	for i := chartDays - 1; i >= 0; i-- {
		d := time.Now().AddDate(0, 0, -i)
		dates = append(dates, d)
		values = append(values, float64(byDay[d.Format("2006-01-02")]))
	}

	graph := chart.Chart{
		Background: chart.Style{Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20}},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Креативы",
				XValues: dates,
				YValues: values,
				Style:   chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 5.0, DotColor: chart.ColorWhite, DotWidth: 4.0},
			},
		},
		XAxis:  chart.XAxis{Name: "Дни", ValueFormatter: chart.TimeValueFormatterWithFormat("02 Jan")},
		YAxis:  chart.YAxis{Name: "Кол-во креативов", ValueFormatter: func(v interface{}) string { return fmt.Sprintf("%.0f", v.(float64)) }},
		Height: 400,
		Width:  800,
	}

	buffer := bytes.NewBuffer([]byte{})
	err = graph.Render(chart.PNG, buffer)
	return buffer.Bytes(), err
}

func sendCreativesChart(c tele.Context) error {
	png, err := generateCreativesChart()
	if err != nil {
		log.Printf("❌ Ошибка построения графика: %v", err)
		return c.Respond(&tele.CallbackResponse{Text: "❌ Не удалось построить график"})
	}

	photo := &tele.Photo{
		File:    tele.FromReader(bytes.NewReader(png)),
		Caption: fmt.Sprintf("📈 Креативы за последние %d дней", chartDays),
	}
	return c.Send(photo)
}
