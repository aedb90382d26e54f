package exporter

import (
	"time"

	"avdeck/internal/dataprocessing"
)

func sampleTable(name string) *dataprocessing.Table {
	return dataprocessing.NewTable(name,
		[]dataprocessing.Column{
			{Name: "airport", Type: dataprocessing.String},
			{Name: "date", Type: dataprocessing.Date},
			{Name: "flights", Type: dataprocessing.Number},
		},
		[][]dataprocessing.Value{
			{dataprocessing.Str("EGLL"), dataprocessing.Day(time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)), dataprocessing.Num(1234.5)},
			{dataprocessing.Str("LFPG, Paris"), dataprocessing.Day(time.Date(2019, 1, 2, 0, 0, 0, 0, time.UTC)), dataprocessing.Null()},
			{dataprocessing.Null(), dataprocessing.Null(), dataprocessing.Num(0.000125)},
		})
}
