package models

// ChartKind selects how a series is drawn.
type ChartKind string

const (
	ChartPie ChartKind = "pie"
	ChartBar ChartKind = "bar"
)

// Series is a parallel label/value pair ready for a chart renderer.
type Series struct {
	Title   string    `json:"title" msgpack:"title"`
	Kind    ChartKind `json:"kind" msgpack:"kind"`
	Labels  []string  `json:"labels" msgpack:"labels"`
	Values  []float64 `json:"values" msgpack:"values"`
	Colors  []string  `json:"colors" msgpack:"colors"`
	Caption string    `json:"caption" msgpack:"caption"`
	Total   float64   `json:"total" msgpack:"total"`
}

// ChartSeries holds both series derived from a report.
type ChartSeries struct {
	Gender    Series `json:"gender" msgpack:"gender"`
	Ethnicity Series `json:"ethnicity" msgpack:"ethnicity"`
}
