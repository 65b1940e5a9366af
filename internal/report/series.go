package report

import (
	"github.com/diversityiq/backend/internal/models"
	"github.com/montanaflynn/stats"
)

// NoCommentCaption is shown under a chart when the report has no comment.
const NoCommentCaption = "No comments available."

const (
	GenderTitle    = "Gender Distribution"
	EthnicityTitle = "Ethnicity Distribution"
)

var (
	genderPalette    = []string{"#36A2EB", "#FF6384"}
	ethnicityPalette = []string{"#FF6384", "#36A2EB", "#FFCE56", "#4BC0C0", "#9966FF"}
)

// DeriveChartSeries reshapes a report into the gender pie and ethnicity bar
// series. Values are not validated; an empty distribution yields an empty
// series.
func DeriveChartSeries(r *models.AnalysisReport) models.ChartSeries {
	if r == nil {
		r = &models.AnalysisReport{}
	}

	gender := buildSeries(GenderTitle, models.ChartPie, r.Gender, true, genderPalette)
	gender.Caption = caption(r.GenderComment)

	ethnicity := buildSeries(EthnicityTitle, models.ChartBar, r.Ethnicity, false, ethnicityPalette)
	ethnicity.Caption = caption(r.EthnicityComment)

	return models.ChartSeries{Gender: gender, Ethnicity: ethnicity}
}

func buildSeries(title string, kind models.ChartKind, d models.Distribution, skipComment bool, palette []string) models.Series {
	s := models.Series{
		Title:  title,
		Kind:   kind,
		Labels: make([]string, 0, len(d)),
		Values: make([]float64, 0, len(d)),
		Colors: append([]string(nil), palette...),
	}
	for _, c := range d {
		if skipComment && c.Label == models.CommentKey {
			continue
		}
		s.Labels = append(s.Labels, c.Label)
		s.Values = append(s.Values, c.Count)
	}
	s.Total = total(s.Values)
	return s
}

func total(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum, err := stats.Sum(values)
	if err != nil {
		return 0
	}
	return sum
}

func caption(comment string) string {
	if comment == "" {
		return NoCommentCaption
	}
	return comment
}
