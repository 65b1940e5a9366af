package report

import (
	"testing"

	"github.com/diversityiq/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labelsOf(d models.Distribution) []string {
	labels := make([]string, 0, len(d))
	for _, c := range d {
		labels = append(labels, c.Label)
	}
	return labels
}

func countOf(d models.Distribution, label string) (float64, bool) {
	for _, c := range d {
		if c.Label == label {
			return c.Count, true
		}
	}
	return 0, false
}

func TestDecode(t *testing.T) {
	body := []byte(`{"gender": {"male": 5, "female": 7, "comment": "balanced"}, "ethnicity": {"A": 3, "B": 4}, "ethnicityComment": "diverse"}`)

	r, err := Decode(body)
	require.NoError(t, err)

	assert.Equal(t, []string{"male", "female"}, labelsOf(r.Gender))
	assert.Equal(t, "balanced", r.GenderComment)
	assert.Equal(t, []string{"A", "B"}, labelsOf(r.Ethnicity))
	assert.Equal(t, "diverse", r.EthnicityComment)
	assert.False(t, r.ReceivedAt.IsZero())
}

func TestDecode_KeepsDocumentOrder(t *testing.T) {
	body := []byte(`{"gender": {"zeta": 1, "alpha": 2, "comment": "x", "mid": 3}, "ethnicity": {"Z": 1, "A": 2, "M": 3}}`)

	r, err := Decode(body)
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, labelsOf(r.Gender))
	assert.Equal(t, []string{"Z", "A", "M"}, labelsOf(r.Ethnicity))
	assert.Empty(t, r.EthnicityComment)
}

func TestDecode_RepeatedKey(t *testing.T) {
	r, err := Decode([]byte(`{"gender": {"a": 1, "b": 2, "a": 9}, "ethnicity": {}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, labelsOf(r.Gender))
	count, ok := countOf(r.Gender, "a")
	assert.True(t, ok)
	assert.Equal(t, 9.0, count)
}

func TestDecode_NullComments(t *testing.T) {
	r, err := Decode([]byte(`{"gender": {"comment": null}, "ethnicity": {}, "ethnicityComment": null}`))
	require.NoError(t, err)

	assert.Empty(t, r.Gender)
	assert.Empty(t, r.GenderComment)
	assert.Empty(t, r.EthnicityComment)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"empty body", ``},
		{"array", `[1, 2]`},
		{"missing gender", `{"ethnicity": {"A": 1}}`},
		{"missing ethnicity", `{"gender": {"m": 1}}`},
		{"gender not object", `{"gender": [1], "ethnicity": {}}`},
		{"string count", `{"gender": {"m": "five"}, "ethnicity": {}}`},
		{"ethnicity comment key is a count", `{"gender": {}, "ethnicity": {"comment": "n/a"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.body))
			assert.ErrorIs(t, err, ErrMalformedReport)
		})
	}
}
