// Package report decodes analysis reports and reshapes them into chart series.
package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/diversityiq/backend/internal/models"
	"github.com/tidwall/gjson"
)

// ErrMalformedReport is returned when a response body is not a usable report.
var ErrMalformedReport = errors.New("malformed analysis report")

// Decode parses an analysis service response body. Category order follows
// the key order of the JSON objects.
func Decode(body []byte) (*models.AnalysisReport, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedReport)
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedReport)
	}

	gender, genderComment, err := decodeDistribution(root.Get("gender"), "gender", true)
	if err != nil {
		return nil, err
	}
	ethnicity, _, err := decodeDistribution(root.Get("ethnicity"), "ethnicity", false)
	if err != nil {
		return nil, err
	}

	return &models.AnalysisReport{
		Gender:           gender,
		GenderComment:    genderComment,
		Ethnicity:        ethnicity,
		EthnicityComment: commentText(root.Get("ethnicityComment")),
		ReceivedAt:       time.Now(),
	}, nil
}

// decodeDistribution walks a JSON object in document order. When liftComment
// is set, the "comment" key is returned separately instead of as a category.
func decodeDistribution(obj gjson.Result, field string, liftComment bool) (models.Distribution, string, error) {
	if !obj.Exists() {
		return nil, "", fmt.Errorf("%w: missing %q", ErrMalformedReport, field)
	}
	if !obj.IsObject() {
		return nil, "", fmt.Errorf("%w: %q is not an object", ErrMalformedReport, field)
	}

	dist := models.Distribution{}
	index := make(map[string]int)
	var comment string
	var err error

	obj.ForEach(func(key, value gjson.Result) bool {
		label := key.String()
		if liftComment && label == models.CommentKey {
			comment = commentText(value)
			return true
		}
		if value.Type != gjson.Number {
			err = fmt.Errorf("%w: %s[%q] is not a number", ErrMalformedReport, field, label)
			return false
		}
		// A repeated key keeps its first position and its last value.
		if i, ok := index[label]; ok {
			dist[i].Count = value.Num
			return true
		}
		index[label] = len(dist)
		dist = append(dist, models.Category{Label: label, Count: value.Num})
		return true
	})
	if err != nil {
		return nil, "", err
	}

	return dist, comment, nil
}

func commentText(v gjson.Result) string {
	if !v.Exists() || v.Type == gjson.Null {
		return ""
	}
	return v.String()
}
