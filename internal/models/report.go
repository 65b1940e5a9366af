// Package models contains domain types for the DiversityIQ backend.
package models

import "time"

// CommentKey is the gender-object key that carries the report's comment
// instead of a count.
const CommentKey = "comment"

// Category is a single labeled count within a distribution.
type Category struct {
	Label string  `json:"label" msgpack:"label"`
	Count float64 `json:"count" msgpack:"count"`
}

// Distribution is an ordered list of categories. Order follows the key order
// of the JSON object the report was decoded from.
type Distribution []Category

// AnalysisReport is the parsed result of a successful analysis call.
type AnalysisReport struct {
	Gender           Distribution `json:"gender" msgpack:"gender"`
	GenderComment    string       `json:"genderComment,omitempty" msgpack:"genderComment,omitempty"`
	Ethnicity        Distribution `json:"ethnicity" msgpack:"ethnicity"`
	EthnicityComment string       `json:"ethnicityComment,omitempty" msgpack:"ethnicityComment,omitempty"`
	ReceivedAt       time.Time    `json:"receivedAt" msgpack:"receivedAt"`
}
