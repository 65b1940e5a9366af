package models

import "time"

// SelectedFile is the file a session has picked for upload.
type SelectedFile struct {
	Name       string    `json:"name"`
	Content    []byte    `json:"-"`
	SelectedAt time.Time `json:"selectedAt"`
}

// Size returns the content length in bytes.
func (f *SelectedFile) Size() int64 {
	return int64(len(f.Content))
}
