package models

import "time"

// State is the upload lifecycle state of a session.
type State string

const (
	StateIdle         State = "idle"
	StateFileSelected State = "file_selected"
	StateUploading    State = "uploading"
	StateDisplaying   State = "displaying"
	StateFailed       State = "failed"
)

// NoticeKind identifies a user-facing warning.
type NoticeKind string

const (
	NoticeNoFileSelected NoticeKind = "NO_FILE_SELECTED"
	NoticeUploadRejected NoticeKind = "UPLOAD_REJECTED"
	NoticeUploadError    NoticeKind = "UPLOAD_ERROR"
)

// Notice is a warning surfaced to the user.
type Notice struct {
	Kind     NoticeKind `json:"kind"`
	Message  string     `json:"message"`
	RaisedAt time.Time  `json:"raisedAt"`
}

// Snapshot is a point-in-time copy of a session's upload view.
type Snapshot struct {
	SessionID string          `json:"sessionId"`
	State     State           `json:"state"`
	Loading   bool            `json:"loading"`
	FileName  string          `json:"fileName,omitempty"`
	FileSize  int64           `json:"fileSize,omitempty"`
	HasReport bool            `json:"hasReport"`
	Report    *AnalysisReport `json:"report,omitempty"`
	Notice    *Notice         `json:"notice,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
