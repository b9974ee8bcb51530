package models

// InputKind is the kind of source a generation request was built from
type InputKind string

const (
	InputText  InputKind = "text"
	InputAudio InputKind = "audio"
	InputImage InputKind = "image"
)

// InlineMedia is a binary payload embedded directly in a generation call
type InlineMedia struct {
	MIMEType string
	Data     []byte
	Filename string
}

// GenerationRequest is the transient value built for one processing request
type GenerationRequest struct {
	UserID string
	Mode   string
	Text   string
	Media  *InlineMedia
	Params ModeParams
}

// GenerationResult is returned to the client after a successful generation
type GenerationResult struct {
	Result        string `json:"result"`
	Transcription string `json:"transcription,omitempty"`
	Usage         int    `json:"usage"`
}
