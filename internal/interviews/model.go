package interviews

import "time"

// Level is the severity of a banner shown with a run.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Banner is a one-line status message rendered above the results.
type Banner struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Stage records how far a run got through the pipeline.
type Stage string

const (
	StageSizeGate    Stage = "size_gate"
	StageExtraction  Stage = "extraction"
	StageContentGate Stage = "content_gate"
	StageGeneration  Stage = "generation"
	StageCompleted   Stage = "completed"
)

// Upload is one uploaded document. Size is the declared size when Data
// was not read in full; zero means len(Data).
type Upload struct {
	FileName string
	Data     []byte
	Size     int64
}

func (u Upload) size() int64 {
	if u.Size > 0 {
		return u.Size
	}
	return int64(len(u.Data))
}

// Run is the outcome of processing one upload.
type Run struct {
	ID            string
	FileName      string
	SizeBytes     int64
	ContentSHA256 string
	Stage         Stage
	// ExtractedText is only set once the text passed the content gate.
	ExtractedText string
	Strategy      string
	Pages         int
	PagesWithText int
	ArchiveKey    string
	Questions     string
	Model         string
	Banners       []Banner
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

// TextAccepted reports whether the extracted text passed both gates.
func (r Run) TextAccepted() bool {
	return r.Stage == StageGeneration || r.Stage == StageCompleted
}

// Completed reports whether questions were generated.
func (r Run) Completed() bool {
	return r.Stage == StageCompleted
}

func (r *Run) addBanner(level Level, message string) {
	r.Banners = append(r.Banners, Banner{Level: level, Message: message})
}
