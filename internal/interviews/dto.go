package interviews

import "time"

// RunResponse is the outward-facing representation of a run.
type RunResponse struct {
	RunID         string     `json:"runId"`
	FileName      string     `json:"fileName"`
	SizeBytes     int64      `json:"sizeBytes"`
	Stage         Stage      `json:"stage"`
	ExtractedText string     `json:"extractedText,omitempty"`
	Strategy      string     `json:"extractionStrategy,omitempty"`
	Pages         int        `json:"pages,omitempty"`
	PagesWithText int        `json:"pagesWithText,omitempty"`
	Questions     string     `json:"questions,omitempty"`
	Model         string     `json:"model,omitempty"`
	Archived      bool       `json:"archived"`
	Banners       []Banner   `json:"banners"`
	CreatedAt     time.Time  `json:"createdAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

// RunSummary is the list view of a run.
type RunSummary struct {
	RunID     string    `json:"runId"`
	FileName  string    `json:"fileName"`
	Stage     Stage     `json:"stage"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewRunResponse converts a run into its outward-facing form.
func NewRunResponse(run Run) RunResponse {
	banners := run.Banners
	if banners == nil {
		banners = []Banner{}
	}
	return RunResponse{
		RunID:         run.ID,
		FileName:      run.FileName,
		SizeBytes:     run.SizeBytes,
		Stage:         run.Stage,
		ExtractedText: run.ExtractedText,
		Strategy:      run.Strategy,
		Pages:         run.Pages,
		PagesWithText: run.PagesWithText,
		Questions:     run.Questions,
		Model:         run.Model,
		Archived:      run.ArchiveKey != "",
		Banners:       banners,
		CreatedAt:     run.CreatedAt,
		CompletedAt:   run.CompletedAt,
	}
}

func toSummary(run Run) RunSummary {
	return RunSummary{
		RunID:     run.ID,
		FileName:  run.FileName,
		Stage:     run.Stage,
		Model:     run.Model,
		CreatedAt: run.CreatedAt,
	}
}
