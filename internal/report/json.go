package report

import (
	"encoding/json"
	"io"

	"github.com/phobologic/unsafe-finder/internal/model"
)

type jsonDocument struct {
	Tool     string             `json:"tool"`
	Version  string             `json:"version"`
	Files    []model.FileReport `json:"files"`
	Findings int                `json:"findings"`
}

type jsonWriter struct {
	w       io.Writer
	version string
	files   []model.FileReport
}

func (j *jsonWriter) File(fr *model.FileReport) error {
	c := *fr
	if c.Items == nil {
		c.Items = []model.ItemReport{}
	}
	j.files = append(j.files, c)
	return nil
}

func (j *jsonWriter) Close() error {
	doc := jsonDocument{
		Tool:    toolName,
		Version: j.version,
		Files:   j.files,
	}
	if doc.Files == nil {
		doc.Files = []model.FileReport{}
	}
	for i := range doc.Files {
		doc.Findings += doc.Files[i].FindingCount()
	}

	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
