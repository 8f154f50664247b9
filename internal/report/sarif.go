package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/phobologic/unsafe-finder/internal/model"
)

const (
	toolName = "unsafe-finder"
	toolURI  = "https://github.com/phobologic/unsafe-finder"
)

var ruleDescriptions = map[model.Category]string{
	model.PublicUnsafe: "Public function declared unsafe: an unsafe entry point exposed to callers.",
	model.HiddenUnsafe: "Function not declared unsafe whose body contains an unsafe block.",
}

var ruleLevels = map[model.Category]string{
	model.PublicUnsafe: "warning",
	model.HiddenUnsafe: "note",
}

type sarifWriter struct {
	w       io.Writer
	version string
	files   []model.FileReport
}

func (s *sarifWriter) File(fr *model.FileReport) error {
	s.files = append(s.files, *fr)
	return nil
}

func (s *sarifWriter) Close() error {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("creating SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(toolName, toolURI)
	if s.version != "" {
		run.Tool.Driver.Version = &s.version
	}
	for _, cat := range []model.Category{model.PublicUnsafe, model.HiddenUnsafe} {
		run.AddRule(cat.RuleID()).
			WithDescription(ruleDescriptions[cat]).
			WithDefaultConfiguration(&sarif.ReportingConfiguration{
				Level: ruleLevels[cat],
			})
	}

	for i := range s.files {
		fr := &s.files[i]
		uri := filepath.ToSlash(fr.Path)
		for j := range fr.Items {
			item := &fr.Items[j]
			container := firstLine(item.Header)
			for _, f := range item.Findings {
				location := sarif.NewLocation().WithPhysicalLocation(
					sarif.NewPhysicalLocation().
						WithArtifactLocation(sarif.NewArtifactLocation().WithUri(uri)).
						WithRegion(sarif.NewRegion().WithStartLine(f.Line)),
				)
				result := sarif.NewRuleResult(f.Category.RuleID()).
					WithMessage(sarif.NewTextMessage(fmt.Sprintf("%s %s in %s", f.Category, f.Name, container))).
					WithLevel(ruleLevels[f.Category]).
					WithLocations([]*sarif.Location{location})
				run.AddResult(result)
			}
		}
	}
	report.AddRun(run)

	return report.PrettyWrite(s.w)
}

// firstLine returns the signature line of a rendered header, skipping
// attributes and doc comments.
func firstLine(header string) string {
	for _, line := range strings.Split(header, "\n") {
		if line != "" && !strings.HasPrefix(line, "#[") && !strings.HasPrefix(line, "///") {
			return strings.TrimSuffix(line, " {}")
		}
	}
	return strings.TrimSpace(header)
}
