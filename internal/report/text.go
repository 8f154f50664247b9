package report

import (
	"bytes"
	"io"

	"github.com/fatih/color"

	"github.com/phobologic/unsafe-finder/internal/model"
)

const (
	sectionPrefix = "# Unsafe usages in file "
	findingPrefix = "--- "
)

type textWriter struct {
	w       io.Writer
	section *color.Color
	pub     *color.Color
	hidden  *color.Color
}

func newTextWriter(w io.Writer, opts Options) *textWriter {
	tw := &textWriter{
		w:       w,
		section: color.New(color.Bold),
		pub:     color.New(color.FgRed),
		hidden:  color.New(color.FgYellow),
	}
	for _, c := range []*color.Color{tw.section, tw.pub, tw.hidden} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return tw
}

// File writes the section for fr in a single call so sections from
// different files never interleave.
func (t *textWriter) File(fr *model.FileReport) error {
	var buf bytes.Buffer
	buf.WriteString(t.section.Sprint(sectionPrefix + fr.Path))
	buf.WriteByte('\n')

	for i := range fr.Items {
		item := &fr.Items[i]
		buf.WriteString(item.Header)
		for _, f := range item.Findings {
			c := t.hidden
			if f.Category == model.PublicUnsafe {
				c = t.pub
			}
			buf.WriteString(c.Sprint(findingPrefix + string(f.Category) + " " + f.Name))
			buf.WriteByte('\n')
		}
		buf.WriteByte('\n')
	}

	_, err := t.w.Write(buf.Bytes())
	return err
}

func (t *textWriter) Close() error {
	return nil
}
