package transform

import (
	"fmt"
	"io"
	"strings"

	"github.com/gnana997/propfix/pkg/patch"
	"github.com/gnana997/propfix/pkg/synth"
)

// Outcome is the result of processing a component or a file.
type Outcome string

const (
	OutcomeUpdated  Outcome = "updated"
	OutcomeUpToDate Outcome = "up-to-date"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
)

// Skip reasons.
const (
	ReasonNoProps         = "no props detected"
	ReasonStaticPropTypes = "static propTypes declared in class body"
	ReasonNoComponent     = "no component identified"
)

// ComponentResult reports one component.
type ComponentResult struct {
	Name      string
	Outcome   Outcome
	Reason    string
	Props     int
	Placement patch.Placement

	// Preserved lists props whose existing validator was kept (merge).
	Preserved []string
	// Downgraded lists existing validators that were overwritten.
	Downgraded []synth.Downgrade
}

// FileResult reports one file.
type FileResult struct {
	Path        string
	Outcome     Outcome
	Reason      string
	Err         error
	Changed     bool
	ImportAdded bool
	Components  []ComponentResult
}

func (fr *FileResult) fail(err error) FileResult {
	fr.Outcome = OutcomeFailed
	fr.Err = err
	fr.Changed = false
	return *fr
}

// settle derives the file outcome from its components.
func (fr *FileResult) settle() {
	switch {
	case fr.Err != nil:
		fr.Outcome = OutcomeFailed
	case len(fr.Components) == 0:
		fr.Outcome = OutcomeSkipped
		fr.Reason = ReasonNoComponent
	case fr.Changed:
		fr.Outcome = OutcomeUpdated
	default:
		fr.Outcome = OutcomeSkipped
		for _, c := range fr.Components {
			if c.Outcome == OutcomeUpToDate {
				fr.Outcome = OutcomeUpToDate
				return
			}
		}
		fr.Reason = fr.Components[0].Reason
	}
}

// Summary aggregates a run.
type Summary struct {
	Root string

	FilesScanned int
	FilesChanged int
	FilesFailed  int
	FilesSkipped int

	ComponentsUpdated  int
	ComponentsUpToDate int
	ComponentsSkipped  int

	Files []FileResult
}

func (s *Summary) add(fr FileResult) {
	s.Files = append(s.Files, fr)
	s.FilesScanned++
	switch fr.Outcome {
	case OutcomeFailed:
		s.FilesFailed++
	case OutcomeSkipped:
		s.FilesSkipped++
	}
	if fr.Changed {
		s.FilesChanged++
	}
	for _, c := range fr.Components {
		switch c.Outcome {
		case OutcomeUpdated:
			s.ComponentsUpdated++
		case OutcomeUpToDate:
			s.ComponentsUpToDate++
		case OutcomeSkipped:
			s.ComponentsSkipped++
		}
	}
}

// Write prints one line per file and component followed by the totals.
func (s *Summary) Write(w io.Writer) {
	for _, fr := range s.Files {
		writeFileResult(w, fr)
	}
	fmt.Fprintf(w, "\n%d files scanned, %d changed, %d failed, %d skipped\n",
		s.FilesScanned, s.FilesChanged, s.FilesFailed, s.FilesSkipped)
	fmt.Fprintf(w, "components: %d updated, %d up to date, %d skipped\n",
		s.ComponentsUpdated, s.ComponentsUpToDate, s.ComponentsSkipped)
}

func writeFileResult(w io.Writer, fr FileResult) {
	switch fr.Outcome {
	case OutcomeFailed:
		fmt.Fprintf(w, "%s: failed: %v\n", fr.Path, fr.Err)
		return
	case OutcomeSkipped:
		if fr.Reason == ReasonNoComponent {
			fmt.Fprintf(w, "%s: skipped (%s)\n", fr.Path, fr.Reason)
			return
		}
	}

	fmt.Fprintf(w, "%s: %s\n", fr.Path, fr.Outcome)
	for _, c := range fr.Components {
		line := fmt.Sprintf("  %s: %s", c.Name, c.Outcome)
		switch {
		case c.Reason != "":
			line += " (" + c.Reason + ")"
		case c.Outcome == OutcomeUpdated:
			line += fmt.Sprintf(" (%d props, %s)", c.Props, c.Placement)
		}
		fmt.Fprintln(w, line)
		if len(c.Preserved) > 0 {
			fmt.Fprintf(w, "    kept existing validators: %s\n", strings.Join(c.Preserved, ", "))
		}
		for _, d := range c.Downgraded {
			replaced := d.Replaced
			if replaced == "" {
				replaced = "(removed)"
			}
			fmt.Fprintf(w, "    overwrote %s: %s -> %s\n", d.Prop, d.Existing, replaced)
		}
	}
}
