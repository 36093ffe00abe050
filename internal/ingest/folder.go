package ingest

import (
	"fmt"
	"strings"
)

// UnknownStage is the stage detail of a folder name without a stage marker.
const UnknownStage = "Unknown"

const versus = "_vs_"

// stageMarkers are the tokens that open the stage detail of a match folder name.
var stageMarkers = []string{"Playoffs", "Group_Stage", "Group-Stage", "Stage"}

// ParseError reports a match folder name the loader cannot interpret.
type ParseError struct {
	Folder string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse match folder %q: %s", e.Folder, e.Reason)
}

// MatchFolder is the parsed form of "TeamA_vs_TeamB_<stage detail>".
type MatchFolder struct {
	TeamA string
	TeamB string
	Stage string
}

// Name is the display name of the match.
func (m MatchFolder) Name() string {
	return m.TeamA + " vs " + m.TeamB
}

// ParseMatchFolder splits a match folder name into both teams and the stage detail. The
// remainder after "_vs_" is cut at the right-most stage marker; when markers overlap
// (Group_Stage and Stage) the longer one wins. Team names that themselves contain a marker
// are mis-split.
func ParseMatchFolder(name string) (MatchFolder, error) {
	left, remainder, ok := strings.Cut(name, versus)
	if !ok {
		return MatchFolder{}, &ParseError{Folder: name, Reason: "missing " + versus}
	}
	mf := MatchFolder{
		TeamA: strings.TrimSpace(strings.ReplaceAll(left, "_", " ")),
		Stage: UnknownStage,
	}

	start, end := -1, -1
	for _, marker := range stageMarkers {
		i := strings.LastIndex(remainder, marker)
		if i < 0 {
			continue
		}
		e := i + len(marker)
		if e > end || (e == end && i < start) {
			start, end = i, e
		}
	}
	if start >= 0 {
		mf.TeamB = strings.TrimRight(remainder[:start], "_-")
		mf.Stage = strings.TrimSpace(strings.ReplaceAll(remainder[start:], "_", " "))
	} else {
		mf.TeamB = remainder
	}
	mf.TeamB = strings.TrimSpace(strings.ReplaceAll(mf.TeamB, "_", " "))

	if mf.TeamA == "" || mf.TeamB == "" {
		return MatchFolder{}, &ParseError{Folder: name, Reason: "empty team name"}
	}
	return mf, nil
}
