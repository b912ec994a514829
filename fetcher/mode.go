package fetcher

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Mode decides what happens to an existing metadata file.
type Mode string

const (
	ModeOverwrite Mode = "overwrite"
	ModeAppend    Mode = "append"
	ModeSkip      Mode = "skip"
)

// ParseMode accepts the single letter choices and the full names. Anything
// else is reported as invalid.
func ParseMode(choice string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(choice)) {
	case "o", string(ModeOverwrite):
		return ModeOverwrite, true
	case "a", string(ModeAppend):
		return ModeAppend, true
	case "s", string(ModeSkip):
		return ModeSkip, true
	default:
		return ModeOverwrite, false
	}
}

// AskMode asks the operator what to do with the existing file at path. An
// invalid or missing answer means overwrite.
func AskMode(in io.Reader, out io.Writer, path string) (Mode, bool) {
	fmt.Fprintf(out, "'%s' already exists. Do you want to (o)verwrite, (a)ppend to existing, or (s)kip this step? (o/a/s): ", path)
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return ModeOverwrite, false
	}

	return ParseMode(scanner.Text())
}
