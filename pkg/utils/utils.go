// Package utils collects small formatting helpers shared by the driver's
// progress renderer and config dump, adapted from the teacher's
// pkg/utils/utils.go (GUI-only helpers dropped).
package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/go-errors/errors"
	"github.com/jesseduffield/yaml"
	"github.com/mattn/go-runewidth"
)

// SplitLines takes a multiline string and splits it on newlines, with
// carriage returns removed.
func SplitLines(multilineString string) []string {
	multilineString = strings.ReplaceAll(multilineString, "\r", "")
	if multilineString == "" || multilineString == "\n" {
		return make([]string, 0)
	}
	lines := strings.Split(multilineString, "\n")
	if lines[len(lines)-1] == "" {
		return lines[:len(lines)-1]
	}
	return lines
}

// WithPadding pads a string out to the given display width, ignoring any
// ANSI color codes already present.
func WithPadding(str string, padding int) string {
	uncoloredStr := Decolorise(str)
	if padding < runewidth.StringWidth(uncoloredStr) {
		return str
	}
	return str + strings.Repeat(" ", padding-runewidth.StringWidth(uncoloredStr))
}

// ColoredString colors str with a single attribute, treating FgWhite as
// "leave it alone" the same way the teacher does for light-theme terminals.
func ColoredString(str string, colorAttribute color.Attribute) string {
	if colorAttribute == color.FgWhite {
		return str
	}
	return ColoredStringDirect(str, color.New(colorAttribute))
}

// MultiColoredString applies several color attributes at once (e.g. bold
// plus a foreground color for a failed command's status cell).
func MultiColoredString(str string, colorAttribute ...color.Attribute) string {
	return ColoredStringDirect(str, color.New(colorAttribute...))
}

func ColoredStringDirect(str string, colour *color.Color) string {
	return colour.SprintFunc()(fmt.Sprint(str))
}

// Decolorise strips ANSI color escapes, needed before measuring display
// width for table alignment.
func Decolorise(str string) string {
	re := regexp.MustCompile(`\x1B\[([0-9]{1,2}(;[0-9]{1,2})?)?[mK]`)
	return re.ReplaceAllString(str, "")
}

// RenderTable lays out rows of equal length into an aligned table, used by
// the progress renderer's compact per-command status view.
func RenderTable(rows [][]string) (string, error) {
	if len(rows) == 0 {
		return "", nil
	}
	if !displayArraysAligned(rows) {
		return "", errors.New("each row must have the same number of columns")
	}

	columnPadWidths := getPadWidths(rows)
	paddedDisplayRows := getPaddedDisplayStrings(rows, columnPadWidths)

	return strings.Join(paddedDisplayRows, "\n"), nil
}

func getPadWidths(rows [][]string) []int {
	if len(rows[0]) <= 1 {
		return []int{}
	}
	columnPadWidths := make([]int, len(rows[0])-1)
	for i := range columnPadWidths {
		for _, cells := range rows {
			uncoloredCell := Decolorise(cells[i])
			if runewidth.StringWidth(uncoloredCell) > columnPadWidths[i] {
				columnPadWidths[i] = runewidth.StringWidth(uncoloredCell)
			}
		}
	}
	return columnPadWidths
}

func getPaddedDisplayStrings(rows [][]string, columnPadWidths []int) []string {
	paddedDisplayRows := make([]string, len(rows))
	for i, cells := range rows {
		for j, columnPadWidth := range columnPadWidths {
			paddedDisplayRows[i] += WithPadding(cells[j], columnPadWidth) + " "
		}
		paddedDisplayRows[i] += cells[len(columnPadWidths)]
	}
	return paddedDisplayRows
}

func displayArraysAligned(stringArrays [][]string) bool {
	for _, s := range stringArrays {
		if len(s) != len(stringArrays[0]) {
			return false
		}
	}
	return true
}

// GetColorAttribute maps a UserConfig color name onto fatih/color's
// attribute type.
func GetColorAttribute(key string) color.Attribute {
	colorMap := map[string]color.Attribute{
		"default":   color.FgWhite,
		"black":     color.FgBlack,
		"red":       color.FgRed,
		"green":     color.FgGreen,
		"yellow":    color.FgYellow,
		"blue":      color.FgBlue,
		"magenta":   color.FgMagenta,
		"cyan":      color.FgCyan,
		"white":     color.FgWhite,
		"bold":      color.Bold,
		"underline": color.Underline,
	}
	if v, ok := colorMap[key]; ok {
		return v
	}
	return color.FgWhite
}

type multiErr []error

func (m multiErr) Error() string {
	var b bytes.Buffer
	b.WriteString("encountered multiple errors:")
	for _, err := range m {
		b.WriteString("\n\t... " + err.Error())
	}
	return b.String()
}

// CloseMany closes every closer, collecting (rather than short-circuiting
// on) any failures.
func CloseMany(closers []io.Closer) error {
	errs := make([]error, 0, len(closers))
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return multiErr(errs)
	}
	return nil
}

// SafeTruncate truncates a string to at most limit bytes, used by
// internal/progress to shorten command lines in the status table.
func SafeTruncate(str string, limit int) string {
	if len(str) > limit {
		return str[0:limit]
	}
	return str
}

// MarshalIntoYaml marshals a json-tagged struct into YAML, preserving the
// field order and naming declared by its json tags — used by
// --print-default-config, since UserConfig's tags are yaml already but
// this keeps the same round-trip idiom the teacher uses for structs that
// only carry json tags.
func MarshalIntoYaml(data interface{}) ([]byte, error) {
	dataJSON, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, err
	}
	var dataMirror yaml.MapSlice
	if err := yaml.Unmarshal(dataJSON, &dataMirror); err != nil {
		return nil, err
	}
	return yaml.Marshal(dataMirror)
}
