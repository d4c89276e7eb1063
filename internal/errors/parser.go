// Package errors provides structured pipeline errors and parsing of
// compiler diagnostics.
//
// Compiler output (Dart Sass stderr) is parsed into ParsedError values
// carrying file, line, column and message so a failed stylesheet build can be
// reported precisely and the watch loop can keep running until the next save.
package errors

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ParsedError represents a parsed compiler diagnostic.
type ParsedError struct {
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	Message  string   `json:"message"`
	RawError string   `json:"raw_error"`
	Context  []string `json:"context,omitempty"`
}

// String formats the diagnostic as file:line:column: message.
func (pe *ParsedError) String() string {
	if pe.File == "" {
		return pe.Message
	}
	if pe.Line == 0 {
		return fmt.Sprintf("%s: %s", pe.File, pe.Message)
	}

	return fmt.Sprintf("%s:%d:%d: %s", pe.File, pe.Line, pe.Column, pe.Message)
}

// ToPipelineError converts the diagnostic to a recoverable compile error.
func (pe *ParsedError) ToPipelineError(cause error) *PipelineError {
	return NewCompileError(ErrCodeCompileFailed, pe.Message, cause).
		WithLocation(pe.File, pe.Line, pe.Column)
}

// ErrorParser parses Sass compiler output into structured format.
type ErrorParser struct {
	messagePatterns  []*regexp.Regexp
	locationPatterns []*regexp.Regexp
}

// stdinNames are the placeholders Sass prints for a stylesheet read from stdin.
var stdinNames = map[string]bool{"-": true, "stdin": true}

// NewErrorParser creates a new error parser.
func NewErrorParser() *ErrorParser {
	return &ErrorParser{
		messagePatterns: []*regexp.Regexp{
			regexp.MustCompile(`^Error: (.+)$`),
			regexp.MustCompile(`^Error reading (.+)$`),
		},
		locationPatterns: []*regexp.Regexp{
			// Dart Sass: "  scss/styles.scss 3:13  root stylesheet"
			regexp.MustCompile(`^(\S+) (\d+):(\d+)(?:\s+.*)?$`),
			// Legacy: "        on line 3:13 of scss/styles.scss"
			regexp.MustCompile(`^on line (\d+):(\d+) of (\S+)`),
		},
	}
}

// Parse extracts the first diagnostic from compiler output. file is used
// when the compiler reports the input as stdin or omits the location.
func (ep *ErrorParser) Parse(output, file string) *ParsedError {
	lines := strings.Split(output, "\n")
	parsed := &ParsedError{File: file, RawError: strings.TrimSpace(output)}

	messageLine := -1
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if parsed.Message == "" {
			for _, re := range ep.messagePatterns {
				if m := re.FindStringSubmatch(line); m != nil {
					parsed.Message = m[1]
					messageLine = i
					break
				}
			}
			if parsed.Message != "" {
				continue
			}
		}

		if parsed.Line == 0 && ep.parseLocation(line, parsed) {
			break
		}
	}

	if parsed.Message == "" {
		for i, raw := range lines {
			if line := strings.TrimSpace(raw); line != "" {
				parsed.Message = line
				messageLine = i
				break
			}
		}
	}

	if messageLine >= 0 {
		parsed.Context = getContextLines(lines, messageLine+1, 3)
	}

	return parsed
}

func (ep *ErrorParser) parseLocation(line string, parsed *ParsedError) bool {
	if m := ep.locationPatterns[0].FindStringSubmatch(line); m != nil {
		setLocation(parsed, m[1], m[2], m[3])
		return true
	}
	if m := ep.locationPatterns[1].FindStringSubmatch(line); m != nil {
		setLocation(parsed, m[3], m[1], m[2])
		return true
	}

	return false
}

func setLocation(parsed *ParsedError, file, line, column string) {
	if !stdinNames[file] {
		parsed.File = file
	}
	parsed.Line, _ = strconv.Atoi(line)
	parsed.Column, _ = strconv.Atoi(column)
}

// getContextLines returns the source excerpt Sass prints under the message.
func getContextLines(lines []string, start, count int) []string {
	var context []string
	for i := start; i < len(lines) && len(context) < count; i++ {
		if strings.TrimSpace(lines[i]) == "" {
			break
		}
		context = append(context, strings.TrimRight(lines[i], " "))
	}

	return context
}
