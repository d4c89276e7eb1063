package task

import (
	"fmt"
	"strings"
)

// ID identifies one of the fixed top-level tasks exposed on the command line.
type ID int

const (
	Clean ID = iota
	Vendor
	CSS
	JS
	Build
	Watch
)

// IDs lists every task ID in declaration order.
var IDs = []ID{Clean, Vendor, CSS, JS, Build, Watch}

// Default is the task run when none is named.
const Default = Build

func (id ID) String() string {
	switch id {
	case Clean:
		return "clean"
	case Vendor:
		return "vendor"
	case CSS:
		return "css"
	case JS:
		return "js"
	case Build:
		return "build"
	case Watch:
		return "watch"
	default:
		return fmt.Sprintf("task(%d)", int(id))
	}
}

// Description is the one-line help text for the task.
func (id ID) Description() string {
	switch id {
	case Clean:
		return "Delete the vendor directory"
	case Vendor:
		return "Clean and copy third-party assets into the vendor directory"
	case CSS:
		return "Compile, prefix and minify stylesheets"
	case JS:
		return "Minify scripts"
	case Build:
		return "Run vendor, then css and js in parallel"
	case Watch:
		return "Build, then serve with live reload and rebuild on change"
	default:
		return ""
	}
}

// ParseID resolves a command-line task name.
func ParseID(name string) (ID, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "default" {
		return Default, nil
	}
	for _, id := range IDs {
		if id.String() == name {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown task %q", name)
}
