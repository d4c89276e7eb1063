package vendorsync

import (
	"path"

	"github.com/conneroisu/assetpipe/internal/fileset"
)

// Entry is one copy operation of the asset manifest: every file under
// Source matching Include (and no Exclude) is copied to Dest, keeping its
// path relative to Source.
type Entry struct {
	Name    string
	Source  string
	Include string
	Exclude []string
	Dest    string
}

// selector compiles the entry's patterns.
func (e Entry) selector() (*fileset.Selector, error) {
	return fileset.New(e.Include, e.Exclude...)
}

// DefaultManifest is the fixed list of third-party bundles the theme ships,
// with Source relative to modules and Dest relative to vendor.
func DefaultManifest(modules, vendor string) []Entry {
	return []Entry{
		{
			Name:    "bootstrap",
			Source:  path.Join(modules, "bootstrap/dist"),
			Include: "**/*",
			Dest:    path.Join(vendor, "bootstrap"),
		},
		{
			Name:    "fontawesome",
			Source:  path.Join(modules, "@fortawesome"),
			Include: "**/*",
			Dest:    vendor,
		},
		{
			Name:    "jquery",
			Source:  path.Join(modules, "jquery/dist"),
			Include: "*",
			Exclude: []string{"core.js"},
			Dest:    path.Join(vendor, "jquery"),
		},
		{
			Name:    "jquery-easing",
			Source:  path.Join(modules, "jquery.easing"),
			Include: "*.js",
			Dest:    path.Join(vendor, "jquery-easing"),
		},
		{
			Name:    "simple-line-icons-fonts",
			Source:  path.Join(modules, "simple-line-icons/fonts"),
			Include: "**",
			Dest:    path.Join(vendor, "simple-line-icons/fonts"),
		},
		{
			Name:    "simple-line-icons-css",
			Source:  path.Join(modules, "simple-line-icons/css"),
			Include: "**",
			Dest:    path.Join(vendor, "simple-line-icons/css"),
		},
	}
}
