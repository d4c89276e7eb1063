// Package banner renders the license header stamped on generated CSS and JS.
//
// The header is filled from the project descriptor (package.json, or a TOML
// file with the same keys). Missing keys render as empty strings.
package banner

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
)

// Template is the license header. It is a CSS/JS comment that minifiers
// preserve because it starts with "/*!".
const Template = `/*!
 * Start Bootstrap - {{.Title}} v{{.Version}} ({{.Homepage}})
 * Copyright 2013-{{.Year}} {{.Author}}
 * Licensed under {{.License}} (https://github.com/BlackrockDigital/{{.Name}}/blob/master/LICENSE)
 */

`

var tmpl = template.Must(template.New("banner").Parse(Template))

// Metadata is the subset of the project descriptor used by the banner.
type Metadata struct {
	Title    string `toml:"title"`
	Version  string `toml:"version"`
	Homepage string `toml:"homepage"`
	Author   string `toml:"author"`
	License  string `toml:"license"`
	Name     string `toml:"name"`
	Year     int    `toml:"-"`
}

// Render fills Template from m.
func Render(m Metadata) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, m); err != nil {
		return "", fmt.Errorf("render banner: %w", err)
	}
	return buf.String(), nil
}

// Load reads the descriptor at path on fsys. The copyright year is taken from
// now so every pipeline run stamps the current year.
func Load(fsys afero.Fs, path string, now time.Time) (Metadata, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return Metadata{}, fmt.Errorf("read project descriptor: %w", err)
	}

	var m Metadata
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		m, err = parseTOML(data)
	} else {
		m, err = parseJSON(data)
	}
	if err != nil {
		return Metadata{}, fmt.Errorf("parse project descriptor %s: %w", path, err)
	}

	m.Year = now.Year()
	return m, nil
}

// LoadAndRender is Load followed by Render.
func LoadAndRender(fsys afero.Fs, path string, now time.Time) (string, error) {
	m, err := Load(fsys, path, now)
	if err != nil {
		return "", err
	}
	return Render(m)
}

func parseJSON(data []byte) (Metadata, error) {
	if !gjson.ValidBytes(data) {
		return Metadata{}, fmt.Errorf("invalid JSON")
	}

	fields := gjson.GetManyBytes(data, "title", "version", "homepage", "author", "license", "name")

	// npm allows author as "Name <email>" or {"name": ..., "email": ...}.
	author := fields[3].String()
	if fields[3].IsObject() {
		author = fields[3].Get("name").String()
	}

	return Metadata{
		Title:    fields[0].String(),
		Version:  fields[1].String(),
		Homepage: fields[2].String(),
		Author:   author,
		License:  fields[4].String(),
		Name:     fields[5].String(),
	}, nil
}

func parseTOML(data []byte) (Metadata, error) {
	var m Metadata
	if _, err := toml.Decode(string(data), &m); err != nil {
		return Metadata{}, err
	}
	return m, nil
}
