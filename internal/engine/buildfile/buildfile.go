// Package buildfile reads Maven and Gradle descriptors for the external
// coordinates a project declares. It never runs a build tool.
package buildfile

import (
	"bytes"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"javakg/internal/engine/diagnostic"
)

type Tool string

const (
	ToolMaven  Tool = "maven"
	ToolGradle Tool = "gradle"
)

// Coordinate is one declared external dependency.
type Coordinate struct {
	Group    string
	Artifact string
	Version  string
	// Scope is the Maven scope or the Gradle configuration name.
	Scope   string
	Managed bool   // declared under dependencyManagement
	Profile string // Maven profile id when declared inside a profile
}

// Key is the coordinate in group:artifact[:version] form.
func (c Coordinate) Key() string {
	if c.Version == "" {
		return c.Group + ":" + c.Artifact
	}
	return c.Group + ":" + c.Artifact + ":" + c.Version
}

type Descriptor struct {
	Path         string
	Tool         Tool
	Dependencies []Coordinate
	Plugins      []string
	Repositories []string
	Profiles     []string
	Properties   map[string]string
	Diagnostics  diagnostic.List
}

// DetectTool maps a descriptor file name to its build tool.
func DetectTool(p string) (Tool, bool) {
	base := strings.ToLower(path.Base(strings.ReplaceAll(p, "\\", "/")))
	switch {
	case base == "pom.xml" || strings.HasSuffix(base, ".pom") || strings.HasSuffix(base, ".xml"):
		return ToolMaven, true
	case strings.HasSuffix(base, ".gradle") || strings.HasSuffix(base, ".gradle.kts"):
		return ToolGradle, true
	}
	return "", false
}

// Parse extracts coordinates from one descriptor. extra supplies properties
// defined outside the file (gradle.properties). Problems degrade to an empty
// descriptor with a warning.
func Parse(p string, data []byte, extra map[string]string) *Descriptor {
	d := &Descriptor{Path: p, Properties: make(map[string]string)}
	for k, v := range extra {
		d.Properties[k] = v
	}
	tool, ok := DetectTool(p)
	if !ok {
		d.Diagnostics.Warn(p, diagnostic.CodeBuildFile, "unrecognised build descriptor name")
		return d
	}
	d.Tool = tool
	if len(bytes.TrimSpace(data)) == 0 {
		d.Diagnostics.Warn(p, diagnostic.CodeBuildFile, "build descriptor is empty")
		return d
	}

	switch tool {
	case ToolMaven:
		parseMaven(d, data)
	case ToolGradle:
		parseGradle(d, data)
	}
	d.finish()
	return d
}

// ParseProperties reads a gradle.properties style key=value file.
func ParseProperties(data []byte) (map[string]string, error) {
	return godotenv.Parse(bytes.NewReader(data))
}

func (d *Descriptor) finish() {
	seen := make(map[string]bool, len(d.Dependencies))
	out := d.Dependencies[:0]
	for _, c := range d.Dependencies {
		k := fmt.Sprintf("%s|%s|%s|%t", c.Key(), c.Scope, c.Profile, c.Managed)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	d.Dependencies = out
	d.Plugins = sortedUnique(d.Plugins)
	d.Repositories = sortedUnique(d.Repositories)
	d.Profiles = sortedUnique(d.Profiles)
}

func sortedUnique(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			set[s] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
