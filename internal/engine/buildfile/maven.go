package buildfile

import (
	"bytes"
	"encoding/xml"
	"regexp"
	"strings"

	"javakg/internal/engine/diagnostic"
)

type pomProject struct {
	GroupID    string        `xml:"groupId"`
	ArtifactID string        `xml:"artifactId"`
	Version    string        `xml:"version"`
	Parent     pomCoordinate `xml:"parent"`
	Properties pomProperties `xml:"properties"`

	Dependencies         []pomDependency `xml:"dependencies>dependency"`
	DependencyManagement struct {
		Dependencies []pomDependency `xml:"dependencies>dependency"`
	} `xml:"dependencyManagement"`
	Build        pomBuild        `xml:"build"`
	Repositories []pomRepository `xml:"repositories>repository"`
	Profiles     []pomProfile    `xml:"profiles>profile"`
}

type pomCoordinate struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

type pomDependency struct {
	pomCoordinate
	Scope string `xml:"scope"`
}

type pomProperties struct {
	Entries []struct {
		XMLName xml.Name
		Value   string `xml:",chardata"`
	} `xml:",any"`
}

type pomBuild struct {
	Plugins          []pomCoordinate `xml:"plugins>plugin"`
	PluginManagement struct {
		Plugins []pomCoordinate `xml:"plugins>plugin"`
	} `xml:"pluginManagement"`
}

type pomRepository struct {
	ID  string `xml:"id"`
	URL string `xml:"url"`
}

type pomProfile struct {
	ID           string          `xml:"id"`
	Properties   pomProperties   `xml:"properties"`
	Dependencies []pomDependency `xml:"dependencies>dependency"`
	Build        pomBuild        `xml:"build"`
	Repositories []pomRepository `xml:"repositories>repository"`
}

var mavenPropertyRef = regexp.MustCompile(`\$\{([^}]+)\}`)

func parseMaven(d *Descriptor, data []byte) {
	var pom pomProject
	dec := xml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&pom); err != nil {
		d.Diagnostics.Warn(d.Path, diagnostic.CodeBuildFile, "unparsable pom: %v", err)
		return
	}

	for _, e := range pom.Properties.Entries {
		d.Properties[e.XMLName.Local] = strings.TrimSpace(e.Value)
	}
	group := firstNonEmpty(pom.GroupID, pom.Parent.GroupID)
	version := firstNonEmpty(pom.Version, pom.Parent.Version)
	for k, v := range map[string]string{
		"project.groupId":    group,
		"project.artifactId": pom.ArtifactID,
		"project.version":    version,
		"pom.version":        version,
		"version":            version,
	} {
		if _, ok := d.Properties[k]; !ok && v != "" {
			d.Properties[k] = v
		}
	}

	managed := make(map[string]string)
	for _, dep := range pom.DependencyManagement.Dependencies {
		c := d.mavenCoordinate(dep, "")
		if c.Group == "" || c.Artifact == "" {
			continue
		}
		c.Managed = true
		managed[c.Group+":"+c.Artifact] = c.Version
		d.Dependencies = append(d.Dependencies, c)
	}

	addAll := func(deps []pomDependency, profile string) {
		for _, dep := range deps {
			c := d.mavenCoordinate(dep, profile)
			if c.Group == "" || c.Artifact == "" {
				continue
			}
			if c.Version == "" {
				c.Version = managed[c.Group+":"+c.Artifact]
			}
			d.Dependencies = append(d.Dependencies, c)
		}
	}
	addAll(pom.Dependencies, "")

	d.addPlugins(pom.Build.Plugins)
	d.addPlugins(pom.Build.PluginManagement.Plugins)
	for _, r := range pom.Repositories {
		d.Repositories = append(d.Repositories, d.interpolate(r.URL))
	}
	for _, prof := range pom.Profiles {
		if prof.ID == "" {
			continue
		}
		d.Profiles = append(d.Profiles, prof.ID)
		addAll(prof.Dependencies, prof.ID)
		d.addPlugins(prof.Build.Plugins)
		for _, r := range prof.Repositories {
			d.Repositories = append(d.Repositories, d.interpolate(r.URL))
		}
	}
}

func (d *Descriptor) mavenCoordinate(dep pomDependency, profile string) Coordinate {
	scope := strings.TrimSpace(dep.Scope)
	if scope == "" {
		scope = "compile"
	}
	return Coordinate{
		Group:    d.interpolate(dep.GroupID),
		Artifact: d.interpolate(dep.ArtifactID),
		Version:  d.interpolate(dep.Version),
		Scope:    scope,
		Profile:  profile,
	}
}

func (d *Descriptor) addPlugins(plugins []pomCoordinate) {
	for _, p := range plugins {
		if p.ArtifactID == "" {
			continue
		}
		group := firstNonEmpty(d.interpolate(p.GroupID), "org.apache.maven.plugins")
		c := Coordinate{Group: group, Artifact: d.interpolate(p.ArtifactID), Version: d.interpolate(p.Version)}
		d.Plugins = append(d.Plugins, c.Key())
	}
}

// interpolate expands ${name} references. Unknown names stay as written;
// chains are followed a bounded number of times so cycles terminate.
func (d *Descriptor) interpolate(s string) string {
	s = strings.TrimSpace(s)
	for i := 0; i < 5 && strings.Contains(s, "${"); i++ {
		next := mavenPropertyRef.ReplaceAllStringFunc(s, func(m string) string {
			if v, ok := d.Properties[m[2:len(m)-1]]; ok {
				return v
			}
			return m
		})
		if next == s {
			break
		}
		s = next
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
