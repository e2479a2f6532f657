package buildfile

import (
	"regexp"
	"strings"
)

const gradleConfigs = `implementation|api|compileOnly|runtimeOnly|testImplementation|testRuntimeOnly|` +
	`testCompileOnly|annotationProcessor|testAnnotationProcessor|kapt|compile|testCompile|runtime|classpath`

var (
	// implementation "g:a:v", implementation("g:a:v"), implementation(platform("g:a:v"))
	gradleStringDep = regexp.MustCompile(`\b(` + gradleConfigs + `)\s*\(?\s*(?:(?:platform|enforcedPlatform)\s*\(\s*)?["']([^"':\s]+):([^"':\s]+)(?::([^"'\s]+))?["']`)
	// implementation group: 'g', name: 'a', version: 'v'  (Groovy and Kotlin named args)
	gradleMapDep = regexp.MustCompile(`\b(` + gradleConfigs + `)\s*\(?\s*group\s*[:=]\s*["']([^"']+)["']\s*,\s*name\s*[:=]\s*["']([^"']+)["'](?:\s*,\s*version\s*[:=]\s*["']([^"']+)["'])?`)

	gradlePluginID    = regexp.MustCompile(`(?m)^\s*id\s*\(?\s*["']([^"']+)["']`)
	gradleApplyPlugin = regexp.MustCompile(`apply\s*\(?\s*plugin\s*[:=]\s*["']([^"']+)["']`)
	gradleKotlinPlug  = regexp.MustCompile(`(?m)^\s*kotlin\s*\(\s*["']([^"']+)["']\s*\)`)

	gradleMavenBlock = regexp.MustCompile(`maven\s*\{[^}]*?url\s*(?:=\s*)?(?:uri\s*\(\s*)?["']([^"']+)["']`)
	gradleMavenCall  = regexp.MustCompile(`maven\s*\(\s*(?:url\s*=\s*)?["']([^"']+)["']\s*\)`)
	gradleWellKnown  = regexp.MustCompile(`\b(mavenCentral|mavenLocal|google|jcenter|gradlePluginPortal)\s*\(\s*\)`)

	// ext.x = '1', def x = "1", val x = "1", x = '1' inside ext {}
	gradleAssign = regexp.MustCompile(`(?m)^\s*(?:ext\.|def\s+|val\s+|extra\[["'])?([A-Za-z_][\w.]*)["']?\]?\s*=\s*["']([^"'$]+)["']`)
	gradleRef    = regexp.MustCompile(`\$\{?([A-Za-z_][\w.]*)\}?`)
)

func parseGradle(d *Descriptor, data []byte) {
	text := stripGradleComments(string(data))

	for _, m := range gradleAssign.FindAllStringSubmatch(text, -1) {
		if _, ok := d.Properties[m[1]]; !ok {
			d.Properties[m[1]] = m[2]
		}
	}

	for _, m := range gradleStringDep.FindAllStringSubmatch(text, -1) {
		d.Dependencies = append(d.Dependencies, Coordinate{
			Group:    d.interpolateGradle(m[2]),
			Artifact: d.interpolateGradle(m[3]),
			Version:  d.interpolateGradle(m[4]),
			Scope:    m[1],
		})
	}
	for _, m := range gradleMapDep.FindAllStringSubmatch(text, -1) {
		d.Dependencies = append(d.Dependencies, Coordinate{
			Group:    d.interpolateGradle(m[2]),
			Artifact: d.interpolateGradle(m[3]),
			Version:  d.interpolateGradle(m[4]),
			Scope:    m[1],
		})
	}

	for _, re := range []*regexp.Regexp{gradlePluginID, gradleApplyPlugin} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			d.Plugins = append(d.Plugins, m[1])
		}
	}
	for _, m := range gradleKotlinPlug.FindAllStringSubmatch(text, -1) {
		d.Plugins = append(d.Plugins, "org.jetbrains.kotlin."+m[1])
	}

	for _, re := range []*regexp.Regexp{gradleMavenBlock, gradleMavenCall} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			d.Repositories = append(d.Repositories, d.interpolateGradle(m[1]))
		}
	}
	for _, m := range gradleWellKnown.FindAllStringSubmatch(text, -1) {
		d.Repositories = append(d.Repositories, m[1])
	}
}

func (d *Descriptor) interpolateGradle(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	return gradleRef.ReplaceAllStringFunc(s, func(m string) string {
		name := strings.Trim(m, "${}")
		if v, ok := d.Properties[name]; ok {
			return v
		}
		if v, ok := d.Properties[strings.TrimPrefix(name, "project.")]; ok {
			return v
		}
		return m
	})
}

// stripGradleComments removes // and /* */ comments outside string literals.
func stripGradleComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			b.WriteByte(c)
			if c == '\\' && i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			} else if c == quote || c == '\n' {
				quote = 0
			}
			continue
		}
		switch {
		case c == '"' || c == '\'':
			quote = c
			b.WriteByte(c)
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			for i < len(s) && s[i] != '\n' {
				i++
			}
			if i < len(s) {
				b.WriteByte('\n')
			}
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return b.String()
			}
			i += end + 3
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
