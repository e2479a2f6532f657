package buildfile

import (
	"testing"

	"javakg/internal/engine/diagnostic"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePOM = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <groupId>com.acme</groupId>
  <artifactId>shop</artifactId>
  <version>2.1.0</version>
  <properties>
    <junit.version>5.10.0</junit.version>
    <guava.version>33.0-jre</guava.version>
  </properties>
  <dependencyManagement>
    <dependencies>
      <dependency>
        <groupId>org.slf4j</groupId>
        <artifactId>slf4j-api</artifactId>
        <version>2.0.9</version>
      </dependency>
    </dependencies>
  </dependencyManagement>
  <dependencies>
    <dependency>
      <groupId>com.google.guava</groupId>
      <artifactId>guava</artifactId>
      <version>${guava.version}</version>
    </dependency>
    <dependency>
      <groupId>org.slf4j</groupId>
      <artifactId>slf4j-api</artifactId>
    </dependency>
    <dependency>
      <groupId>org.junit.jupiter</groupId>
      <artifactId>junit-jupiter</artifactId>
      <version>${junit.version}</version>
      <scope>test</scope>
    </dependency>
    <dependency>
      <groupId>${project.groupId}</groupId>
      <artifactId>shop-core</artifactId>
      <version>${project.version}</version>
    </dependency>
  </dependencies>
  <build>
    <plugins>
      <plugin>
        <artifactId>maven-compiler-plugin</artifactId>
        <version>3.11.0</version>
      </plugin>
    </plugins>
  </build>
  <repositories>
    <repository><id>central</id><url>https://repo.maven.apache.org/maven2</url></repository>
  </repositories>
  <profiles>
    <profile>
      <id>it</id>
      <dependencies>
        <dependency>
          <groupId>org.testcontainers</groupId>
          <artifactId>postgresql</artifactId>
          <version>1.19.0</version>
        </dependency>
      </dependencies>
    </profile>
  </profiles>
</project>`

func coordinateKeys(d *Descriptor) []string {
	var out []string
	for _, c := range d.Dependencies {
		out = append(out, c.Key())
	}
	return out
}

func TestParseMaven(t *testing.T) {
	d := Parse("pom.xml", []byte(samplePOM), nil)
	require.Empty(t, d.Diagnostics)
	assert.Equal(t, ToolMaven, d.Tool)

	assert.Equal(t, []string{
		"org.slf4j:slf4j-api:2.0.9",
		"com.google.guava:guava:33.0-jre",
		"org.slf4j:slf4j-api:2.0.9",
		"org.junit.jupiter:junit-jupiter:5.10.0",
		"com.acme:shop-core:2.1.0",
		"org.testcontainers:postgresql:1.19.0",
	}, coordinateKeys(d))

	assert.True(t, d.Dependencies[0].Managed)
	assert.False(t, d.Dependencies[1].Managed)
	assert.Equal(t, "compile", d.Dependencies[1].Scope)
	assert.Equal(t, "test", d.Dependencies[3].Scope)
	assert.Equal(t, "it", d.Dependencies[5].Profile)

	assert.Equal(t, []string{"org.apache.maven.plugins:maven-compiler-plugin:3.11.0"}, d.Plugins)
	assert.Equal(t, []string{"https://repo.maven.apache.org/maven2"}, d.Repositories)
	assert.Equal(t, []string{"it"}, d.Profiles)
	assert.Equal(t, "5.10.0", d.Properties["junit.version"])
}

func TestParseMavenUnparsable(t *testing.T) {
	d := Parse("pom.xml", []byte("<project><dependencies><dependency>"), nil)
	assert.Empty(t, d.Dependencies)
	require.Len(t, d.Diagnostics, 1)
	assert.Equal(t, diagnostic.SeverityWarning, d.Diagnostics[0].Severity)
	assert.Equal(t, diagnostic.CodeBuildFile, d.Diagnostics[0].Code)
}

func TestParseGradleGroovy(t *testing.T) {
	src := `
plugins {
    id 'java'
    id "org.springframework.boot" version "3.2.0"
}
apply plugin: 'jacoco'

ext.jacksonVersion = '2.16.0'

repositories {
    mavenCentral()
    maven { url 'https://jitpack.io' }
}

dependencies {
    implementation 'com.google.guava:guava:33.0-jre'
    implementation "com.fasterxml.jackson.core:jackson-databind:$jacksonVersion"
    // implementation 'commented:out:1.0'
    /* testImplementation 'also:commented:1.0' */
    testImplementation group: 'junit', name: 'junit', version: '4.13.2'
    runtimeOnly "org.postgresql:postgresql:${pgVersion}"
    compileOnly 'org.projectlombok:lombok'
}
`
	props, err := ParseProperties([]byte("# versions\npgVersion=42.7.1\n"))
	require.NoError(t, err)

	d := Parse("build.gradle", []byte(src), props)
	require.Empty(t, d.Diagnostics)
	assert.Equal(t, ToolGradle, d.Tool)

	assert.ElementsMatch(t, []string{
		"com.google.guava:guava:33.0-jre",
		"com.fasterxml.jackson.core:jackson-databind:2.16.0",
		"junit:junit:4.13.2",
		"org.postgresql:postgresql:42.7.1",
		"org.projectlombok:lombok",
	}, coordinateKeys(d))
	for _, c := range d.Dependencies {
		if c.Artifact == "junit" {
			assert.Equal(t, "testImplementation", c.Scope)
		}
	}

	assert.Equal(t, []string{"jacoco", "java", "org.springframework.boot"}, d.Plugins)
	assert.Equal(t, []string{"https://jitpack.io", "mavenCentral"}, d.Repositories)
}

func TestParseGradleKotlin(t *testing.T) {
	src := `
plugins {
    kotlin("jvm") version "1.9.22"
    id("application")
}
val ktorVersion = "2.3.7"
repositories {
    google()
    maven("https://repo.example.com/releases")
}
dependencies {
    implementation("io.ktor:ktor-server-core:$ktorVersion")
    implementation(platform("org.junit:junit-bom:5.10.0"))
    testImplementation(group = "io.mockk", name = "mockk", version = "1.13.8")
}
`
	d := Parse("app/build.gradle.kts", []byte(src), nil)
	assert.ElementsMatch(t, []string{
		"io.ktor:ktor-server-core:2.3.7",
		"org.junit:junit-bom:5.10.0",
		"io.mockk:mockk:1.13.8",
	}, coordinateKeys(d))
	assert.Equal(t, []string{"application", "org.jetbrains.kotlin.jvm"}, d.Plugins)
	assert.Equal(t, []string{"google", "https://repo.example.com/releases"}, d.Repositories)
}

func TestParseDegradesGracefully(t *testing.T) {
	d := Parse("build.gradle", nil, nil)
	assert.Empty(t, d.Dependencies)
	require.Len(t, d.Diagnostics, 1)

	d = Parse("Makefile", []byte("all:"), nil)
	assert.Empty(t, d.Dependencies)
	require.Len(t, d.Diagnostics, 1)
}

func TestDetectTool(t *testing.T) {
	cases := map[string]Tool{
		"pom.xml":                   ToolMaven,
		"sub/module/pom.xml":        ToolMaven,
		"build.gradle":              ToolGradle,
		`win\path\build.gradle.kts`: ToolGradle,
		"deps.gradle":               ToolGradle,
	}
	for in, want := range cases {
		got, ok := DetectTool(in)
		if !ok || got != want {
			t.Errorf("DetectTool(%q) = %q,%v; want %q", in, got, ok, want)
		}
	}
	if _, ok := DetectTool("README.md"); ok {
		t.Error("README.md should not be a build descriptor")
	}
}
