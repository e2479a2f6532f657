package graph

import (
	"strings"

	"javakg/internal/engine/buildfile"
)

// DefaultPackage names the unnamed package.
const DefaultPackage = "(default)"

const (
	PrefixPackage    = "pkg:"
	PrefixFile       = "file:"
	PrefixType       = "type:"
	PrefixMember     = "member:"
	PrefixDependency = "dep:"
	PrefixRef        = "ref:"
)

func PackageName(pkg string) string {
	if pkg == "" {
		return DefaultPackage
	}
	return pkg
}

func PackageID(pkg string) string { return PrefixPackage + PackageName(pkg) }

func FileID(rel string) string { return PrefixFile + rel }

func TypeID(fqn string) string { return PrefixType + fqn }

// MethodID keys overloads by erased parameter types.
func MethodID(typeFQN, name string, paramTypes []string) string {
	return PrefixMember + typeFQN + "#" + name + "(" + strings.Join(paramTypes, ",") + ")"
}

func FieldID(typeFQN, name string) string {
	return PrefixMember + typeFQN + "#" + name
}

func DependencyID(c buildfile.Coordinate) string { return PrefixDependency + c.Key() }

func RefID(name string) string { return PrefixRef + name }
