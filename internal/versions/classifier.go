package versions

import "regexp"

const (
	shortFormVersionPatternConstant = `^(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-((?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)(?:\.(?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*))*))?(?:\+([0-9a-zA-Z-]+(?:\.[0-9a-zA-Z-]+)*))?$`
	fullFormVersionPatternConstant  = `^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-((?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)(?:\.(?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*))*))?(?:\+([0-9a-zA-Z-]+(?:\.[0-9a-zA-Z-]+)*))?$`
)

var (
	shortFormVersionExpression = regexp.MustCompile(shortFormVersionPatternConstant)
	fullFormVersionExpression  = regexp.MustCompile(fullFormVersionPatternConstant)
)

// VersionShape identifies which version grammar a branch's version text satisfies.
type VersionShape int

const (
	// ShapeUnparseable marks text that satisfies neither version grammar.
	ShapeUnparseable VersionShape = iota
	// ShapeShort marks a MAJOR.MINOR version with optional pre-release and build suffixes.
	ShapeShort
	// ShapeFull marks a MAJOR.MINOR.PATCH version with optional pre-release and build suffixes.
	ShapeFull
)

// ClassifyVersionText reports which version grammar the supplied text satisfies.
// The grammars are mutually exclusive because the full form requires a third
// dotted numeric component the short form forbids.
func ClassifyVersionText(versionText string) VersionShape {
	if fullFormVersionExpression.MatchString(versionText) {
		return ShapeFull
	}
	if shortFormVersionExpression.MatchString(versionText) {
		return ShapeShort
	}
	return ShapeUnparseable
}
