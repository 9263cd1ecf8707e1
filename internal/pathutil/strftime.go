package pathutil

import "strings"

// strftimeToGo translates the small set of strftime directives a
// filename_timestamp_format configuration realistically uses into a Go
// reference-time layout string. Unrecognized directives pass through
// unchanged, matching the original configuration's "%Y%m%d_%H%M%S"-style
// patterns without pulling in a full strftime implementation.
var strftimeDirectives = []struct {
	directive string
	layout    string
}{
	{"%Y", "2006"},
	{"%y", "06"},
	{"%m", "01"},
	{"%d", "02"},
	{"%H", "15"},
	{"%M", "04"},
	{"%S", "05"},
	{"%f", "000000"},
	{"%z", "-0700"},
	{"%Z", "MST"},
	{"%%", "%"},
}

func strftimeToGo(pattern string) string {
	out := pattern
	for _, d := range strftimeDirectives {
		out = strings.ReplaceAll(out, d.directive, d.layout)
	}
	return out
}
