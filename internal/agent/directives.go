package agent

import (
	"regexp"
	"strings"
)

// Directive is one tool invocation requested by the model.
type Directive struct {
	Tool  string
	Input string
}

var (
	reBracketTool = regexp.MustCompile(`\[TOOL:\s*(\w+)\]`)
	reTagTool     = regexp.MustCompile(`(?s)<(\w+)>(.*?)</\w+>`)
	reCallTool    = regexp.MustCompile(`use_tool\(\s*["']?(\w+)["']?\s*(?:,\s*["']?(.*?)["']?\s*)?\)`)
)

// knownTools guards the looser grammars against matching arbitrary markup.
var knownTools = map[string]bool{
	toolSQLQuery:   true,
	toolGetMetrics: true,
	toolSearchDocs: true,
}

// ParseDirectives extracts tool invocations from model output. Three
// grammars are recognized, in order:
//
//	[TOOL: name] input until the next [TOOL:] or end
//	<name>input</name>
//	use_tool("name", "input")
//
// The first grammar that yields anything wins; mixing grammars in one
// response is not supported.
func ParseDirectives(text string) []Directive {
	if d := parseBracketDirectives(text); len(d) > 0 {
		return d
	}
	if d := parseTagDirectives(text); len(d) > 0 {
		return d
	}
	return parseCallDirectives(text)
}

// parseBracketDirectives splits on [TOOL: name] markers: each marker's input
// runs to the next marker or the end of the text.
func parseBracketDirectives(text string) []Directive {
	locs := reBracketTool.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	var out []Directive
	for i, loc := range locs {
		name := strings.ToLower(text[loc[2]:loc[3]])
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		input := strings.TrimSpace(text[loc[1]:end])
		out = append(out, Directive{Tool: name, Input: input})
	}
	return out
}

func parseTagDirectives(text string) []Directive {
	var out []Directive
	for _, m := range reTagTool.FindAllStringSubmatch(text, -1) {
		name := strings.ToLower(m[1])
		if !knownTools[name] {
			continue
		}
		out = append(out, Directive{Tool: name, Input: strings.TrimSpace(m[2])})
	}
	return out
}

func parseCallDirectives(text string) []Directive {
	var out []Directive
	for _, m := range reCallTool.FindAllStringSubmatch(text, -1) {
		name := strings.ToLower(m[1])
		if !knownTools[name] {
			continue
		}
		out = append(out, Directive{Tool: name, Input: strings.TrimSpace(m[2])})
	}
	return out
}
