package source

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/randalmurphal/piecework/pkg/piecework/piece"
)

// placeholder matches ${name}.
var placeholder = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Expand replaces ${name} placeholders in s with vars[name]. Unknown
// placeholders are left as written.
func Expand(s string, vars map[string]any) string {
	if s == "" || !strings.Contains(s, "${") {
		return s
	}
	return placeholder.ReplaceAllStringFunc(s, func(match string) string {
		if v, ok := vars[match[2:len(match)-1]]; ok {
			return fmt.Sprint(v)
		}
		return match
	})
}

// InvocationVars returns the placeholders available to reply templates:
// author, author_id, channel, prefix, command, args and one arg0..argN per
// argument.
func InvocationVars(inv *piece.Invocation) map[string]any {
	vars := map[string]any{
		"prefix":  inv.Prefix,
		"command": inv.Command,
		"args":    strings.Join(inv.Args, " "),
	}
	if msg := inv.Message; msg != nil {
		vars["author"] = msg.Author.Username
		vars["author_id"] = msg.Author.ID
		vars["channel"] = msg.Channel.ID
	}
	for i, arg := range inv.Args {
		vars[fmt.Sprintf("arg%d", i)] = arg
	}
	return vars
}

// Render returns the string parameter key, or def, with placeholders
// expanded from vars.
func (s Spec) Render(key, def string, vars map[string]any) string {
	return Expand(s.Param(key, def), vars)
}
