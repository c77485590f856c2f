// Package flagx lets several components share one command line: each parses
// only the flags it defines and ignores the rest.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs keeps the flags named in allowed, with their values, and drops
// everything else. Both "-name value" and "-name=value" are recognised, and
// a double-dash spelling matches its single-dash name. Scanning stops at a
// bare "--".
func FilterArgs(args []string, allowed []string) []string {
	set := make(map[string]struct{}, len(allowed))
	for _, f := range allowed {
		set[normalize(f)] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		if name, _, hasValue := strings.Cut(arg, "="); hasValue {
			if _, ok := set[normalize(name)]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}
		if _, ok := set[normalize(arg)]; !ok {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}
	return filtered
}

func normalize(name string) string {
	return "-" + strings.TrimLeft(name, "-")
}

// ParseKnown parses into fs only the flags fs defines.
func ParseKnown(fs *flag.FlagSet, args []string) error {
	var names []string
	fs.VisitAll(func(f *flag.Flag) { names = append(names, "-"+f.Name) })
	return fs.Parse(FilterArgs(args, names))
}

// ConfigPath returns the JSON config file named by -c or -config, or "" when
// neither is given. The last occurrence wins.
func ConfigPath(args []string) string {
	var path string
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	fs.SetOutput(discard{})
	_ = ParseKnown(fs, args)
	return path
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
