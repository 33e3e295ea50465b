// ABOUTME: Minimal --flag value parsing shared by every subcommand
// ABOUTME: Positional arguments and flags may be interleaved

package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// flagSet is the parsed form of a subcommand's arguments.
type flagSet struct {
	positional []string
	values     map[string]string
}

// parseFlags accepts --name value, --name=value and short aliases. A flag
// without a following value is recorded as "true".
func parseFlags(args []string, aliases map[string]string) flagSet {
	fs := flagSet{values: map[string]string{}}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if name, ok := aliases[arg]; ok {
			arg = "--" + name
		}
		if !strings.HasPrefix(arg, "--") || arg == "--" {
			fs.positional = append(fs.positional, args[i])
			continue
		}

		name := strings.TrimPrefix(arg, "--")
		if k, v, ok := strings.Cut(name, "="); ok {
			fs.values[normalizeFlag(k)] = v
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") {
			fs.values[normalizeFlag(name)] = args[i+1]
			i++
			continue
		}
		fs.values[normalizeFlag(name)] = "true"
	}
	return fs
}

// normalizeFlag lets --year-level and --year_level name the same field.
func normalizeFlag(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

func (fs flagSet) get(name string) string {
	return fs.values[name]
}

func (fs flagSet) has(name string) bool {
	_, ok := fs.values[name]
	return ok
}

func (fs flagSet) intValue(name string, fallback int) (int, error) {
	v, ok := fs.values[name]
	if !ok {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("--%s must be a number, got %q", strings.ReplaceAll(name, "_", "-"), v)
	}
	return n, nil
}

// unknown rejects flags outside allowed.
func (fs flagSet) unknown(allowed ...string) error {
	for name := range fs.values {
		if !slices.Contains(allowed, name) {
			return fmt.Errorf("unknown flag --%s", strings.ReplaceAll(name, "_", "-"))
		}
	}
	return nil
}
