package project

import (
	"fmt"
	"strings"

	"monogen/internal/symbols"
)

// CheckModuleName reports why name cannot name a program module, or nil.
// Module names end up in qualified names (`app::Box`) and in the hash input of
// canonical shell names, so they are limited to ASCII identifiers and may not
// shadow the builtin module.
func CheckModuleName(name string) error {
	if name == "" {
		return fmt.Errorf("module name is empty")
	}
	if strings.Contains(name, "::") {
		return fmt.Errorf("module name %q must not be qualified", name)
	}
	if name == symbols.BuiltinModule {
		return fmt.Errorf("module name %q is reserved for builtin types", name)
	}
	for i, r := range name {
		switch {
		case r == '_', 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
		case '0' <= r && r <= '9':
			if i == 0 {
				return fmt.Errorf("module name %q starts with a digit", name)
			}
		default:
			return fmt.Errorf("module name %q contains %q at offset %d", name, r, i)
		}
	}
	return nil
}
