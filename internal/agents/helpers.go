package agents

import "strings"

func upper(s string) string { return strings.ToUpper(s) }

func join(items []string) string { return strings.Join(items, ", ") }
