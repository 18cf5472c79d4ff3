// Package search holds helpers shared by the SQL article stores.
package search

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE wildcards in s and wraps it for a substring match.
// Queries using it must declare ESCAPE '\'.
func EscapeLike(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
