// Package sqlutil holds SQL helpers shared by the store backends.
package sqlutil

import "strings"

// LikeEscape is the escape character used with ContainsPattern.
const LikeEscape = `\`

var likeReplacer = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern returns a LIKE pattern matching any value that contains
// term. Wildcards in term are escaped so they match literally; queries must
// declare ESCAPE '\'.
func ContainsPattern(term string) string {
	return "%" + likeReplacer.Replace(term) + "%"
}
