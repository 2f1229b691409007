package igdb

import (
	"fmt"
	"strconv"
	"strings"
)

// IGDB queries use the APICalypse body syntax: semicolon-terminated clauses
// posted as plain text.

func searchGamesQuery(title string, limit, offset int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "search \"%s\";\n", escapeSearchTerm(title))
	b.WriteString("fields name,summary,genres,keywords,rating;\n")
	fmt.Fprintf(&b, "limit %d;\n", limit)
	fmt.Fprintf(&b, "offset %d;", offset)
	return b.String()
}

func namesByIDQuery(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("where id = (%s);\nfields name;\nlimit %d;", strings.Join(parts, ","), len(ids))
}

// storefrontCategorySteam is IGDB's website category for Steam store pages.
const storefrontCategorySteam = 13

func storefrontQuery(gameID int64) string {
	return fmt.Sprintf("where game = %d & category = %d;\nfields url;", gameID, storefrontCategorySteam)
}

func escapeSearchTerm(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, `"`, `\"`)
}
