// Package match decides which catalog candidate, if any, a spreadsheet title
// refers to. Titles and candidate names are normalized (diacritic and case
// folding, edition suffix stripping) and compared with a token-set similarity
// score; configurable confidence thresholds then split results into matched,
// ambiguous, and not-found outcomes.
package match
