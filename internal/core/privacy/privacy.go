// Package privacy masks private repository details in outgoing payloads
package privacy

// MaskedRepoName is the placeholder shown for a private repository
func MaskedRepoName(username string) string { return username + "/private-repo" }

// MaskedSHA replaces a private commit id
const MaskedSHA = "private"

// MaskedCommitMessage replaces a private commit description
const MaskedCommitMessage = "Private commit"
