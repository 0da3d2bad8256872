package github

import (
	"fmt"
	"sort"
	"strings"
)

// QueryReposOverview walks owned and contributed repositories with two
// independent cursors, each page carrying up to 100 nodes per side
const QueryReposOverview = `
query($login: String!, $ownedCursor: String, $contribCursor: String) {
  user(login: $login) {
    name
    login
    followers { totalCount }
    following { totalCount }
    repositories(
      first: 100,
      orderBy: { field: UPDATED_AT, direction: DESC },
      after: $ownedCursor,
      ownerAffiliations: [OWNER, COLLABORATOR, ORGANIZATION_MEMBER]
    ) {
      pageInfo { hasNextPage endCursor }
      nodes { ...repoFields }
    }
    repositoriesContributedTo(
      first: 100,
      includeUserRepositories: false,
      orderBy: { field: UPDATED_AT, direction: DESC },
      contributionTypes: [COMMIT, PULL_REQUEST, REPOSITORY, PULL_REQUEST_REVIEW],
      after: $contribCursor
    ) {
      pageInfo { hasNextPage endCursor }
      nodes { ...repoFields }
    }
  }
}
fragment repoFields on Repository {
  nameWithOwner
  stargazers { totalCount }
  forkCount
  isFork
  isArchived
  isPrivate
  url
  description
  createdAt
  updatedAt
  diskUsage
  defaultBranchRef { name }
  primaryLanguage { name }
  languages(first: 100, orderBy: { field: SIZE, direction: DESC }) {
    edges { size node { name color } }
  }
}`

// QueryContributionYears lists the years the user has contributions in
const QueryContributionYears = `
query($login: String!) {
  user(login: $login) {
    contributionsCollection { contributionYears }
  }
}`

// QuerySingleRepo fetches one repository by owner and name, used for
// manually added repos outside the affiliation walk
const QuerySingleRepo = `
query($owner: String!, $name: String!) {
  repository(owner: $owner, name: $name) {
    nameWithOwner
    stargazers { totalCount }
    forkCount
    isFork
    isArchived
    isPrivate
    url
    description
    createdAt
    updatedAt
    diskUsage
    defaultBranchRef { name }
    primaryLanguage { name }
    languages(first: 100, orderBy: { field: SIZE, direction: DESC }) {
      edges { size node { name color } }
    }
  }
}`

// BuildContributionsQuery aliases one contributionsCollection block per
// year so the whole calendar comes back in a single round trip
func BuildContributionsQuery(login string, years []int) string {
	ys := append([]int(nil), years...)
	sort.Sort(sort.Reverse(sort.IntSlice(ys)))
	var b strings.Builder
	b.WriteString("query {\n")
	fmt.Fprintf(&b, "  user(login: %q) {\n", login)
	for _, y := range ys {
		fmt.Fprintf(&b, `    year%d: contributionsCollection(
      from: "%d-01-01T00:00:00Z",
      to: "%d-01-01T00:00:00Z"
    ) {
      contributionCalendar {
        totalContributions
        weeks { contributionDays { date contributionCount } }
      }
    }
`, y, y, y+1)
	}
	b.WriteString("  }\n}")
	return b.String()
}
