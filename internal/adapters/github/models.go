package github

// GraphQL wire shapes

// PageInfo is the relay style cursor marker
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// LangEdge is one language slice of a repository with its byte size
type LangEdge struct {
	Size int64 `json:"size"`
	Node struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	} `json:"node"`
}

// RepoNode is a repository as returned by the overview queries
type RepoNode struct {
	NameWithOwner string `json:"nameWithOwner"`
	Stargazers    struct {
		TotalCount int `json:"totalCount"`
	} `json:"stargazers"`
	ForkCount   int     `json:"forkCount"`
	IsFork      bool    `json:"isFork"`
	IsArchived  bool    `json:"isArchived"`
	IsPrivate   bool    `json:"isPrivate"`
	URL         string  `json:"url"`
	Description *string `json:"description"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
	DiskUsage   int     `json:"diskUsage"`

	DefaultBranchRef *struct {
		Name string `json:"name"`
	} `json:"defaultBranchRef"`

	PrimaryLanguage *struct {
		Name string `json:"name"`
	} `json:"primaryLanguage"`

	Languages struct {
		Edges []LangEdge `json:"edges"`
	} `json:"languages"`
}

// RepoConnection is one paged side of the overview walk
type RepoConnection struct {
	PageInfo PageInfo   `json:"pageInfo"`
	Nodes    []RepoNode `json:"nodes"`
}

// OverviewData is the data object of QueryReposOverview
type OverviewData struct {
	User struct {
		Name      *string `json:"name"`
		Login     string  `json:"login"`
		Followers struct {
			TotalCount int `json:"totalCount"`
		} `json:"followers"`
		Following struct {
			TotalCount int `json:"totalCount"`
		} `json:"following"`
		Repositories              RepoConnection `json:"repositories"`
		RepositoriesContributedTo RepoConnection `json:"repositoriesContributedTo"`
	} `json:"user"`
}

// SingleRepoData is the data object of QuerySingleRepo
type SingleRepoData struct {
	Repository *RepoNode `json:"repository"`
}

// ContributionYearsData is the data object of QueryContributionYears
type ContributionYearsData struct {
	User struct {
		ContributionsCollection struct {
			ContributionYears []int `json:"contributionYears"`
		} `json:"contributionsCollection"`
	} `json:"user"`
}

// ContributionDay is one calendar cell
type ContributionDay struct {
	Date              string `json:"date"`
	ContributionCount int    `json:"contributionCount"`
}

// CalendarBlock is one aliased yearly contributionsCollection block
type CalendarBlock struct {
	ContributionCalendar struct {
		TotalContributions int `json:"totalContributions"`
		Weeks              []struct {
			ContributionDays []ContributionDay `json:"contributionDays"`
		} `json:"weeks"`
	} `json:"contributionCalendar"`
}

// REST wire shapes

// RESTUser is the authenticated or looked up user
type RESTUser struct {
	Login     string `json:"login"`
	Followers int    `json:"followers"`
	Following int    `json:"following"`
}

// ContributorStats is one author block from /stats/contributors
type ContributorStats struct {
	Author struct {
		Login string `json:"login"`
	} `json:"author"`
	Total int `json:"total"`
	Weeks []struct {
		Additions int `json:"a"`
		Deletions int `json:"d"`
		Commits   int `json:"c"`
	} `json:"weeks"`
}

// TrafficDay is one dated traffic bucket
type TrafficDay struct {
	Timestamp string `json:"timestamp"`
	Count     int64  `json:"count"`
	Uniques   int64  `json:"uniques"`
}

// TrafficResult is the /traffic/views or /traffic/clones payload
type TrafficResult struct {
	Count   int64        `json:"count"`
	Uniques int64        `json:"uniques"`
	Views   []TrafficDay `json:"views"`
	Clones  []TrafficDay `json:"clones"`
}

// Account is a minimal login carrier for contributor and collaborator lists
type Account struct {
	Login string `json:"login"`
}

// Issue is a minimal issue search row, HTMLURL distinguishes issues from PRs
type Issue struct {
	HTMLURL string `json:"html_url"`
	State   string `json:"state"`
	User    struct {
		Login string `json:"login"`
	} `json:"user"`
}

// Commit is one row of /repos/{o}/{r}/commits
type Commit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Date string `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	Author *struct {
		Login string `json:"login"`
	} `json:"author"`
}
