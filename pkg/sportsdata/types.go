package sportsdata

import "time"

// TeamRef is the short team object embedded in fixtures, standings and
// squads.
type TeamRef struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Logo   string `json:"logo,omitempty"`
	Winner *bool  `json:"winner,omitempty"`
}

// Fixture is one match as returned by /fixtures.
type Fixture struct {
	Fixture FixtureInfo `json:"fixture"`
	League  LeagueInfo  `json:"league"`
	Teams   struct {
		Home TeamRef `json:"home"`
		Away TeamRef `json:"away"`
	} `json:"teams"`
	Goals Goals `json:"goals"`
}

type FixtureInfo struct {
	ID       int           `json:"id"`
	Referee  string        `json:"referee,omitempty"`
	Timezone string        `json:"timezone,omitempty"`
	Date     time.Time     `json:"date"`
	Status   FixtureStatus `json:"status"`
}

type FixtureStatus struct {
	Long    string `json:"long"`
	Short   string `json:"short"`
	Elapsed *int   `json:"elapsed"`
}

type LeagueInfo struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Season int    `json:"season"`
	Round  string `json:"round,omitempty"`
}

// Goals are nil until a match has started.
type Goals struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

// TeamEntry is one element of the /teams response.
type TeamEntry struct {
	Team  Team  `json:"team"`
	Venue Venue `json:"venue"`
}

type Team struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	Country string `json:"country,omitempty"`
	Founded int    `json:"founded,omitempty"`
	Logo    string `json:"logo,omitempty"`
}

type Venue struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	City     string `json:"city,omitempty"`
	Capacity int    `json:"capacity,omitempty"`
}

// Standing is one table row.
type Standing struct {
	Rank      int     `json:"rank"`
	Team      TeamRef `json:"team"`
	Points    int     `json:"points"`
	GoalsDiff int     `json:"goalsDiff"`
	Group     string  `json:"group,omitempty"`
	Form      string  `json:"form,omitempty"`
	All       Record  `json:"all"`
}

type Record struct {
	Played int `json:"played"`
	Win    int `json:"win"`
	Draw   int `json:"draw"`
	Lose   int `json:"lose"`
	Goals  struct {
		For     int `json:"for"`
		Against int `json:"against"`
	} `json:"goals"`
}

// standingsEntry wraps the grouped tables of one league.
type standingsEntry struct {
	League struct {
		ID        int          `json:"id"`
		Season    int          `json:"season"`
		Standings [][]Standing `json:"standings"`
	} `json:"league"`
}

// Squad is the current roster of one team.
type Squad struct {
	Team    TeamRef       `json:"team"`
	Players []SquadPlayer `json:"players"`
}

type SquadPlayer struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Age      int    `json:"age,omitempty"`
	Number   *int   `json:"number"`
	Position string `json:"position"`
	Photo    string `json:"photo,omitempty"`
}

// Injury is one entry of the /injuries response.
type Injury struct {
	Player struct {
		ID     int    `json:"id"`
		Name   string `json:"name"`
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"player"`
	Team    TeamRef `json:"team"`
	Fixture struct {
		ID   int       `json:"id"`
		Date time.Time `json:"date"`
	} `json:"fixture"`
}

// PlayerProfile is a player with per-competition statistics.
type PlayerProfile struct {
	Player     PlayerInfo         `json:"player"`
	Statistics []PlayerStatistics `json:"statistics"`
}

type PlayerInfo struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Firstname   string `json:"firstname,omitempty"`
	Lastname    string `json:"lastname,omitempty"`
	Age         int    `json:"age,omitempty"`
	Nationality string `json:"nationality,omitempty"`
	Photo       string `json:"photo,omitempty"`
}

type PlayerStatistics struct {
	Team   TeamRef    `json:"team"`
	League LeagueInfo `json:"league"`
	Games  struct {
		Appearances *int   `json:"appearences"`
		Minutes     *int   `json:"minutes"`
		Position    string `json:"position"`
		Rating      string `json:"rating"`
	} `json:"games"`
	Goals struct {
		Total   *int `json:"total"`
		Assists *int `json:"assists"`
	} `json:"goals"`
	Cards struct {
		Yellow *int `json:"yellow"`
		Red    *int `json:"red"`
	} `json:"cards"`
}
