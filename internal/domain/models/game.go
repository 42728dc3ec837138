package models

import "time"

// Game identifies a single fixture served by the recent-games endpoint.
// Games are keyed by the retrosheet-style gid; StatsAPIGamePk carries the
// statsapi key for the same fixture when known.
type Game struct {
	GID           string    `json:"gid"`
	HomeTeam      string    `json:"hometeam"`
	VisTeam       string    `json:"visteam"`
	StatsAPIGamePk int64    `json:"statsapi_game_pk,omitempty"`
	Date          time.Time `json:"date,omitempty"`
}

// Play is a single play-by-play record for a game. Ordering within a game is
// (Inning, TopBot, Nump).
type Play struct {
	GID      string `json:"gid"`
	Inning   int    `json:"inning"`
	TopBot   int    `json:"top_bot"`
	Nump     int    `json:"nump"`
	Event    string `json:"event"`
	Batter   string `json:"batter"`
	Pitcher  string `json:"pitcher"`
	BatHand  string `json:"bathand"`
	PitHand  string `json:"pithand"`
	Outs     int    `json:"outs_pre"`
	OutsPost int    `json:"outs_post"`
	HR       int    `json:"hr"`
	RBI      int    `json:"rbi"`
	K        int    `json:"k"`
	ER       int    `json:"er"`
	Hits     int    `json:"hits"`
	Errors   int    `json:"errors"`
	GDP      int    `json:"gdp"`
	BR1Pre   bool   `json:"br1_pre"`
	BR2Pre   bool   `json:"br2_pre"`
	BR3Pre   bool   `json:"br3_pre"`
	Timestamp int64 `json:"t,omitempty"`
}

// BasesState renders the pre-play base occupation as commentary context.
func (p *Play) BasesState() string {
	var bases []string
	if p.BR1Pre {
		bases = append(bases, "Runner on first")
	}
	if p.BR2Pre {
		bases = append(bases, "Runner on second")
	}
	if p.BR3Pre {
		bases = append(bases, "Runner on third")
	}
	if len(bases) == 0 {
		return "Bases empty"
	}
	s := bases[0]
	for _, b := range bases[1:] {
		s += ", " + b
	}
	return s
}
