package models

// KeyPlay annotates a win-probability point with the play that moved it.
type KeyPlay struct {
	Play              string  `json:"play"`
	WinProbability    float64 `json:"win_probability"`
	ProbabilityChange float64 `json:"probability_change"`
	Explanation       string  `json:"explanation"`
}

// WinProbabilityPoint is one modeled point on the home team's win-probability
// curve. Points accumulate per play; multiple points per inning are kept.
type WinProbabilityPoint struct {
	GID            string   `json:"gid,omitempty"`
	HomeTeam       string   `json:"home_team"`
	Inning         string   `json:"inning"`
	PlaySeq        int      `json:"play_seq,omitempty"`
	WinProbability float64  `json:"win_probability"`
	KeyPlay        *KeyPlay `json:"key_play,omitempty"`
}

// PredictionRequest binds /predict-win query parameters.
type PredictionRequest struct {
	GID            string `json:"gid" query:"gid" validate:"required"`
	StatsAPIGamePk int64  `json:"statsapi_game_pk" query:"statsapi_game_pk"`
}

// PredictionResponse is the /predict-win payload.
type PredictionResponse struct {
	Predictions []WinProbabilityPoint `json:"predictions"`
}

// SpeechRequest binds the /speech POST body.
type SpeechRequest struct {
	Text string `json:"text" validate:"required,min=1"`
}

// SpeechResponse carries the synthesized audio location.
type SpeechResponse struct {
	AudioURL string `json:"audioUrl"`
}
