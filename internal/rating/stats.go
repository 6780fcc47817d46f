package rating

import "github.com/jediswimmer/ironcurtain/internal/domain"

// WinLoss is one faction's win/loss tally.
type WinLoss struct {
	Wins   int
	Losses int
}

// Stats is the non-rating half of a player's profile: overall
// win/loss/draw counts, the current streak (positive for consecutive
// wins, negative for consecutive losses, zeroed by a draw), and the
// per-faction record.
type Stats struct {
	Wins      int
	Losses    int
	Draws     int
	Streak    int
	ByFaction map[domain.Faction]WinLoss
}

func (s Stats) clone() Stats {
	out := s
	out.ByFaction = make(map[domain.Faction]WinLoss, len(s.ByFaction))
	for f, wl := range s.ByFaction {
		out.ByFaction[f] = wl
	}
	return out
}

// AfterWin returns the stats as they stand after a win playing faction.
func (s Stats) AfterWin(faction domain.Faction) Stats {
	out := s.clone()
	out.Wins++
	if out.Streak < 0 {
		out.Streak = 0
	}
	out.Streak++
	wl := out.ByFaction[faction]
	wl.Wins++
	out.ByFaction[faction] = wl
	return out
}

// AfterLoss returns the stats as they stand after a loss playing
// faction.
func (s Stats) AfterLoss(faction domain.Faction) Stats {
	out := s.clone()
	out.Losses++
	if out.Streak > 0 {
		out.Streak = 0
	}
	out.Streak--
	wl := out.ByFaction[faction]
	wl.Losses++
	out.ByFaction[faction] = wl
	return out
}

// AfterDraw returns the stats after a drawn match. A draw breaks the
// streak in either direction but counts toward neither faction record.
func (s Stats) AfterDraw() Stats {
	out := s.clone()
	out.Draws++
	out.Streak = 0
	return out
}
