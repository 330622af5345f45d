package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
)

// DefaultPollDuration is how long a poll stays open when the creator
// does not pick an end time.
const DefaultPollDuration = 24 * time.Hour

// Category is one tag on a ballot: a display label and the canonical
// value used for counting ("Кафе" / "кафе").
type Category struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Ballot is one member's single vote: a coordinate plus category tags.
// Ballots are immutable once recorded.
type Ballot struct {
	UserID     uint       `json:"user_id"`
	Lat        float64    `json:"lat"`
	Lon        float64    `json:"lon"`
	Categories []Category `json:"categories"`
}

// BallotList is stored as a JSON column; the poll owns its ballots as
// an append-only log rather than a relation.
type BallotList []Ballot

func (b BallotList) Value() (driver.Value, error) {
	if b == nil {
		b = BallotList{}
	}
	return json.Marshal(b)
}

func (b *BallotList) Scan(value interface{}) error {
	if value == nil {
		*b = BallotList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, b)
	case string:
		return json.Unmarshal([]byte(v), b)
	default:
		return fmt.Errorf("unsupported ballot column type %T", value)
	}
}

type Poll struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	GroupID   uint           `gorm:"not null;index" json:"group_id"`
	Group     Group          `gorm:"foreignKey:GroupID" json:"-"`
	CreatorID uint           `gorm:"not null;index" json:"creator_id"`
	Question  string         `gorm:"not null" json:"question"`
	EndTime   time.Time      `json:"end_time"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	Ballots   BallotList     `gorm:"type:text" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Expired is a derived predicate, orthogonal to IsActive: a poll can be
// active and expired at the same time.
func (p *Poll) Expired(now time.Time) bool {
	return !now.Before(p.EndTime)
}

// HasVoted reports whether the user already contributed a ballot. The
// voted-user set is derived from the ballot log, so it can never drift
// from the ballot count.
func (p *Poll) HasVoted(userID uint) bool {
	for _, b := range p.Ballots {
		if b.UserID == userID {
			return true
		}
	}
	return false
}

// RecordBallot appends the ballot after checking poll state and group
// membership. If the new ballot count reaches the current member count
// the poll closes automatically. The caller must hold the poll lock and
// persist the poll afterwards; p.Group.Members must be loaded.
func (p *Poll) RecordBallot(userID uint, ballot Ballot, now time.Time) error {
	if p.Expired(now) {
		return ErrPollExpired
	}
	if !p.IsActive {
		return ErrPollClosed
	}
	if !p.Group.IsMember(userID) {
		return ErrNotAMember
	}
	if p.HasVoted(userID) {
		return ErrAlreadyVoted
	}

	ballot.UserID = userID
	p.Ballots = append(p.Ballots, ballot)

	// Auto-close on full participation. Compares against the current
	// member count, so membership changes mid-poll move the threshold.
	if len(p.Ballots) >= len(p.Group.Members) {
		p.IsActive = false
	}
	return nil
}

// Close performs the manual Active -> ClosedManual transition. Only the
// creator or the group owner may close; a second close is rejected as
// already closed. Returns the average point at the moment of closure.
func (p *Poll) Close(userID uint) (*Point, error) {
	if p.CreatorID != userID && !p.Group.IsOwner(userID) {
		return nil, ErrForbidden
	}
	if !p.IsActive {
		return nil, ErrPollClosed
	}
	p.IsActive = false
	return p.AveragePoint(), nil
}

// ResultsVisible gates the results endpoint: anyone may read once the
// poll is expired or closed; the creator and the group owner may peek
// earlier.
func (p *Poll) ResultsVisible(userID uint, now time.Time) bool {
	return p.Expired(now) || !p.IsActive || p.CreatorID == userID || p.Group.IsOwner(userID)
}

type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PollSummary is derived from the ballot log, never persisted.
type PollSummary struct {
	TotalVotes            int      `json:"total_votes"`
	AveragePoint          *Point   `json:"average_point"`
	MostPopularCategories []string `json:"most_popular_categories"`
}

// AveragePoint returns the planar mean of all ballot coordinates, or
// nil when nobody voted. Not a geodesic centroid; votes are city-scale.
func (p *Poll) AveragePoint() *Point {
	if len(p.Ballots) == 0 {
		return nil
	}
	var latSum, lonSum float64
	for _, b := range p.Ballots {
		latSum += b.Lat
		lonSum += b.Lon
	}
	n := float64(len(p.Ballots))
	return &Point{Lat: latSum / n, Lon: lonSum / n}
}

// Summary aggregates the ballot log into results. Pure function of the
// ballots: category values are flattened across all ballots (a ballot
// with k tags counts k times), the max frequency wins, and all values
// tied at the max are returned sorted.
func (p *Poll) Summary() PollSummary {
	summary := PollSummary{
		TotalVotes:            len(p.Ballots),
		AveragePoint:          p.AveragePoint(),
		MostPopularCategories: []string{},
	}
	if len(p.Ballots) == 0 {
		return summary
	}

	counts := make(map[string]int)
	for _, b := range p.Ballots {
		for _, c := range b.Categories {
			counts[c.Value]++
		}
	}

	maxVotes := 0
	for _, n := range counts {
		if n > maxVotes {
			maxVotes = n
		}
	}
	for value, n := range counts {
		if n == maxVotes {
			summary.MostPopularCategories = append(summary.MostPopularCategories, value)
		}
	}
	sort.Strings(summary.MostPopularCategories)

	return summary
}

// PollInput is used for creating/updating polls
type PollInput struct {
	Question string     `json:"question"`
	EndTime  *time.Time `json:"end_time"`
}

// CategoryInput mirrors Category but with pointer fields so missing
// keys can be told apart from empty strings.
type CategoryInput struct {
	Label *string `json:"label"`
	Value *string `json:"value"`
}

// BallotInput is the wire shape of a vote's "coordinates" object.
type BallotInput struct {
	Lat        *float64         `json:"lat"`
	Lon        *float64         `json:"lon"`
	Categories *[]CategoryInput `json:"categories"`
}

// VoteInput is the vote request body.
type VoteInput struct {
	Coordinates *BallotInput `json:"coordinates"`
}

// ParseBallot validates the raw vote shape and produces a typed Ballot.
// The aggregation engine only ever sees ballots that passed this.
func ParseBallot(in *VoteInput) (Ballot, error) {
	if in == nil || in.Coordinates == nil {
		return Ballot{}, errors.New("coordinates are required")
	}
	c := in.Coordinates
	if c.Lat == nil || c.Lon == nil || c.Categories == nil {
		return Ballot{}, errors.New("coordinates must contain lat, lon and categories")
	}

	ballot := Ballot{
		Lat:        *c.Lat,
		Lon:        *c.Lon,
		Categories: make([]Category, 0, len(*c.Categories)),
	}
	for _, cat := range *c.Categories {
		if cat.Label == nil || cat.Value == nil {
			return Ballot{}, errors.New("every category must contain label and value")
		}
		if *cat.Label == "" || *cat.Value == "" {
			return Ballot{}, errors.New("category label and value must be non-empty")
		}
		ballot.Categories = append(ballot.Categories, Category{Label: *cat.Label, Value: *cat.Value})
	}
	return ballot, nil
}

// PollResponse is the poll detail payload.
type PollResponse struct {
	ID         uint      `json:"id"`
	GroupID    uint      `json:"group_id"`
	CreatorID  uint      `json:"creator_id"`
	Question   string    `json:"question"`
	EndTime    time.Time `json:"end_time"`
	IsActive   bool      `json:"is_active"`
	IsExpired  bool      `json:"is_expired"`
	TotalVotes int       `json:"total_votes"`
	CreatedAt  time.Time `json:"created_at"`
}

func (p *Poll) ToResponse(now time.Time) PollResponse {
	return PollResponse{
		ID:         p.ID,
		GroupID:    p.GroupID,
		CreatorID:  p.CreatorID,
		Question:   p.Question,
		EndTime:    p.EndTime,
		IsActive:   p.IsActive,
		IsExpired:  p.Expired(now),
		TotalVotes: len(p.Ballots),
		CreatedAt:  p.CreatedAt,
	}
}
