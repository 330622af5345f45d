package services

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Alex20563/Where2Go/database"
	"github.com/Alex20563/Where2Go/models"
)

func setupDB(t *testing.T) {
	t.Helper()
	if err := database.Connect(filepath.Join(t.TempDir(), "test.db")); err != nil {
		t.Fatalf("connect: %v", err)
	}
}

func seedGroupPoll(t *testing.T, memberCount int) (*models.Group, *models.Poll, []models.User) {
	t.Helper()

	users := make([]models.User, memberCount)
	for i := range users {
		users[i] = models.User{
			Username:     "user" + string(rune('a'+i)),
			Email:        "user" + string(rune('a'+i)) + "@example.com",
			PasswordHash: "x",
		}
		if err := database.DB.Create(&users[i]).Error; err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	group := models.Group{
		Name:    "test group",
		OwnerID: users[0].ID,
		Members: users,
	}
	if err := database.DB.Create(&group).Error; err != nil {
		t.Fatalf("create group: %v", err)
	}

	poll := models.Poll{
		GroupID:   group.ID,
		CreatorID: users[0].ID,
		Question:  "Where to?",
		EndTime:   time.Now().Add(24 * time.Hour),
		IsActive:  true,
		Ballots:   models.BallotList{},
	}
	if err := database.DB.Create(&poll).Error; err != nil {
		t.Fatalf("create poll: %v", err)
	}

	return &group, &poll, users
}

func ballotAt(lat, lon float64) models.Ballot {
	return models.Ballot{
		Lat:        lat,
		Lon:        lon,
		Categories: []models.Category{{Label: "Cafe", Value: "cafe"}},
	}
}

func TestCastVotePersists(t *testing.T) {
	setupDB(t)
	_, poll, users := seedGroupPoll(t, 3)

	updated, err := CastVote(poll.ID, users[0].ID, ballotAt(55.0, 37.0))
	if err != nil {
		t.Fatalf("cast vote: %v", err)
	}
	if len(updated.Ballots) != 1 {
		t.Fatalf("ballots = %d, want 1", len(updated.Ballots))
	}

	var reloaded models.Poll
	if err := database.DB.First(&reloaded, poll.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.Ballots) != 1 {
		t.Fatalf("persisted ballots = %d, want 1", len(reloaded.Ballots))
	}
	if reloaded.Ballots[0].UserID != users[0].ID {
		t.Errorf("ballot user = %d, want %d", reloaded.Ballots[0].UserID, users[0].ID)
	}
	if !reloaded.IsActive {
		t.Error("poll auto-closed at 1/3 votes")
	}
}

func TestCastVoteAutoClosePersists(t *testing.T) {
	setupDB(t)
	_, poll, users := seedGroupPoll(t, 2)

	if _, err := CastVote(poll.ID, users[0].ID, ballotAt(1, 1)); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if _, err := CastVote(poll.ID, users[1].ID, ballotAt(2, 2)); err != nil {
		t.Fatalf("second vote: %v", err)
	}

	var reloaded models.Poll
	if err := database.DB.First(&reloaded, poll.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.IsActive {
		t.Error("poll still active after full participation")
	}
}

func TestCastVoteDuplicateRejected(t *testing.T) {
	setupDB(t)
	_, poll, users := seedGroupPoll(t, 3)

	if _, err := CastVote(poll.ID, users[0].ID, ballotAt(1, 1)); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if _, err := CastVote(poll.ID, users[0].ID, ballotAt(2, 2)); !errors.Is(err, models.ErrAlreadyVoted) {
		t.Fatalf("err = %v, want ErrAlreadyVoted", err)
	}

	var reloaded models.Poll
	database.DB.First(&reloaded, poll.ID)
	if len(reloaded.Ballots) != 1 {
		t.Errorf("ballots = %d, want 1", len(reloaded.Ballots))
	}
}

func TestCastVoteConcurrentSameUser(t *testing.T) {
	setupDB(t)
	_, poll, users := seedGroupPoll(t, 5)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = CastVote(poll.ID, users[0].ID, ballotAt(float64(i), float64(i)))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, models.ErrAlreadyVoted) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("%d concurrent votes succeeded for one user, want 1", succeeded)
	}

	var reloaded models.Poll
	database.DB.First(&reloaded, poll.ID)
	if len(reloaded.Ballots) != 1 {
		t.Errorf("ballots = %d, want 1", len(reloaded.Ballots))
	}
}

func TestCastVoteConcurrentLastVoters(t *testing.T) {
	setupDB(t)
	_, poll, users := seedGroupPoll(t, 4)

	// All four members vote at once; exactly one of them trips the
	// auto-close, and the final ballot count equals the member count.
	var wg sync.WaitGroup
	for i, u := range users {
		wg.Add(1)
		go func(i int, userID uint) {
			defer wg.Done()
			if _, err := CastVote(poll.ID, userID, ballotAt(float64(i), float64(i))); err != nil {
				t.Errorf("vote by %d: %v", userID, err)
			}
		}(i, u.ID)
	}
	wg.Wait()

	var reloaded models.Poll
	database.DB.First(&reloaded, poll.ID)
	if len(reloaded.Ballots) != 4 {
		t.Errorf("ballots = %d, want 4", len(reloaded.Ballots))
	}
	if reloaded.IsActive {
		t.Error("poll still active after everybody voted")
	}
}

func TestClosePollService(t *testing.T) {
	setupDB(t)
	_, poll, users := seedGroupPoll(t, 3)

	if _, err := CastVote(poll.ID, users[1].ID, ballotAt(55.0, 37.0)); err != nil {
		t.Fatalf("vote: %v", err)
	}

	// A plain member may not close.
	if _, err := ClosePoll(poll.ID, users[2].ID); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("member close err = %v, want ErrForbidden", err)
	}

	point, err := ClosePoll(poll.ID, users[0].ID)
	if err != nil {
		t.Fatalf("owner close: %v", err)
	}
	if point == nil || point.Lat != 55.0 {
		t.Errorf("average point = %v", point)
	}

	if _, err := ClosePoll(poll.ID, users[0].ID); !errors.Is(err, models.ErrPollClosed) {
		t.Errorf("repeat close err = %v, want ErrPollClosed", err)
	}

	var reloaded models.Poll
	database.DB.First(&reloaded, poll.ID)
	if reloaded.IsActive {
		t.Error("close not persisted")
	}
}
