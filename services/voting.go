package services

import (
	"sync"
	"time"

	"github.com/Alex20563/Where2Go/database"
	"github.com/Alex20563/Where2Go/models"

	"gorm.io/gorm"
)

// pollLocks serializes writes per poll so that two concurrent voters
// cannot both pass the not-yet-voted check, and two last voters cannot
// race the auto-close.
var pollLocks sync.Map

func pollLock(pollID uint) *sync.Mutex {
	mu, _ := pollLocks.LoadOrStore(pollID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// CastVote records one ballot under the poll's exclusive-write lock.
// The poll is re-read inside the transaction, so the membership and
// voted checks, the append and the possible auto-close apply as one
// atomic unit.
func CastVote(pollID, userID uint, ballot models.Ballot) (*models.Poll, error) {
	mu := pollLock(pollID)
	mu.Lock()
	defer mu.Unlock()

	var poll models.Poll
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Group.Members").First(&poll, pollID).Error; err != nil {
			return err
		}
		if err := poll.RecordBallot(userID, ballot, time.Now()); err != nil {
			return err
		}
		return tx.Model(&poll).Updates(map[string]interface{}{
			"ballots":   poll.Ballots,
			"is_active": poll.IsActive,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &poll, nil
}

// ClosePoll performs the manual close under the same per-poll lock and
// returns the average point at the moment of closure.
func ClosePoll(pollID, userID uint) (*models.Point, error) {
	mu := pollLock(pollID)
	mu.Lock()
	defer mu.Unlock()

	var point *models.Point
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var poll models.Poll
		if err := tx.Preload("Group.Members").First(&poll, pollID).Error; err != nil {
			return err
		}
		p, err := poll.Close(userID)
		if err != nil {
			return err
		}
		point = p
		return tx.Model(&poll).Update("is_active", false).Error
	})
	if err != nil {
		return nil, err
	}
	return point, nil
}
