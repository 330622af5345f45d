package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/Alex20563/Where2Go/config"
	"github.com/Alex20563/Where2Go/database"
	"github.com/Alex20563/Where2Go/middleware"
	"github.com/Alex20563/Where2Go/models"
	"github.com/Alex20563/Where2Go/services"
)

// statusForError maps domain errors to HTTP statuses. Authorization
// failures and state rejections stay distinguishable for clients.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrNotAMember),
		errors.Is(err, models.ErrForbidden),
		errors.Is(err, models.ErrAlreadyVoted),
		errors.Is(err, models.ErrResultsNotReady):
		return fiber.StatusForbidden
	case errors.Is(err, models.ErrPollExpired),
		errors.Is(err, models.ErrPollClosed):
		return fiber.StatusBadRequest
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func loadPoll(pollID uint) (*models.Poll, error) {
	var poll models.Poll
	if result := database.DB.Preload("Group.Members").First(&poll, pollID); result.Error != nil {
		return nil, result.Error
	}
	return &poll, nil
}

// CreatePoll creates a poll inside a group; only members may create.
func CreatePoll(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid group ID",
		})
	}

	group, err := loadGroup(groupID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Group not found",
		})
	}

	if !group.IsMember(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Not a member of this group",
		})
	}

	var input models.PollInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if input.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Question is required",
		})
	}

	endTime := time.Now().Add(models.DefaultPollDuration)
	if input.EndTime != nil {
		endTime = *input.EndTime
	}

	poll := models.Poll{
		GroupID:   groupID,
		CreatorID: userID,
		Question:  input.Question,
		EndTime:   endTime,
		IsActive:  true,
		Ballots:   models.BallotList{},
	}

	if result := database.DB.Create(&poll); result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create poll",
		})
	}

	services.LogAudit(userID, middleware.GetUsername(c), models.AuditActionPollCreate, &groupID, &poll.ID, poll.Question, c.IP())

	return c.Status(fiber.StatusCreated).JSON(poll.ToResponse(time.Now()))
}

// ListGroupPolls returns all polls of a group
func ListGroupPolls(c *fiber.Ctx) error {
	groupID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid group ID",
		})
	}

	var polls []models.Poll
	result := database.DB.Where("group_id = ?", groupID).Order("created_at DESC").Find(&polls)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch polls",
		})
	}

	now := time.Now()
	responses := make([]models.PollResponse, len(polls))
	for i := range polls {
		responses[i] = polls[i].ToResponse(now)
	}
	return c.JSON(responses)
}

// ListMyPolls returns polls in all groups the current user belongs to
func ListMyPolls(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var polls []models.Poll
	result := database.DB.
		Joins("JOIN group_members ON group_members.group_id = polls.group_id").
		Where("group_members.user_id = ?", userID).
		Order("polls.created_at DESC").
		Find(&polls)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch polls",
		})
	}

	now := time.Now()
	responses := make([]models.PollResponse, len(polls))
	for i := range polls {
		responses[i] = polls[i].ToResponse(now)
	}
	return c.JSON(responses)
}

// GetPoll returns a single poll
func GetPoll(c *fiber.Ctx) error {
	pollID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid poll ID",
		})
	}

	poll, err := loadPoll(pollID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Poll not found",
		})
	}

	return c.JSON(poll.ToResponse(time.Now()))
}

// UpdatePoll edits the question or end time; creator only, narrower
// than close/delete.
func UpdatePoll(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	pollID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid poll ID",
		})
	}

	poll, err := loadPoll(pollID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Poll not found",
		})
	}

	if poll.CreatorID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the poll creator can update the poll",
		})
	}

	var input models.PollInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if input.Question != "" {
		poll.Question = input.Question
	}
	if input.EndTime != nil {
		poll.EndTime = *input.EndTime
	}

	if result := database.DB.Save(poll); result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update poll",
		})
	}

	services.LogAudit(userID, middleware.GetUsername(c), models.AuditActionPollUpdate, &poll.GroupID, &pollID, "", c.IP())

	return c.JSON(poll.ToResponse(time.Now()))
}

// DeletePoll removes a poll; creator or group owner only.
func DeletePoll(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	pollID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid poll ID",
		})
	}

	poll, err := loadPoll(pollID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Poll not found",
		})
	}

	if poll.CreatorID != userID && !poll.Group.IsOwner(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "No permission to delete this poll",
		})
	}

	if result := database.DB.Delete(poll); result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete poll",
		})
	}

	services.LogAudit(userID, middleware.GetUsername(c), models.AuditActionPollDelete, &poll.GroupID, &pollID, "", c.IP())

	return c.SendStatus(fiber.StatusNoContent)
}

// ClosePoll performs the manual close and returns the average point at
// the moment of closure.
func ClosePoll(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	pollID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid poll ID",
		})
	}

	point, err := services.ClosePoll(pollID, userID)
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	services.LogAudit(userID, middleware.GetUsername(c), models.AuditActionPollClose, nil, &pollID, "", c.IP())

	return c.JSON(fiber.Map{
		"message":       "Poll closed",
		"average_point": point,
	})
}

// Vote validates the ballot shape at the boundary and hands the typed
// ballot to the voting service.
func Vote(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	pollID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid poll ID",
		})
	}

	var input models.VoteInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	ballot, err := models.ParseBallot(&input)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if _, err := services.CastVote(pollID, userID, ballot); err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	services.LogAudit(userID, middleware.GetUsername(c), models.AuditActionPollVote, nil, &pollID, "", c.IP())

	return c.JSON(fiber.Map{"message": "Vote recorded"})
}

type resultsResponse struct {
	Results           resultsBody                `json:"results"`
	RecommendedPlaces []models.PlaceSearchResult `json:"recommended_places"`
}

type resultsBody struct {
	models.PollSummary
	Radius    int     `json:"radius"`
	MinRating float64 `json:"min_rating"`
}

func buildResults(poll *models.Poll, radius int, minRating float64) resultsResponse {
	summary := poll.Summary()
	resp := resultsResponse{
		Results:           resultsBody{PollSummary: summary, Radius: radius, MinRating: minRating},
		RecommendedPlaces: []models.PlaceSearchResult{},
	}
	if summary.TotalVotes == 0 {
		return resp
	}

	// One batch lookup per winning category, around the centroid.
	for _, category := range summary.MostPopularCategories {
		found := services.Places().FindNearby(
			summary.AveragePoint.Lat, summary.AveragePoint.Lon,
			category, radius, minRating,
		)
		resp.RecommendedPlaces = append(resp.RecommendedPlaces, found)
	}
	return resp
}

// PollResults returns the aggregated summary plus recommended venues.
// Visible once the poll is expired or closed; the creator and the
// group owner may look earlier.
func PollResults(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	pollID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid poll ID",
		})
	}

	cfg := config.GetConfig()
	radius := cfg.DefaultSearchRadius
	if v := c.Query("radius"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid radius",
			})
		}
		radius = parsed
	}
	minRating := cfg.DefaultMinRating
	if v := c.Query("min_rating"); v != "" {
		parsed, err := parseFloatQuery(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid min_rating",
			})
		}
		minRating = parsed
	}

	poll, err := loadPoll(pollID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Poll not found",
		})
	}

	if !poll.ResultsVisible(userID, time.Now()) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": models.ErrResultsNotReady.Error(),
		})
	}

	return c.JSON(buildResults(poll, radius, minRating))
}
