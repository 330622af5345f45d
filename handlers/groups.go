package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Alex20563/Where2Go/database"
	"github.com/Alex20563/Where2Go/middleware"
	"github.com/Alex20563/Where2Go/models"
	"github.com/Alex20563/Where2Go/services"
)

func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	return uint(id), err
}

func loadGroup(groupID uint) (*models.Group, error) {
	var group models.Group
	if result := database.DB.Preload("Members").First(&group, groupID); result.Error != nil {
		return nil, result.Error
	}
	return &group, nil
}

// ListGroups returns the groups the current user is a member of
func ListGroups(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var groups []models.Group
	result := database.DB.Preload("Members").
		Joins("JOIN group_members ON group_members.group_id = groups.id").
		Where("group_members.user_id = ?", userID).
		Order("groups.created_at DESC").
		Find(&groups)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch groups",
		})
	}

	responses := make([]models.GroupResponse, len(groups))
	for i := range groups {
		responses[i] = groups[i].ToResponse()
	}
	return c.JSON(responses)
}

// CreateGroup creates a new group; the creator becomes owner and is
// always part of the member set.
func CreateGroup(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var input models.GroupInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if input.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}

	var owner models.User
	if result := database.DB.First(&owner, userID); result.Error != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	members := []models.User{owner}
	for _, memberID := range input.Members {
		if memberID == userID {
			continue
		}
		var member models.User
		if result := database.DB.First(&member, memberID); result.Error != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unknown member id",
			})
		}
		members = append(members, member)
	}

	group := models.Group{
		Name:        input.Name,
		Description: input.Description,
		OwnerID:     userID,
		Members:     members,
	}

	if result := database.DB.Create(&group); result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create group",
		})
	}

	services.LogAudit(userID, middleware.GetUsername(c), models.AuditActionGroupCreate, &group.ID, nil, group.Name, c.IP())

	return c.Status(fiber.StatusCreated).JSON(group.ToResponse())
}

// GetGroup returns a single group with its members
func GetGroup(c *fiber.Ctx) error {
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

	return c.JSON(group.ToResponse())
}

// UpdateGroup renames a group (owner only)
func UpdateGroup(c *fiber.Ctx) error {
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

	if !group.IsOwner(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the group owner can update the group",
		})
	}

	var input models.GroupInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if input.Name != "" {
		group.Name = input.Name
	}
	if input.Description != "" {
		group.Description = input.Description
	}

	if result := database.DB.Save(group); result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update group",
		})
	}

	services.LogAudit(userID, middleware.GetUsername(c), models.AuditActionGroupUpdate, &group.ID, nil, group.Name, c.IP())

	return c.JSON(group.ToResponse())
}

// DeleteGroup disbands a group and its polls (owner only)
func DeleteGroup(c *fiber.Ctx) error {
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

	if !group.IsOwner(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the group owner can delete the group",
		})
	}

	database.DB.Where("group_id = ?", groupID).Delete(&models.Poll{})

	if result := database.DB.Select("Members").Delete(group); result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete group",
		})
	}

	services.LogAudit(userID, middleware.GetUsername(c), models.AuditActionGroupDelete, &groupID, nil, group.Name, c.IP())

	return c.SendStatus(fiber.StatusNoContent)
}

// JoinGroup adds the current user to the member set
func JoinGroup(c *fiber.Ctx) error {
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

	if group.IsMember(userID) {
		return c.JSON(fiber.Map{"message": "Already a member"})
	}

	var user models.User
	if result := database.DB.First(&user, userID); result.Error != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	if err := database.DB.Model(group).Association("Members").Append(&user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to join group",
		})
	}

	services.LogAudit(userID, middleware.GetUsername(c), models.AuditActionGroupJoin, &groupID, nil, "", c.IP())

	return c.JSON(fiber.Map{"message": "Joined the group"})
}

// LeaveGroup removes the current user from the member set. The owner
// cannot leave: the owner must stay in the member set.
func LeaveGroup(c *fiber.Ctx) error {
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

	if group.IsOwner(userID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "The owner cannot leave the group",
		})
	}
	if !group.IsMember(userID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Not a member of this group",
		})
	}

	if err := database.DB.Model(group).Association("Members").Delete(&models.User{ID: userID}); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to leave group",
		})
	}

	services.LogAudit(userID, middleware.GetUsername(c), models.AuditActionGroupLeave, &groupID, nil, "", c.IP())

	return c.JSON(fiber.Map{"message": "Left the group"})
}

type MemberInput struct {
	UserID uint `json:"user_id"`
}

// AddMember adds another user to the group; any member may invite.
func AddMember(c *fiber.Ctx) error {
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

	var input MemberInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var member models.User
	if result := database.DB.First(&member, input.UserID); result.Error != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	if group.IsMember(member.ID) {
		return c.JSON(fiber.Map{"message": "Already a member"})
	}

	if err := database.DB.Model(group).Association("Members").Append(&member); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add member",
		})
	}

	services.LogAudit(userID, middleware.GetUsername(c), models.AuditActionMemberAdd, &groupID, nil, member.Username, c.IP())

	return c.JSON(fiber.Map{"message": "Member added"})
}

// RemoveMember removes a user from the group (owner only). Removing
// the owner is rejected to keep the owner inside the member set.
func RemoveMember(c *fiber.Ctx) error {
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

	if !group.IsOwner(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the group owner can remove members",
		})
	}

	var input MemberInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if input.UserID == group.OwnerID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "The owner cannot be removed from the group",
		})
	}
	if !group.IsMember(input.UserID) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User is not a member",
		})
	}

	if err := database.DB.Model(group).Association("Members").Delete(&models.User{ID: input.UserID}); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to remove member",
		})
	}

	services.LogAudit(userID, middleware.GetUsername(c), models.AuditActionMemberRemove, &groupID, nil, "", c.IP())

	return c.JSON(fiber.Map{"message": "Member removed"})
}
