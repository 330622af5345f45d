package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/Alex20563/Where2Go/database"
	"github.com/Alex20563/Where2Go/models"
)

func TestCreateGroupOwnerIsMember(t *testing.T) {
	app := setupApp(t)
	_, token := createUser(t, "alice")
	member, _ := createUser(t, "bob")

	resp := doJSON(t, app, "POST", "/api/groups/", token, fiber.Map{
		"name":    "lunch crew",
		"members": []uint{member.ID},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var created models.GroupResponse
	decodeBody(t, resp, &created)
	if len(created.Members) != 2 {
		t.Fatalf("members = %d, want 2", len(created.Members))
	}

	ownerListed := false
	for _, m := range created.Members {
		if m.ID == created.OwnerID {
			ownerListed = true
		}
	}
	if !ownerListed {
		t.Error("owner missing from member set")
	}
}

func TestCreateGroupValidation(t *testing.T) {
	app := setupApp(t)
	_, token := createUser(t, "alice")

	resp := doJSON(t, app, "POST", "/api/groups/", token, fiber.Map{"name": ""})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty name status = %d, want 400", resp.StatusCode)
	}

	resp = doJSON(t, app, "POST", "/api/groups/", token, fiber.Map{
		"name":    "ghosts",
		"members": []uint{9999},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown member status = %d, want 400", resp.StatusCode)
	}
}

func TestJoinAndLeaveGroup(t *testing.T) {
	app := setupApp(t)
	owner, ownerToken := createUser(t, "alice")
	_, joinerToken := createUser(t, "bob")
	group := createGroup(t, owner)

	joinPath := fmt.Sprintf("/api/groups/%d/join", group.ID)
	leavePath := fmt.Sprintf("/api/groups/%d/leave", group.ID)

	resp := doJSON(t, app, "POST", joinPath, joinerToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join status = %d, want 200", resp.StatusCode)
	}

	var reloaded models.Group
	database.DB.Preload("Members").First(&reloaded, group.ID)
	if len(reloaded.Members) != 2 {
		t.Fatalf("members after join = %d, want 2", len(reloaded.Members))
	}

	resp = doJSON(t, app, "POST", leavePath, joinerToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("leave status = %d, want 200", resp.StatusCode)
	}

	// The owner must stay in the member set.
	resp = doJSON(t, app, "POST", leavePath, ownerToken, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("owner leave status = %d, want 400", resp.StatusCode)
	}
}

func TestMemberManagement(t *testing.T) {
	app := setupApp(t)
	owner, ownerToken := createUser(t, "alice")
	member, memberToken := createUser(t, "bob")
	invited, _ := createUser(t, "carol")
	group := createGroup(t, owner, member)

	membersPath := fmt.Sprintf("/api/groups/%d/members", group.ID)

	// Any member may invite.
	resp := doJSON(t, app, "POST", membersPath, memberToken, fiber.Map{"user_id": invited.ID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add member status = %d, want 200", resp.StatusCode)
	}

	// Only the owner removes.
	resp = doJSON(t, app, "DELETE", membersPath, memberToken, fiber.Map{"user_id": invited.ID})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("member remove status = %d, want 403", resp.StatusCode)
	}
	resp = doJSON(t, app, "DELETE", membersPath, ownerToken, fiber.Map{"user_id": invited.ID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner remove status = %d, want 200", resp.StatusCode)
	}

	// Removing the owner would break the owner-in-members invariant.
	resp = doJSON(t, app, "DELETE", membersPath, ownerToken, fiber.Map{"user_id": owner.ID})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("remove owner status = %d, want 400", resp.StatusCode)
	}
}

func TestUpdateGroupOwnerOnly(t *testing.T) {
	app := setupApp(t)
	owner, ownerToken := createUser(t, "alice")
	member, memberToken := createUser(t, "bob")
	group := createGroup(t, owner, member)

	path := fmt.Sprintf("/api/groups/%d", group.ID)

	resp := doJSON(t, app, "PUT", path, memberToken, fiber.Map{"name": "renamed"})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("member update status = %d, want 403", resp.StatusCode)
	}

	resp = doJSON(t, app, "PUT", path, ownerToken, fiber.Map{"name": "renamed"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner update status = %d, want 200", resp.StatusCode)
	}

	var reloaded models.Group
	database.DB.First(&reloaded, group.ID)
	if reloaded.Name != "renamed" {
		t.Errorf("name = %q, want renamed", reloaded.Name)
	}
}

func TestDeleteGroupOwnerOnly(t *testing.T) {
	app := setupApp(t)
	owner, ownerToken := createUser(t, "alice")
	member, memberToken := createUser(t, "bob")
	group := createGroup(t, owner, member)

	path := fmt.Sprintf("/api/groups/%d", group.ID)

	resp := doJSON(t, app, "DELETE", path, memberToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("member delete status = %d, want 403", resp.StatusCode)
	}

	resp = doJSON(t, app, "DELETE", path, ownerToken, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("owner delete status = %d, want 204", resp.StatusCode)
	}

	resp = doJSON(t, app, "GET", path, ownerToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("deleted group get status = %d, want 404", resp.StatusCode)
	}
}

func TestListGroupsOnlyMine(t *testing.T) {
	app := setupApp(t)
	owner, _ := createUser(t, "alice")
	other, otherToken := createUser(t, "bob")
	createGroup(t, owner)
	createGroup(t, other)

	resp := doJSON(t, app, "GET", "/api/groups/", otherToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var groups []models.GroupResponse
	decodeBody(t, resp, &groups)
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(groups))
	}
	if groups[0].OwnerID != other.ID {
		t.Errorf("listed someone else's group: %+v", groups[0])
	}
}
