package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/esb/quicklist/internal/models"
)

func TestCanManageList(t *testing.T) {
	list := &models.ShoppingList{
		ListCode:     "AAA111",
		CreatorEmail: "creator@example.com",
		MemberEmails: []string{"creator@example.com", "member@example.com"},
	}

	creator := &models.User{Email: "creator@example.com", Role: models.RoleUser}
	member := &models.User{Email: "member@example.com", Role: models.RoleUser}
	admin := &models.User{Email: "admin@example.com", Role: models.RoleAdmin}

	assert.True(t, CanManageList(creator, list))
	assert.False(t, CanManageList(member, list))
	assert.True(t, CanManageList(admin, list), "admins pass the guard without membership")
	assert.False(t, CanManageList(nil, list))
	assert.False(t, CanManageList(creator, nil))
}

func TestCanContributeToList(t *testing.T) {
	list := &models.ShoppingList{
		ListCode:     "AAA111",
		CreatorEmail: "creator@example.com",
		MemberEmails: []string{"creator@example.com", "member@example.com"},
	}

	member := &models.User{Email: "member@example.com", Role: models.RoleUser}
	outsider := &models.User{Email: "outsider@example.com", Role: models.RoleUser}
	admin := &models.User{Email: "admin@example.com", Role: models.RoleAdmin}

	assert.True(t, CanContributeToList(member, list))
	assert.False(t, CanContributeToList(outsider, list))
	assert.True(t, CanContributeToList(admin, list))
}
