// Package authz holds the stateless management policy consulted before
// privileged list mutations.
package authz

import "github.com/esb/quicklist/internal/models"

// CanManageList reports whether the user may perform creator-only
// operations on the list: member removal, rename, delete. The list
// creator and any admin pass; ordinary members do not.
func CanManageList(user *models.User, list *models.ShoppingList) bool {
	if user == nil || list == nil {
		return false
	}
	return list.IsCreator(user.Email) || user.IsAdmin()
}

// CanContributeToList reports whether the user may add, update or
// toggle products on the list. Product entry is collaborative: every
// member qualifies, as does an admin.
func CanContributeToList(user *models.User, list *models.ShoppingList) bool {
	if user == nil || list == nil {
		return false
	}
	return list.IsMember(user.Email) || user.IsAdmin()
}
