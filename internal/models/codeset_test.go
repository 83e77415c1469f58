package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeSet(t *testing.T) {
	t.Run("add keeps insertion order and drops duplicates", func(t *testing.T) {
		set := CodeSet{}
		set.Add("AAA111")
		set.Add("BBB222")
		set.Add("AAA111")
		set.Add("  CCC333  ")
		set.Add("")
		set.Add("   ")

		assert.Equal(t, CodeSet{"AAA111", "BBB222", "CCC333"}, set)
	})

	t.Run("remove is exact and keeps order", func(t *testing.T) {
		set := CodeSet{"AAA111", "BBB222", "CCC333"}
		set.Remove("BBB222")
		assert.Equal(t, CodeSet{"AAA111", "CCC333"}, set)

		set.Remove("ZZZ999")
		assert.Equal(t, CodeSet{"AAA111", "CCC333"}, set)
	})

	t.Run("contains", func(t *testing.T) {
		set := CodeSet{"AAA111"}
		assert.True(t, set.Contains("AAA111"))
		assert.False(t, set.Contains("aaa111"))
		assert.False(t, set.Contains(""))
	})

	t.Run("clone is independent", func(t *testing.T) {
		set := CodeSet{"AAA111"}
		clone := set.Clone()
		clone.Add("BBB222")

		assert.Equal(t, CodeSet{"AAA111"}, set)
		assert.Equal(t, CodeSet{"AAA111", "BBB222"}, clone)
	})
}

func TestShoppingListMembers(t *testing.T) {
	list := &ShoppingList{
		ListCode:     "AAA111",
		CreatorEmail: "creator@example.com",
		MemberEmails: []string{"creator@example.com"},
	}

	list.AddMember("friend@example.com")
	list.AddMember("friend@example.com")
	assert.Equal(t, []string{"creator@example.com", "friend@example.com"}, list.MemberEmails)
	assert.Equal(t, 2, list.MemberCount())

	assert.True(t, list.IsMember("friend@example.com"))
	assert.False(t, list.IsMember("Friend@example.com"))
	assert.True(t, list.IsCreator("creator@example.com"))

	list.RemoveMember("friend@example.com")
	assert.Equal(t, []string{"creator@example.com"}, list.MemberEmails)
}

func TestProductTotalPrice(t *testing.T) {
	product := &Product{Quantity: 3, Price: 2.5}
	assert.InDelta(t, 7.5, product.TotalPrice(), 0.0001)
}
