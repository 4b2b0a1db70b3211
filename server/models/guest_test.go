package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestCreateGuest(t *testing.T) {
	InitializeTestDb()

	guest := &Guest{Name: "Jane", Phone: "+27821234567", Password: "QW3RTY12"}
	err := CreateGuest(guest)
	assert.Nil(t, err, "Should create 'Jane' record")
	assert.NotZero(t, guest.ID)

	t.Run("Should keep the invite code recoverable for the message template", func(t *testing.T) {
		stored, err := FindGuestPassword("+27821234567")
		assert.Nil(t, err)
		assert.Equal(t, "QW3RTY12", stored)
	})

	t.Run("Should never include the password in guest lookups", func(t *testing.T) {
		fetched, err := FindGuestBy("phone", "+27821234567")
		assert.Nil(t, err)
		assert.Empty(t, fetched.Password)
	})

	t.Run("Should reject a second guest with the same phone", func(t *testing.T) {
		err := CreateGuest(&Guest{Name: "Jane Again", Phone: "+27821234567", Password: "ZXCVBN12"})
		assert.ErrorIs(t, err, ErrDuplicateGuest)

		// Existing record is untouched
		existing, err := FindGuestBy("phone", "+27821234567")
		assert.Nil(t, err)
		assert.Equal(t, "Jane", existing.Name)
	})

	t.Run("Should default to a pending rsvp and no invite sent", func(t *testing.T) {
		created, err := FindGuestBy("id", guest.ID)
		assert.Nil(t, err)
		assert.Equal(t, PENDING_RSVP, created.RSVPStatus)
		assert.False(t, created.InviteSent)
	})
}

func TestUpdateRSVPStatus(t *testing.T) {
	InitializeTestDb()

	guest := &Guest{Name: "Sipho", Phone: "+27831234567", Password: "ABCDEF12"}
	assert.Nil(t, CreateGuest(guest))

	t.Run("Should reject a status outside the whitelist", func(t *testing.T) {
		err := guest.UpdateRSVPStatus("maybe")
		assert.NotNil(t, err)

		stored, _ := FindGuestBy("id", guest.ID)
		assert.Equal(t, PENDING_RSVP, stored.RSVPStatus)
	})

	t.Run("Should apply a valid status idempotently", func(t *testing.T) {
		assert.Nil(t, guest.UpdateRSVPStatus(ACCEPTED_RSVP))
		assert.Nil(t, guest.UpdateRSVPStatus(ACCEPTED_RSVP))

		stored, _ := FindGuestBy("id", guest.ID)
		assert.Equal(t, ACCEPTED_RSVP, stored.RSVPStatus)
	})
}

func TestMarkInviteSent(t *testing.T) {
	InitializeTestDb()

	guest := &Guest{Name: "Lerato", Phone: "+27841234567", Password: "ABCDEF12"}
	assert.Nil(t, CreateGuest(guest))

	assert.Nil(t, guest.MarkInviteSent())

	stored, err := FindGuestBy("id", guest.ID)
	assert.Nil(t, err)
	assert.True(t, stored.InviteSent)

	pending, err := GuestsAwaitingInvite()
	assert.Nil(t, err)
	assert.Empty(t, pending)
}

func TestDeleteGuests(t *testing.T) {
	InitializeTestDb()

	assert.Nil(t, CreateGuest(&Guest{Name: "Thandi", Phone: "+27851234567", Password: "ABCDEF12"}))
	assert.Nil(t, CreateGuest(&Guest{Name: "Test Guest", Phone: "+27861234567", Password: "ABCDEF12"}))
	assert.Nil(t, CreateGuest(&Guest{Name: "Bongani", Phone: "+27000001234", Password: "ABCDEF12"}))

	t.Run("Should delete test guests by name or phone pattern", func(t *testing.T) {
		deleted, err := DeleteTestGuests()
		assert.Nil(t, err)
		assert.Equal(t, int64(2), deleted)

		remaining, _, err := FetchGuests(1)
		assert.Nil(t, err)
		assert.Len(t, remaining, 1)
		assert.Equal(t, "Thandi", remaining[0].Name)
	})

	t.Run("Should return not-found when deleting a missing guest", func(t *testing.T) {
		err := DeleteGuest(9999)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("Should delete every remaining guest", func(t *testing.T) {
		deleted, err := DeleteAllGuests()
		assert.Nil(t, err)
		assert.Equal(t, int64(1), deleted)
	})
}
