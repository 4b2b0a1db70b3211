package models

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

const (
	PENDING_RSVP  = "pending"
	ACCEPTED_RSVP = "accepted"
	DECLINED_RSVP = "declined"
)

// Test-data cleanup heuristics: guests seeded by smoke tests carry a
// "Test" name prefix or a throwaway 00000 phone block.
const (
	testGuestNamePattern  = "Test%"
	testGuestPhonePattern = "%00000%"
)

var ErrDuplicateGuest = errors.New("a guest with this phone number already exists")

var allGuestFieldsExceptPassword = []string{
	"id",
	"name",
	"phone",
	"invite_sent",
	"rsvp_status",
	"created_at",
	"updated_at",
}

// Guest is a wedding invitee. Phone is the natural key: it is stored
// normalized and backs both duplicate detection and login.
type Guest struct {
	BaseModel
	Name       string `json:"name" validate:"required"`
	Phone      string `json:"phone" validate:"required,e164" gorm:"not null;unique"`
	Password   string `json:"password,omitempty" gorm:"not null"`
	InviteSent bool   `json:"invite_sent" gorm:"default:false"`
	RSVPStatus string `json:"rsvp_status" gorm:"not null;default:pending"`
}

// CreateGuest persists a new guest. The password doubles as the invite
// code embedded in every invitation message, so it is stored as
// generated - it is simply never returned by the list or login routes.
// A phone collision surfaces as ErrDuplicateGuest.
func CreateGuest(guest *Guest) error {
	existing := Guest{}
	err := db.Select("id").First(&existing, "phone = ?", guest.Phone).Error
	if err == nil {
		return ErrDuplicateGuest
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	// The unique index on phone backstops concurrent adds that pass
	// the pre-check at the same time.
	return db.Create(guest).Error
}

func FindGuestBy(field string, value interface{}) (*Guest, error) {
	guest := Guest{}
	err := db.Select(allGuestFieldsExceptPassword).First(&guest, fmt.Sprintf("%v = ?", field), value).Error
	if err != nil {
		return nil, err
	}

	return &guest, nil
}

func FindGuestPassword(phone string) (string, error) {
	guest := Guest{}
	err := db.Select("Password").First(&guest, "phone = ?", phone).Error
	if err != nil {
		return "", err
	}

	return guest.Password, nil
}

func FetchGuests(page int) ([]Guest, *Paging, error) {
	var total int64
	guests := []Guest{}

	err := db.Model(&Guest{}).Count(&total).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	err = db.Scopes(paginate(page, MAX_PAGE_SIZE)).
		Select(allGuestFieldsExceptPassword).Order("guests.id asc").Find(&guests).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	return guests, newPaging(int64(page), MAX_PAGE_SIZE, total), nil
}

// GuestsAwaitingInvite returns every guest whose invitation has not yet
// been confirmed delivered.
func GuestsAwaitingInvite() ([]Guest, error) {
	guests := []Guest{}

	err := db.Select(allGuestFieldsExceptPassword).
		Where("invite_sent = ?", false).Find(&guests).Error
	if err != nil {
		return nil, err
	}

	return guests, nil
}

// MarkInviteSent flips invite_sent to true. The flag is write-once: no
// endpoint resets it short of deleting the guest.
func (guest *Guest) MarkInviteSent() error {
	err := db.Model(&Guest{}).Where("id = ?", guest.ID).Update("invite_sent", true).Error
	if err != nil {
		return err
	}

	guest.InviteSent = true
	return nil
}

func (guest *Guest) UpdateRSVPStatus(status string) error {
	if status != ACCEPTED_RSVP && status != DECLINED_RSVP && status != PENDING_RSVP {
		return fmt.Errorf("invalid rsvp status: %v", status)
	}

	err := db.Model(&Guest{}).Where("id = ?", guest.ID).Update("rsvp_status", status).Error
	if err != nil {
		return err
	}

	guest.RSVPStatus = status
	return nil
}

func DeleteGuest(id interface{}) error {
	result := db.Delete(&Guest{}, id)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func DeleteAllGuests() (int64, error) {
	result := db.Where("1 = 1").Delete(&Guest{})
	return result.RowsAffected, result.Error
}

func DeleteTestGuests() (int64, error) {
	result := db.Where("name LIKE ? OR phone LIKE ?", testGuestNamePattern, testGuestPhonePattern).
		Delete(&Guest{})
	return result.RowsAffected, result.Error
}
