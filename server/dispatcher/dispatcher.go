// Package dispatcher turns guest records into WhatsApp invitations:
// it renders the invitation template, hands it to the configured
// messaging provider and records delivery on the guest.
package dispatcher

import (
	"fmt"

	"github.com/sindi/umshado/server/logger"
	"github.com/sindi/umshado/server/messaging"
	"github.com/sindi/umshado/server/models"
	"github.com/sindi/umshado/shared"
)

const DeliverInviteHandlerName = "deliver_invite"

var logg = logger.NewLogger()

type InviteDispatcher struct {
	provider messaging.Provider
	wedding  shared.WeddingConfig
}

func NewInviteDispatcher(provider messaging.Provider, wedding shared.WeddingConfig) *InviteDispatcher {
	return &InviteDispatcher{provider: provider, wedding: wedding}
}

func (dispatcher *InviteDispatcher) ProviderName() string {
	if dispatcher.provider == nil {
		return ""
	}

	return dispatcher.provider.Name()
}

// InviteMessage renders the invitation sent to a guest. The password is
// the guest's login code for the RSVP page.
func (dispatcher *InviteDispatcher) InviteMessage(guestName, password string) string {
	return fmt.Sprintf(
		"Hi %v! 💍\n\n"+
			"You are invited to the wedding of %v.\n\n"+
			"📅 %v\n"+
			"📍 %v\n\n"+
			"Please RSVP at %v using the code %v",
		guestName, dispatcher.wedding.CoupleNames, dispatcher.wedding.Date,
		dispatcher.wedding.Venue, dispatcher.wedding.RSVPLink, password)
}

// SendInvite delivers the invitation for one guest & flips invite_sent
// on provider-confirmed success. A failed delivery leaves the guest
// record untouched.
func (dispatcher *InviteDispatcher) SendInvite(guest *models.Guest) error {
	if dispatcher.provider == nil {
		return fmt.Errorf("no messaging provider configured")
	}

	password, err := models.FindGuestPassword(guest.Phone)
	if err != nil {
		return fmt.Errorf("unable to load invite code for guest %v: %v", guest.ID, err)
	}

	err = dispatcher.provider.Send(guest.Phone, dispatcher.InviteMessage(guest.Name, password))
	if err != nil {
		logg.Errorf("invite delivery via %v failed for guest %v: %v",
			dispatcher.provider.Name(), guest.ID, err)
		return err
	}

	if err := guest.MarkInviteSent(); err != nil {
		return fmt.Errorf("invite delivered but unable to record it for guest %v: %v", guest.ID, err)
	}

	logg.Infof("invite delivered to guest %v via %v", guest.ID, dispatcher.provider.Name())
	return nil
}

// SendPendingInvites delivers to every guest still awaiting an invite &
// partitions the guests by outcome.
func (dispatcher *InviteDispatcher) SendPendingInvites() (sent []string, failed []string, err error) {
	guests, err := models.GuestsAwaitingInvite()
	if err != nil {
		return nil, nil, err
	}

	sent = []string{}
	failed = []string{}
	for i := range guests {
		if err := dispatcher.SendInvite(&guests[i]); err != nil {
			failed = append(failed, guests[i].Name)
			continue
		}
		sent = append(sent, guests[i].Name)
	}

	return sent, failed, nil
}

// DeliverInviteJobHandler adapts SendInvite to the job-queue handler
// contract, for retried background delivery.
func (dispatcher *InviteDispatcher) DeliverInviteJobHandler(args map[string]interface{}) error {
	guestID, ok := args["guest_id"]
	if !ok {
		return fmt.Errorf("%v job is missing the guest_id arg", DeliverInviteHandlerName)
	}

	guest, err := models.FindGuestBy("id", fmt.Sprintf("%v", guestID))
	if err != nil {
		return err
	}

	// The guest may have been invited via the synchronous route while
	// this job waited in queue.
	if guest.InviteSent {
		logg.Infof("invite already delivered to guest %v, skipping", guest.ID)
		return nil
	}

	return dispatcher.SendInvite(guest)
}
