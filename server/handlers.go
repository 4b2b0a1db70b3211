package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sindi/umshado/server/auth"
	"github.com/sindi/umshado/server/auth/key"
	"github.com/sindi/umshado/server/dispatcher"
	"github.com/sindi/umshado/server/models"
	"github.com/sindi/umshado/server/work"
	"github.com/sindi/umshado/utils"
	"gorm.io/gorm"
)

type ResponsePayload struct {
	Errors  []string    `json:"errors,omitempty"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

type addGuestParams struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"required"`
}

type loginParams struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type rsvpParams struct {
	Phone  string `json:"phone" validate:"required"`
	Status string `json:"status" validate:"required,rsvp_reply"`
}

type guestSummary struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	InviteSent bool   `json:"invite_sent"`
	RSVPStatus string `json:"rsvp_status"`
}

func addGuest(rw http.ResponseWriter, r *http.Request) {
	params := addGuestParams{}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid request body"}}, http.StatusBadRequest)
		return
	}

	if errs := validate.Struct(params); errs != nil {
		writeResponse(rw, ResponsePayload{Errors: strings.Split(errs.Error(), "\n")}, http.StatusBadRequest)
		return
	}

	guest := models.Guest{
		Name:     strings.TrimSpace(params.Name),
		Phone:    normalizedPhone(params.Phone),
		Password: auth.GeneratePassword(),
	}

	err := models.CreateGuest(&guest)
	if errors.Is(err, models.ErrDuplicateGuest) {
		writeResponse(rw, ResponsePayload{Errors: []string{"Guest already exists"}}, http.StatusConflict)
		return
	}
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	// The only response that ever carries the guest's password
	writeResponse(rw, ResponsePayload{Success: true, Data: map[string]interface{}{
		"guest":    toGuestSummary(&guest),
		"password": guest.Password,
	}}, http.StatusCreated)
}

func listGuests(rw http.ResponseWriter, r *http.Request) {
	guests, paging, err := models.FetchGuests(pageParam(r))
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	summaries := []guestSummary{}
	for i := range guests {
		summaries = append(summaries, toGuestSummary(&guests[i]))
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: map[string]interface{}{
		"guests": summaries,
		"paging": paging,
	}})
}

func logIn(rw http.ResponseWriter, r *http.Request) {
	params := loginParams{}
	json.NewDecoder(r.Body).Decode(&params)

	phoneNumber := normalizedPhone(params.Phone)

	password, err := models.FindGuestPassword(phoneNumber)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	if password == "" || subtle.ConstantTimeCompare([]byte(password), []byte(params.Password)) != 1 {
		writeResponse(rw, ResponsePayload{Errors: []string{"phone/password is invalid"}}, http.StatusUnauthorized)
		return
	}

	guest, err := models.FindGuestBy("phone", phoneNumber)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	token, err := auth.EncodeJWT(auth.UmshadoTokenClaims{
		Name:  guest.Name,
		Phone: guest.Phone,
	}, authKeyPair)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: map[string]interface{}{
		"guest": toGuestSummary(guest),
		"token": token,
	}})
}

func adminLogIn(rw http.ResponseWriter, r *http.Request) {
	if serverConfig.Umshado.AdminPasswordHash == "" {
		writeResponse(rw, ResponsePayload{Errors: []string{"admin login is not configured"}}, http.StatusNotFound)
		return
	}

	params := loginParams{}
	json.NewDecoder(r.Body).Decode(&params)

	if !auth.CheckPasswordHash(params.Password, serverConfig.Umshado.AdminPasswordHash) {
		writeResponse(rw, ResponsePayload{Errors: []string{"password is invalid"}}, http.StatusUnauthorized)
		return
	}

	token, err := auth.EncodeJWT(auth.UmshadoTokenClaims{IsAdmin: true}, authKeyPair)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: map[string]interface{}{"token": token}})
}

func updateRSVP(rw http.ResponseWriter, r *http.Request) {
	params := rsvpParams{}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid request body"}}, http.StatusBadRequest)
		return
	}

	if errs := validate.Struct(params); errs != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"Invalid data"}}, http.StatusBadRequest)
		return
	}

	guest, err := models.FindGuestBy("phone", normalizedPhone(params.Phone))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{"Guest not found"}}, http.StatusNotFound)
		return
	}
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	if err := guest.UpdateRSVPStatus(params.Status); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: toGuestSummary(guest)})
}

func sendInvite(rw http.ResponseWriter, r *http.Request) {
	guest, err := models.FindGuestBy("id", mux.Vars(r)["id"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{"Guest not found"}}, http.StatusNotFound)
		return
	}
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	if err := inviteDispatcher.SendInvite(guest); err != nil {
		writeResponse(rw, ResponsePayload{
			Errors: []string{fmt.Sprintf("delivery via %v failed: %v", inviteDispatcher.ProviderName(), err)},
		}, http.StatusBadGateway)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: toGuestSummary(guest)})
}

// sendInviteWithDelay queues delivery instead of holding the caller's
// connection: workers take up to 3 attempts, each retry spaced past the
// provider throttle window. Callers track progress via the job stats.
func sendInviteWithDelay(rw http.ResponseWriter, r *http.Request) {
	guest, err := models.FindGuestBy("id", mux.Vars(r)["id"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{"Guest not found"}}, http.StatusNotFound)
		return
	}
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	jobName := fmt.Sprintf("deliver_invite_guest_%v", guest.ID)
	err = workerPool.Perform(work.JobParams{
		Name:    jobName,
		Handler: dispatcher.DeliverInviteHandlerName,
		Unique:  true,
		Args:    map[string]interface{}{"guest_id": guest.ID},
	})
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: map[string]interface{}{
		"job": jobName,
	}}, http.StatusAccepted)
}

func sendAllInvites(rw http.ResponseWriter, r *http.Request) {
	sent, failed, err := inviteDispatcher.SendPendingInvites()
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: map[string]interface{}{
		"sent":   sent,
		"failed": failed,
	}})
}

func deleteGuest(rw http.ResponseWriter, r *http.Request) {
	err := models.DeleteGuest(mux.Vars(r)["id"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{"Guest not found"}}, http.StatusNotFound)
		return
	}
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

func deleteAllGuests(rw http.ResponseWriter, r *http.Request) {
	deleted, err := models.DeleteAllGuests()
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: map[string]interface{}{"deleted": deleted}})
}

func deleteTestGuests(rw http.ResponseWriter, r *http.Request) {
	deleted, err := models.DeleteTestGuests()
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: map[string]interface{}{"deleted": deleted}})
}

// testWhatsapp is a configuration probe: it reports the active provider
// without touching guest data or sending anything.
func testWhatsapp(rw http.ResponseWriter, r *http.Request) {
	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: map[string]interface{}{
		"provider":   inviteDispatcher.ProviderName(),
		"configured": inviteDispatcher.ProviderName() != "",
	}})
}

func testWhatsappDetailed(rw http.ResponseWriter, r *http.Request) {
	stats, err := models.CurrentJobsStats()
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	providers := serverConfig.Providers
	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: map[string]interface{}{
		"provider":  inviteDispatcher.ProviderName(),
		"rsvp_link": serverConfig.Umshado.Wedding.RSVPLink,
		"credentials": map[string]string{
			"authkey_api_key":    utils.MaskSecret(providers.Authkey.ApiKey),
			"wasender_api_token": utils.MaskSecret(providers.Wasender.ApiToken),
			"twilio_account_sid": utils.MaskSecret(providers.Twilio.AccountSid),
		},
		"delivery_jobs": stats,
	}})
}

func jobStats(rw http.ResponseWriter, r *http.Request) {
	stats, err := models.CurrentJobsStats()
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: stats})
}

func jwks(rw http.ResponseWriter, r *http.Request) {
	keyPairJWK, err := authKeyPair.JWK()
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(key.ExportJWKAsJWKS(keyPairJWK))
}

func toGuestSummary(guest *models.Guest) guestSummary {
	return guestSummary{
		ID:         guest.ID,
		Name:       guest.Name,
		Phone:      guest.Phone,
		InviteSent: guest.InviteSent,
		RSVPStatus: guest.RSVPStatus,
	}
}
