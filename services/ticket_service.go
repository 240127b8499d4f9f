package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"participation-system/internal/status"
	"participation-system/models"
	"participation-system/monitoring"
	"participation-system/store"
	"participation-system/utils"
)

// TicketService issues and verifies the scannable join credential: a
// base64url JSON payload plus an HMAC-SHA256 tag, so a presented
// ticket can be trusted without a store round trip.
type TicketService struct {
	store   store.Store
	secret  []byte
	monitor *monitoring.Monitor
}

func NewTicketService(st store.Store, secret string, monitor *monitoring.Monitor) *TicketService {
	return &TicketService{store: st, secret: []byte(secret), monitor: monitor}
}

// Issue returns the credential for a membership, minting and storing
// it on first use. Re-issuing returns the stored token unchanged.
func (s *TicketService) Issue(ctx context.Context, userEventID string) (string, error) {
	var token string
	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		membership, err := tx.UserEventByID(ctx, userEventID)
		if err != nil {
			return err
		}
		if membership.Ticket != "" {
			token = membership.Ticket
			return nil
		}

		ref, err := utils.GenerateCode(4)
		if err != nil {
			return status.Internalf(err, "generate ticket ref")
		}
		token, err = s.Encode(models.TicketClaims{
			UserEventID: membership.ID,
			UserID:      membership.UserID,
			EventID:     membership.EventID,
			Ref:         ref,
			IssuedAt:    time.Now().Unix(),
		})
		if err != nil {
			return err
		}
		membership.Ticket = token
		return tx.UpdateUserEvent(ctx, membership)
	})
	if err != nil {
		return "", err
	}
	if s.monitor != nil {
		s.monitor.TrackTicketIssued()
	}
	return token, nil
}

// Encode serializes claims and appends the integrity tag.
func (s *TicketService) Encode(claims models.TicketClaims) (string, error) {
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", status.Internalf(err, "encode ticket claims")
	}
	return base64.RawURLEncoding.EncodeToString(payload) + "." + s.tag(payload), nil
}

// Verify decodes a presented ticket and checks its tag before trusting
// any field. Every malformation is INVALID_ARGUMENT; no distinction is
// leaked between a bad tag and a bad payload.
func (s *TicketService) Verify(token string) (*models.TicketClaims, error) {
	encodedPayload, encodedTag, ok := strings.Cut(token, ".")
	if !ok {
		return nil, status.InvalidArgumentf("malformed ticket")
	}
	payload, err := base64.RawURLEncoding.DecodeString(encodedPayload)
	if err != nil {
		return nil, status.InvalidArgumentf("malformed ticket")
	}
	if !hmac.Equal([]byte(encodedTag), []byte(s.tag(payload))) {
		return nil, status.InvalidArgumentf("ticket integrity check failed")
	}
	var claims models.TicketClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, status.InvalidArgumentf("malformed ticket")
	}
	if claims.UserEventID == "" || claims.UserID == "" || claims.EventID == "" {
		return nil, status.InvalidArgumentf("ticket is missing identity fields")
	}
	return &claims, nil
}

func (s *TicketService) tag(payload []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
