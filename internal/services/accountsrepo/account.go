package accountsrepo

import (
	"context"
	"fmt"
	"strings"
)

// Account is the routing record of a single tenant.
// JSON keys match the config_<phoneid>.json files written by earlier deployments.
type Account struct {
	// AppID is informational only.
	AppID string `json:"appid"`
	// PhoneID is the platform phone-number identifier and the unique key of the record.
	PhoneID string `json:"phoneid"`
	// Secret is stored but not used for routing.
	Secret string `json:"secret"`
	// Token is stored but not used for routing. It is unrelated to the handshake verify token.
	Token string `json:"token"`
	// DestinationWebhook receives forwarded events. Empty means events are dropped.
	DestinationWebhook string `json:"n8n_webhook"`
}

// Store persists accounts keyed by PhoneID.
type Store interface {
	List(ctx context.Context) ([]Account, error)
	Save(ctx context.Context, account Account) error
	Delete(ctx context.Context, phoneID string) error
}

// Validate checks that the account can be persisted under its PhoneID.
func (a Account) Validate() error {
	return validatePhoneID(a.PhoneID)
}

func validatePhoneID(phoneID string) error {
	if phoneID == "" {
		return fmt.Errorf("%w: phoneid is required", ValidationError)
	}
	if phoneID == "." || phoneID == ".." || strings.ContainsAny(phoneID, `/\`) {
		return fmt.Errorf("%w: phoneid '%s' contains path characters", ValidationError, phoneID)
	}
	return nil
}

// FindByPhoneID returns the first account whose PhoneID equals phoneID.
// An empty phoneID never matches, so events without a routing key cannot
// reach legacy records that have no phoneid.
func FindByPhoneID(accounts []Account, phoneID string) (Account, bool) {
	if phoneID == "" {
		return Account{}, false
	}
	for _, acc := range accounts {
		if acc.PhoneID == phoneID {
			return acc, true
		}
	}
	return Account{}, false
}
