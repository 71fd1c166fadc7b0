//go:generate go tool mockgen -source=accounts_controller.go -destination=accounts_controller_mock_test.go -package=accounts
package accounts

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/DIMO-Network/server-garage/pkg/richerrors"
	"github.com/DIMO-Network/webhook-router/internal/services/accountsrepo"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

const consolePath = "/accounts"

//go:embed console.html
var consoleHTML string

var consoleTemplate = template.Must(template.New("console").Parse(consoleHTML))

// Store persists account routing records.
type Store interface {
	List(ctx context.Context) ([]accountsrepo.Account, error)
	Save(ctx context.Context, account accountsrepo.Account) error
	Delete(ctx context.Context, phoneID string) error
}

// LogSource exposes recent log lines to the console.
type LogSource interface {
	Entries() []string
}

// AccountsController serves the HTML management console.
type AccountsController struct {
	store Store
	logs  LogSource
}

type consoleData struct {
	Accounts []accountsrepo.Account
	Logs     []string
}

// NewAccountsController creates a new AccountsController.
func NewAccountsController(store Store, logs LogSource) *AccountsController {
	return &AccountsController{
		store: store,
		logs:  logs,
	}
}

// Index redirects to the console.
func (a *AccountsController) Index(c *fiber.Ctx) error {
	zerolog.Ctx(c.UserContext()).Info().Str("path", c.Path()).Msg("UI request")
	setNoCache(c)
	return c.Redirect(consolePath, fiber.StatusFound)
}

// Console renders every account plus the recent log lines.
func (a *AccountsController) Console(c *fiber.Ctx) error {
	accounts, err := a.store.List(c.UserContext())
	if err != nil {
		return richerrors.Error{
			ExternalMsg: "Failed to load accounts",
			Err:         fmt.Errorf("failed to list accounts: %w", err),
			Code:        fiber.StatusInternalServerError,
		}
	}

	var buf bytes.Buffer
	if err := consoleTemplate.Execute(&buf, consoleData{Accounts: accounts, Logs: a.logs.Entries()}); err != nil {
		return fmt.Errorf("failed to render console: %w", err)
	}

	setNoCache(c)
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

// SaveAccount creates or replaces the account described by the form.
// An empty phoneid is ignored.
func (a *AccountsController) SaveAccount(c *fiber.Ctx) error {
	logger := zerolog.Ctx(c.UserContext())
	acc := accountsrepo.Account{
		AppID:              formValue(c, "appid"),
		PhoneID:            formValue(c, "phoneid"),
		Secret:             formValue(c, "secret"),
		Token:              formValue(c, "token"),
		DestinationWebhook: formValue(c, "n8n_webhook"),
	}
	logger.Info().
		Str("app_id", acc.AppID).
		Str("phone_id", acc.PhoneID).
		Str("secret", mask(acc.Secret)).
		Str("token", mask(acc.Token)).
		Str("destination", acc.DestinationWebhook).
		Msg("Received account form")

	if acc.PhoneID == "" {
		return c.Redirect(consolePath, fiber.StatusFound)
	}

	if err := a.store.Save(c.UserContext(), acc); err != nil {
		if accountsrepo.IsValidationError(err) {
			logger.Warn().Err(err).Str("phone_id", acc.PhoneID).Msg("Account rejected")
			return c.Redirect(consolePath, fiber.StatusFound)
		}
		return richerrors.Error{
			ExternalMsg: "Failed to save account",
			Err:         err,
			Code:        fiber.StatusInternalServerError,
		}
	}
	logger.Info().Str("phone_id", acc.PhoneID).Msg("Account saved")
	return c.Redirect(consolePath, fiber.StatusFound)
}

// DeleteAccount removes the account named by the phoneid form field.
func (a *AccountsController) DeleteAccount(c *fiber.Ctx) error {
	logger := zerolog.Ctx(c.UserContext())
	phoneID := formValue(c, "phoneid")
	logger.Info().Str("phone_id", phoneID).Msg("Received account delete")

	if phoneID == "" {
		return c.Redirect(consolePath, fiber.StatusFound)
	}

	if err := a.store.Delete(c.UserContext(), phoneID); err != nil {
		if accountsrepo.IsValidationError(err) {
			logger.Warn().Err(err).Str("phone_id", phoneID).Msg("Account delete rejected")
			return c.Redirect(consolePath, fiber.StatusFound)
		}
		return richerrors.Error{
			ExternalMsg: "Failed to delete account",
			Err:         err,
			Code:        fiber.StatusInternalServerError,
		}
	}
	logger.Info().Str("phone_id", phoneID).Msg("Account deleted")
	return c.Redirect(consolePath, fiber.StatusFound)
}

func formValue(c *fiber.Ctx, key string) string {
	return strings.TrimSpace(c.FormValue(key))
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}

func setNoCache(c *fiber.Ctx) {
	c.Set(fiber.HeaderCacheControl, "no-store, no-cache, must-revalidate, max-age=0")
	c.Set(fiber.HeaderPragma, "no-cache")
	c.Set(fiber.HeaderExpires, "0")
}
