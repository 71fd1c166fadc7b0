//go:generate go tool mockgen -source=webhook_controller.go -destination=webhook_controller_mock_test.go -package=webhook
package webhook

import (
	"context"
	"crypto/subtle"

	"github.com/DIMO-Network/webhook-router/internal/queue"
	"github.com/DIMO-Network/webhook-router/internal/services/accountsrepo"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

const (
	modeSubscribe      = "subscribe"
	verificationFailed = "Verification failed"
)

// AccountLister loads the current set of routing records.
type AccountLister interface {
	List(ctx context.Context) ([]accountsrepo.Account, error)
}

// Publisher queues forward jobs.
type Publisher interface {
	Publish(topic string, messages ...*message.Message) error
}

// WebhookController answers the platform handshake and routes inbound events.
type WebhookController struct {
	accounts     AccountLister
	publisher    Publisher
	forwardTopic string
	verifyToken  string
}

// NewWebhookController creates a new WebhookController.
func NewWebhookController(accounts AccountLister, publisher Publisher, forwardTopic, verifyToken string) *WebhookController {
	return &WebhookController{
		accounts:     accounts,
		publisher:    publisher,
		forwardTopic: forwardTopic,
		verifyToken:  verifyToken,
	}
}

// Verify godoc
// @Summary      Platform subscription handshake
// @Description  Echoes hub.challenge when hub.mode is "subscribe" and hub.verify_token matches the configured token.
// @Tags         Webhook
// @Produce      plain
// @Param        hub.mode          query  string  true   "Must be subscribe"
// @Param        hub.verify_token  query  string  true   "Shared verify token"
// @Param        hub.challenge     query  string  false  "Value to echo back"
// @Success      200  {string}  string  "The challenge"
// @Failure      403  {string}  string  "Verification failed"
// @Router       /webhook [get]
func (w *WebhookController) Verify(c *fiber.Ctx) error {
	logger := zerolog.Ctx(c.UserContext())
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != modeSubscribe || !w.tokenMatches(token) {
		logger.Info().Str("mode", mode).Msg("Webhook verification failed")
		return c.Status(fiber.StatusForbidden).SendString(verificationFailed)
	}

	logger.Info().Str("challenge", challenge).Msg("Webhook verified")
	return c.Status(fiber.StatusOK).SendString(challenge)
}

// Receive godoc
// @Summary      Inbound platform event
// @Description  Routes the event to the account owning its phone_number_id and queues a forward to that account's destination. Always answers 200 so downstream problems never trigger platform retries.
// @Tags         Webhook
// @Accept       json
// @Success      200
// @Router       /webhook [post]
func (w *WebhookController) Receive(c *fiber.Ctx) error {
	logger := zerolog.Ctx(c.UserContext())
	body := c.Body()
	logger.Info().Str("remote_addr", c.IP()).Int("bytes", len(body)).Msg("Webhook event received")

	w.route(c.UserContext(), logger, body)

	return c.Status(fiber.StatusOK).Send(nil)
}

// route never returns an error; every failure ends as a log line.
func (w *WebhookController) route(ctx context.Context, logger *zerolog.Logger, body []byte) {
	phoneID, ok := RoutingKey(body)
	if !ok {
		logger.Info().Msg("No phone_number_id in event; not forwarding")
		return
	}
	logger.Info().Str("phone_id", phoneID).Msg("Routing event")

	accounts, err := w.accounts.List(ctx)
	if err != nil {
		logger.Error().Err(err).Str("phone_id", phoneID).Msg("Failed to load accounts; not forwarding")
		return
	}

	acc, found := accountsrepo.FindByPhoneID(accounts, phoneID)
	if !found || acc.DestinationWebhook == "" {
		logger.Info().Str("phone_id", phoneID).Msg("No matching account or webhook for this phone_number_id")
		return
	}

	msg, err := queue.NewForwardMessage(queue.ForwardJob{
		PhoneID:     acc.PhoneID,
		Destination: acc.DestinationWebhook,
		Body:        body,
	})
	if err != nil {
		logger.Error().Err(err).Str("phone_id", phoneID).Msg("Failed to build forward job")
		return
	}
	if err := w.publisher.Publish(w.forwardTopic, msg); err != nil {
		logger.Error().Err(err).Str("phone_id", phoneID).Msg("Failed to queue forward")
		return
	}
	logger.Info().
		Str("phone_id", phoneID).
		Str("destination", acc.DestinationWebhook).
		Str("message_id", msg.UUID).
		Msg("Forward queued")
}

func (w *WebhookController) tokenMatches(token string) bool {
	return subtle.ConstantTimeCompare([]byte(token), []byte(w.verifyToken)) == 1
}
