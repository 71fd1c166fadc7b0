package accounts

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/DIMO-Network/server-garage/pkg/fibercommon"
	"github.com/DIMO-Network/webhook-router/internal/services/accountsrepo"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAccountsController_Index(t *testing.T) {
	t.Parallel()

	controller, _, _ := newAccountsControllerAndMocks(t)
	app := newApp(controller)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/accounts", resp.Header.Get(fiber.HeaderLocation))
	assert.Contains(t, resp.Header.Get(fiber.HeaderCacheControl), "no-store")
}

func TestAccountsController_Console(t *testing.T) {
	t.Parallel()

	t.Run("renders accounts and logs", func(t *testing.T) {
		controller, mockStore, mockLogs := newAccountsControllerAndMocks(t)
		app := newApp(controller)

		mockStore.EXPECT().
			List(gomock.Any()).
			Return([]accountsrepo.Account{
				{AppID: "app-1", PhoneID: "111", DestinationWebhook: "https://dest.example.com/hook"},
			}, nil).
			Times(1)
		mockLogs.EXPECT().
			Entries().
			Return([]string{"Forwarded event <script>"}).
			Times(1)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/accounts", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/html")
		assert.Equal(t, "no-cache", resp.Header.Get(fiber.HeaderPragma))

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		html := string(body)
		assert.Contains(t, html, `value="111"`)
		assert.Contains(t, html, `value="https://dest.example.com/hook"`)
		assert.Contains(t, html, "Forwarded event &lt;script&gt;")
	})

	t.Run("store failure", func(t *testing.T) {
		controller, mockStore, _ := newAccountsControllerAndMocks(t)
		app := newApp(controller)

		mockStore.EXPECT().
			List(gomock.Any()).
			Return(nil, errors.New("permission denied")).
			Times(1)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/accounts", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	})
}

func TestAccountsController_SaveAccount(t *testing.T) {
	t.Parallel()

	t.Run("saves trimmed form fields", func(t *testing.T) {
		controller, mockStore, _ := newAccountsControllerAndMocks(t)
		app := newApp(controller)

		mockStore.EXPECT().
			Save(gomock.Any(), accountsrepo.Account{
				AppID:              "app-1",
				PhoneID:            "111",
				Secret:             "s3cret",
				Token:              "tok",
				DestinationWebhook: "https://dest.example.com/hook",
			}).
			Return(nil).
			Times(1)

		resp := postForm(t, app, "/accounts", url.Values{
			"appid":       {" app-1 "},
			"phoneid":     {"111 "},
			"secret":      {"s3cret"},
			"token":       {"tok"},
			"n8n_webhook": {" https://dest.example.com/hook"},
		})
		assertRedirectToConsole(t, resp)
	})

	t.Run("empty phone id is a no-op", func(t *testing.T) {
		controller, _, _ := newAccountsControllerAndMocks(t)
		app := newApp(controller)

		resp := postForm(t, app, "/accounts", url.Values{"appid": {"app-1"}, "phoneid": {"  "}})
		assertRedirectToConsole(t, resp)
	})

	t.Run("validation failure still redirects", func(t *testing.T) {
		controller, mockStore, _ := newAccountsControllerAndMocks(t)
		app := newApp(controller)

		mockStore.EXPECT().
			Save(gomock.Any(), gomock.Any()).
			Return(fmt.Errorf("%w: bad id", accountsrepo.ValidationError)).
			Times(1)

		resp := postForm(t, app, "/accounts", url.Values{"phoneid": {"../x"}})
		assertRedirectToConsole(t, resp)
	})

	t.Run("storage failure", func(t *testing.T) {
		controller, mockStore, _ := newAccountsControllerAndMocks(t)
		app := newApp(controller)

		mockStore.EXPECT().
			Save(gomock.Any(), gomock.Any()).
			Return(errors.New("disk full")).
			Times(1)

		resp := postForm(t, app, "/accounts", url.Values{"phoneid": {"111"}})
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	})
}

func TestAccountsController_DeleteAccount(t *testing.T) {
	t.Parallel()

	t.Run("deletes the account", func(t *testing.T) {
		controller, mockStore, _ := newAccountsControllerAndMocks(t)
		app := newApp(controller)

		mockStore.EXPECT().
			Delete(gomock.Any(), "111").
			Return(nil).
			Times(1)

		resp := postForm(t, app, "/accounts/delete", url.Values{"phoneid": {" 111 "}})
		assertRedirectToConsole(t, resp)
	})

	t.Run("empty phone id is a no-op", func(t *testing.T) {
		controller, _, _ := newAccountsControllerAndMocks(t)
		app := newApp(controller)

		resp := postForm(t, app, "/accounts/delete", url.Values{})
		assertRedirectToConsole(t, resp)
	})
}

func postForm(t *testing.T, app *fiber.App, path string, form url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	resp, err := app.Test(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func assertRedirectToConsole(t *testing.T, resp *http.Response) {
	t.Helper()
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/accounts", resp.Header.Get(fiber.HeaderLocation))
}

func newApp(controller *AccountsController) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return fibercommon.ErrorHandler(c, err)
		},
		DisableStartupMessage: true,
	})
	app.Get("/", controller.Index)
	app.Get("/accounts", controller.Console)
	app.Post("/accounts", controller.SaveAccount)
	app.Post("/accounts/delete", controller.DeleteAccount)
	return app
}

func newAccountsControllerAndMocks(t *testing.T) (*AccountsController, *MockStore, *MockLogSource) {
	ctrl := gomock.NewController(t)
	mockStore := NewMockStore(ctrl)
	mockLogs := NewMockLogSource(ctrl)
	return NewAccountsController(mockStore, mockLogs), mockStore, mockLogs
}
