package accountsrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	filePrefix = "config_"
	fileSuffix = ".json"
	filePerm   = 0o644
)

// FileStore keeps each account in its own config_<phoneid>.json file.
// There is no index and no locking; List scans the whole directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir, creating the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create accounts directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// List loads every account file in the directory.
// Unreadable or corrupt files are skipped with a warning.
func (s *FileStore) List(ctx context.Context) ([]Account, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read accounts directory: %w", err)
	}

	logger := zerolog.Ctx(ctx)
	accounts := make([]Account, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		acc, err := readAccountFile(filepath.Join(s.dir, name))
		if err != nil {
			logger.Warn().Err(err).Str("file", name).Msg("Skipping unreadable account file")
			continue
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

// Save writes the account in full, replacing any record with the same PhoneID.
func (s *FileStore) Save(_ context.Context, account Account) error {
	if err := account.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-"+filePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp account file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write account file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close account file: %w", err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		return fmt.Errorf("failed to set account file mode: %w", err)
	}
	if err := os.Rename(tmpName, s.path(account.PhoneID)); err != nil {
		return fmt.Errorf("failed to move account file into place: %w", err)
	}
	return nil
}

// Delete removes the account file. Deleting a missing account is not an error.
// Nothing is ever saved under an empty phoneID, so deleting it is a no-op.
func (s *FileStore) Delete(_ context.Context, phoneID string) error {
	if phoneID == "" {
		return nil
	}
	if err := validatePhoneID(phoneID); err != nil {
		return err
	}
	err := os.Remove(s.path(phoneID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete account file: %w", err)
	}
	return nil
}

func (s *FileStore) path(phoneID string) string {
	return filepath.Join(s.dir, filePrefix+phoneID+fileSuffix)
}

// readAccountFile decodes leniently: files written by hand or by older
// deployments may hold numbers where strings are expected.
func readAccountFile(path string) (Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Account{}, fmt.Errorf("failed to read account file: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return Account{}, errors.New("failed to parse account file: invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Account{}, errors.New("failed to parse account file: not a JSON object")
	}
	return Account{
		AppID:              fieldText(root, "appid"),
		PhoneID:            fieldText(root, "phoneid"),
		Secret:             fieldText(root, "secret"),
		Token:              fieldText(root, "token"),
		DestinationWebhook: fieldText(root, "n8n_webhook"),
	}, nil
}

// fieldText reads key as text. Numbers keep their literal text; missing,
// null and any other type read as "".
func fieldText(obj gjson.Result, key string) string {
	v := obj.Get(key)
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		return v.Raw
	default:
		return ""
	}
}
