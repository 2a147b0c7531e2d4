// Package syncer mirrors the local snapshot to the cloud key-value endpoint.
//
// The remote record is replaced wholesale on every push; the newer
// timestamp wins. There is no field-level merge, so concurrent edits on two
// devices between polls lose one side.
package syncer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claude/trainsync/internal/store"
)

const keyDeviceID = "device_id"

// Environment describes the machine the app runs on. Its hash identifies
// the remote record when no explicit key is configured.
type Environment struct {
	UserAgent string
	Locale    string
	Screen    string
	Timezone  string
	Host      string
}

// DetectEnvironment collects the local environment. label stands in for the
// screen/display characteristic and is usually the configured device label.
func DetectEnvironment(label string) Environment {
	host, _ := os.Hostname()
	locale := os.Getenv("LC_ALL")
	if locale == "" {
		locale = os.Getenv("LANG")
	}
	return Environment{
		UserAgent: "trainsync/" + runtime.GOOS + "-" + runtime.GOARCH,
		Locale:    locale,
		Screen:    label,
		Timezone:  time.Local.String(),
		Host:      host,
	}
}

// Hash returns the hex SHA-256 over all environment fields.
func (e Environment) Hash() string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		e.UserAgent, e.Locale, e.Screen, e.Timezone, e.Host,
	}, "|")))
	return hex.EncodeToString(sum[:])
}

// DeriveKey returns the remote key for env. A non-empty override wins.
func DeriveKey(env Environment, override string) string {
	if override != "" {
		return override
	}
	return "trainsync-" + env.Hash()[:16]
}

// DeviceID returns this device's id, creating and persisting it on first
// use. It combines the environment hash with a random token.
func DeviceID(ctx context.Context, kv store.KV, env Environment) (string, error) {
	var id string
	ok, err := kv.GetJSON(ctx, keyDeviceID, &id)
	if err != nil {
		return "", fmt.Errorf("reading device id: %w", err)
	}
	if ok && id != "" {
		return id, nil
	}

	id = env.Hash()[:12] + "-" + uuid.NewString()
	if err := kv.PutJSON(ctx, keyDeviceID, id); err != nil {
		return "", fmt.Errorf("persisting device id: %w", err)
	}
	return id, nil
}
