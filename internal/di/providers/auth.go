package providers

import (
	"github.com/samber/do/v2"

	"github.com/tazkiyahapp/tazkiyah-server/internal/auth"
	"github.com/tazkiyahapp/tazkiyah-server/internal/config"
	"github.com/tazkiyahapp/tazkiyah-server/internal/logger"
)

// AuthKey is the hex-encoded PASETO symmetric key loaded from disk.
type AuthKey string

// ProvideAuthKey loads or generates the token signing key and stores it in
// the config for anything that reads it from there.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	keyHex, err := auth.LoadOrGenerateKey(cfg.Storage.DataPath)
	if err != nil {
		return "", err
	}
	cfg.Auth.AccessTokenKey = keyHex

	log.Info("Auth key ready", "access_token_duration", cfg.Auth.AccessTokenDuration)

	return AuthKey(keyHex), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService(string(authKey), cfg.Auth.AccessTokenDuration)
}
