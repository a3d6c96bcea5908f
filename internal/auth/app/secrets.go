package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/clubhouse/pkg/cryptox"
	"github.com/aussiebroadwan/clubhouse/pkg/jwtx"
)

const secretSize = 32

// Secrets holds the key material loaded at startup.
type Secrets struct {
	Box     *cryptox.SecretBox
	Tickets *jwtx.TicketSigner
}

// LoadSecrets reads the master key and ticket key from disk, generating
// either one on first start. The pepper is loaded lazily by cryptox.
//
// Losing the master key makes every stored TOTP secret unreadable, so the
// files must be kept alongside the database in backups.
func LoadSecrets(cfg Config, logger *slog.Logger) (*Secrets, error) {
	cryptox.SetPepperPath(cfg.PepperFile)

	master, err := cryptox.LoadOrCreateSecret(cfg.MasterKeyPath, secretSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load master key: %w", err)
	}
	box, err := cryptox.NewSecretBox([]byte(master))
	if err != nil {
		return nil, err
	}

	ticketKey, err := cryptox.LoadOrCreateSecret(cfg.TicketKeyFile, secretSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket key: %w", err)
	}
	tickets, err := jwtx.NewTicketSigner([]byte(ticketKey), cfg.Issuer)
	if err != nil {
		return nil, err
	}

	logger.Info("secrets loaded",
		"master_key_path", cfg.MasterKeyPath,
		"ticket_key_file", cfg.TicketKeyFile,
	)
	return &Secrets{Box: box, Tickets: tickets}, nil
}
