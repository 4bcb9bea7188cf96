package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
	"github.com/leafbridge/rootstock/rsvariables"
)

// SealVariablesCmd encrypts a plain variables file so that it can be
// distributed as a sensitive variables file.
type SealVariablesCmd struct {
	In        string `kong:"required,name='in',help='Path to the plain variables file to encrypt.'"`
	Out       string `kong:"required,name='out',help='Path to write the sealed variables file to.'"`
	Password  string `kong:"optional,name='password',env='ROOTSTOCK_SENSITIVE_PASSWORD',help='Password to seal the variables with.'"`
	Salt      string `kong:"optional,name='salt',env='ROOTSTOCK_SENSITIVE_SALT',help='Salt for the sealing password.'"`
	Recipient string `kong:"optional,name='recipient',help='Age public key to seal the variables for.'"`
}

// Run executes the rootstock seal-variables command.
func (cmd SealVariablesCmd) Run(ctx context.Context) error {
	// Check that exactly one sealing mode was selected.
	hasPassword := cmd.Password != "" || cmd.Salt != ""
	hasRecipient := cmd.Recipient != ""
	switch {
	case hasPassword && hasRecipient:
		return errors.New("a password and a recipient cannot be combined")
	case !hasPassword && !hasRecipient:
		return errors.New("a password and salt or a recipient is required")
	case hasPassword && (cmd.Password == "" || cmd.Salt == ""):
		return errors.New("a password and a salt must be supplied together")
	}

	// Sealed variables must decrypt to a JSON object, so only JSON input
	// files can be sealed.
	switch ext := strings.ToLower(filepath.Ext(cmd.In)); ext {
	case ".json", ".jsonc":
	default:
		return fmt.Errorf("the \"%s\" input file is not a JSON variables file", cmd.In)
	}

	// Check that the input parses as a variables file before sealing it.
	if err := rsvariables.LoadFile(rsvariables.NewStore(), cmd.In); err != nil {
		return err
	}

	plaintext, err := os.ReadFile(cmd.In)
	if err != nil {
		return err
	}

	// Seal the variables.
	var sealed []byte
	if hasRecipient {
		recipient, err := age.ParseX25519Recipient(cmd.Recipient)
		if err != nil {
			return fmt.Errorf("failed to parse the recipient: %w", err)
		}
		sealed, err = rsvariables.SealWithRecipient(plaintext, recipient)
		if err != nil {
			return err
		}
	} else {
		sealed, err = rsvariables.SealWithPassword(plaintext, cmd.Password, cmd.Salt)
		if err != nil {
			return err
		}
	}

	// Write the sealed variables file.
	if err := os.WriteFile(cmd.Out, sealed, 0o600); err != nil {
		return fmt.Errorf("failed to write the sealed variables file: %w", err)
	}

	fmt.Printf("Sealed %d variables file bytes to \"%s\".\n", len(plaintext), cmd.Out)

	return nil
}
