package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/rampart-sh/rampart/internal/crypto"
)

var encryptCmd = &cobra.Command{
	Use:   "encrypt",
	Short: "Encrypt a secret for use in a profile",
	Long:  `Produces a vault value that can be pasted into a profile parameter. Profiles are decrypted transparently on load when the passphrase is available.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, err := pterm.DefaultInteractiveTextInput.
			WithMask("*").
			WithDefaultText("Secret value").
			Show()
		if err != nil {
			return err
		}

		passphrase, err := pterm.DefaultInteractiveTextInput.
			WithMask("*").
			WithDefaultText("Vault passphrase").
			Show()
		if err != nil {
			return err
		}
		if passphrase == "" {
			return fmt.Errorf("passphrase must not be empty")
		}

		sealed, err := crypto.Encrypt(secret, passphrase)
		if err != nil {
			pterm.Error.Println("encryption failed:", err)
			return err
		}

		pterm.Println()
		pterm.Info.Println("Paste this value into the profile:")
		pterm.Println(sealed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(encryptCmd)
}
