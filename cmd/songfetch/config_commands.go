package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/songfetch/songfetch-go/internal/config"
	"github.com/songfetch/songfetch-go/internal/security"
)

func newConfigCommand(cc *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the songfetch configuration",
	}
	cmd.AddCommand(newConfigShowCommand(cc))
	cmd.AddCommand(newConfigInitCommand(cc))
	cmd.AddCommand(newConfigSetCredentialsCommand(cc))
	return cmd
}

func newConfigShowCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the active configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cc.ensureConfig()
			if err != nil {
				return err
			}

			redacted := *cfg
			if redacted.Spotify.ClientSecret != "" {
				redacted.Spotify.ClientSecret = "[redacted]"
			}
			if redacted.Spotify.AuthToken != "" {
				redacted.Spotify.AuthToken = "[redacted]"
			}

			data, err := json.MarshalIndent(redacted, "", "  ")
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file: %s\n%s\n", cc.configPath(), data)
			return nil
		},
	}
}

func newConfigInitCommand(cc *commandContext) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file with default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cc.configPath()
			if _, err := os.Stat(path); err == nil {
				if !overwrite {
					return fmt.Errorf("configuration file already exists at %s (use --overwrite to replace it)", path)
				}
				if err := os.Remove(path); err != nil {
					return fmt.Errorf("remove existing config: %w", err)
				}
			} else if !os.IsNotExist(err) {
				return fmt.Errorf("check config path: %w", err)
			}

			// Load writes the default file when none exists.
			if _, err := config.Load(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			fmt.Fprintln(cmd.OutOrStdout(), `Run "songfetch config set-credentials" to add catalog credentials.`)
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing configuration file")
	return cmd
}

func newConfigSetCredentialsCommand(cc *commandContext) *cobra.Command {
	var (
		clientID     string
		clientSecret string
		authToken    string
		userAuth     bool
	)

	cmd := &cobra.Command{
		Use:   "set-credentials",
		Short: "Store catalog credentials in the configuration",
		Long: `Set-credentials writes catalog API credentials into the configuration
file. Secrets are encrypted with a machine-bound key before they are
written, so the config file never holds them in plain text.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if clientID == "" && clientSecret == "" && authToken == "" && !cmd.Flags().Changed("user-auth") {
				return fmt.Errorf("nothing to set: pass --client-id/--client-secret or --auth-token")
			}

			path := cc.configPath()
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}

			if clientID != "" {
				cfg.Spotify.ClientID = clientID
			}
			if clientSecret != "" {
				cfg.Spotify.ClientSecret = clientSecret
			}
			if authToken != "" {
				cfg.Spotify.AuthToken = authToken
			}
			if cmd.Flags().Changed("user-auth") {
				cfg.Spotify.UserAuth = userAuth
			}

			// Load decrypts stored credentials, so anything secret must be
			// re-encrypted before the file is written back.
			enc := security.NewCredentialEncryptor(config.GetDataDir())
			if cfg.Spotify.ClientSecret != "" && !security.IsEncrypted(cfg.Spotify.ClientSecret) {
				sealed, err := enc.Encrypt(cfg.Spotify.ClientSecret)
				if err != nil {
					return fmt.Errorf("encrypt client secret: %w", err)
				}
				cfg.Spotify.ClientSecret = sealed
			}
			if cfg.Spotify.AuthToken != "" && !security.IsEncrypted(cfg.Spotify.AuthToken) {
				sealed, err := enc.Encrypt(cfg.Spotify.AuthToken)
				if err != nil {
					return fmt.Errorf("encrypt auth token: %w", err)
				}
				cfg.Spotify.AuthToken = sealed
			}

			if err := cfg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Credentials saved to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "Catalog API client ID")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "Catalog API client secret")
	cmd.Flags().StringVar(&authToken, "auth-token", "", "User-authorized bearer token")
	cmd.Flags().BoolVar(&userAuth, "user-auth", false, "Use the user token for all requests")

	return cmd
}
