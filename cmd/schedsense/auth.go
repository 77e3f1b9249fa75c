package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schedsense/schedsense/internal/profile"
	"github.com/schedsense/schedsense/plugin/calendar"
)

// authCmd performs the one-time OAuth exchange and stores the token the
// server loads at startup.
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize calendar access and store the OAuth token",
	RunE: func(_ *cobra.Command, _ []string) error {
		prof := &profile.Profile{}
		prof.FromEnv()

		config, err := calendar.OAuthConfig(prof.GoogleClientID, prof.GoogleClientSecret)
		if err != nil {
			return err
		}

		authURL := config.AuthCodeURL("state-token")
		fmt.Printf("Open the following link in your browser, then paste the authorization code:\n%v\n\n> ", authURL)

		reader := bufio.NewReader(os.Stdin)
		code, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read authorization code: %w", err)
		}
		code = strings.TrimSpace(code)

		token, err := calendar.Exchange(context.Background(), config, code)
		if err != nil {
			return fmt.Errorf("exchange authorization code: %w", err)
		}
		if err := calendar.SaveToken(prof.GoogleTokenFile, token); err != nil {
			return err
		}
		fmt.Printf("Token saved to %s\n", prof.GoogleTokenFile)
		return nil
	},
}
