package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/garyjia/merchant-webhook/internal/application/port"
	"github.com/garyjia/merchant-webhook/internal/config"
	"github.com/garyjia/merchant-webhook/internal/container"
	"github.com/garyjia/merchant-webhook/pkg/utils"
)

func newTokensCmd() *cobra.Command {
	tokensCmd := &cobra.Command{
		Use:   "tokens",
		Short: "Manage merchant access tokens",
	}

	tokensCmd.AddCommand(&cobra.Command{
		Use:   "set <merchant-id> <access-token>",
		Short: "Store the access token for a merchant",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := utils.ValidateMerchantID(args[0]); err != nil {
				return err
			}
			if err := utils.ValidateAccessToken(args[1]); err != nil {
				return err
			}
			return withTokenStore(func(store port.TokenStore) error {
				if err := store.PutAccessToken(context.Background(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "stored access token for %s\n", args[0])
				return nil
			})
		},
	})

	tokensCmd.AddCommand(&cobra.Command{
		Use:   "get <merchant-id>",
		Short: "Print the access token for a merchant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTokenStore(func(store port.TokenStore) error {
				token, ok := store.GetAccessToken(context.Background(), args[0])
				if !ok {
					return fmt.Errorf("no access token for merchant %s", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	})

	tokensCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List merchants with a stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTokenStore(func(store port.TokenStore) error {
				tokens, err := store.AccessTokens(context.Background())
				if err != nil {
					return err
				}
				ids := make([]string, 0, len(tokens))
				for id := range tokens {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			})
		},
	})

	return tokensCmd
}

// withTokenStore opens the configured store for the duration of fn
func withTokenStore(fn func(port.TokenStore) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      "warn",
		OutputPath: "stderr",
		Format:     "console",
	})
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, db, err := container.OpenTokenStore(cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	return fn(store)
}
