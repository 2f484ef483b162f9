package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/target/sso-bridge/internal/bootstrap"
	"github.com/target/sso-bridge/internal/ports"
	"github.com/target/sso-bridge/internal/service"
)

type lookupOutput struct {
	Token string `json:"token"`
	Valid bool   `json:"valid"`
	UID   string `json:"uid,omitempty"`
	DN    string `json:"dn,omitempty"`
}

func runLookupToken(ctx *commandContext, args []string) error {
	fs := flag.NewFlagSet("lookup-token", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	token := fs.String("token", "", "Access token to resolve (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *token == "" {
		return errors.New("--token is required")
	}

	kv, err := bootstrap.OpenTokenKV(ctx.Ctx, &ctx.Config, ctx.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := kv.Close(); cerr != nil {
			ctx.Logger.ErrorContext(ctx.Ctx, "close token store failed", "error", cerr)
		}
	}()
	return lookupToken(ctx, kv.KV, *token)
}

func lookupToken(ctx *commandContext, kv ports.KVStore, token string) error {
	store := service.NewTokenStore(service.TokenStoreOptions{KV: kv})
	id, ok, err := store.Lookup(ctx.Ctx, token)
	if err != nil {
		return fmt.Errorf("lookup token: %w", err)
	}

	enc := json.NewEncoder(ctx.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(lookupOutput{Token: token, Valid: ok, UID: id.UID, DN: id.DN})
}
