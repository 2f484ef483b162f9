package main

import (
	"bufio"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	domainauth "github.com/target/sso-bridge/internal/domain/auth"
	"golang.org/x/crypto/blowfish"
)

const (
	legacyBcryptCost = 5
	maxBcryptKeyLen  = 72
)

// legacyBcryptSalt is the fixed salt the genpass digest has always used.
var legacyBcryptSalt = []byte("1234567891234567")

type passwordOptions struct {
	Password string
	Hash     string
}

func parsePasswordFlags(name string, args []string, withHash bool) (passwordOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts passwordOptions
	fs.StringVar(&opts.Password, "password", "", "Plaintext password (read from stdin when empty)")
	if withHash {
		fs.StringVar(&opts.Hash, "hash", "", "Stored userPassword value, e.g. {SSHA}... (required)")
	}
	if err := fs.Parse(args); err != nil {
		return passwordOptions{}, err
	}
	if withHash && opts.Hash == "" {
		return passwordOptions{}, errors.New("--hash is required")
	}
	return opts, nil
}

// resolvePassword falls back to the first line of stdin.
func resolvePassword(ctx *commandContext, given string) (string, error) {
	if given != "" {
		return given, nil
	}
	line, err := bufio.NewReader(ctx.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password is required")
	}
	return line, nil
}

func runHashPassword(ctx *commandContext, args []string) error {
	opts, err := parsePasswordFlags("hash-password", args, false)
	if err != nil {
		return err
	}
	password, err := resolvePassword(ctx, opts.Password)
	if err != nil {
		return err
	}
	hashed, err := domainauth.HashPassword(password)
	if err != nil {
		return err
	}
	return writef(ctx.Stdout, "%s\n", hashed)
}

func runVerifyPassword(ctx *commandContext, args []string) error {
	opts, err := parsePasswordFlags("verify-password", args, true)
	if err != nil {
		return err
	}
	password, err := resolvePassword(ctx, opts.Password)
	if err != nil {
		return err
	}
	ok, verr := domainauth.VerifyPassword(opts.Hash, password)
	if verr != nil {
		return verr
	}
	if !ok {
		if err := writef(ctx.Stdout, "mismatch\n"); err != nil {
			return err
		}
		return errors.New("password does not match")
	}
	return writef(ctx.Stdout, "match\n")
}

func runGenPass(ctx *commandContext, args []string) error {
	fs := flag.NewFlagSet("genpass", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	pass := fs.String("pass", "", "Plaintext password (read from stdin when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	password, err := resolvePassword(ctx, *pass)
	if err != nil {
		return err
	}
	digest, err := legacyBcrypt([]byte(password))
	if err != nil {
		return err
	}
	return writef(ctx.Stdout, "crypted pass: %s\n", digest)
}

// legacyBcrypt runs raw EksBlowfish with the fixed cost and salt and returns
// all 24 ciphertext bytes, base64 encoded. The password is used without a
// trailing NUL, so the result is not a modular-crypt bcrypt hash.
func legacyBcrypt(password []byte) (string, error) {
	if len(password) == 0 || len(password) > maxBcryptKeyLen {
		return "", fmt.Errorf("password must be 1-%d bytes", maxBcryptKeyLen)
	}
	c, err := blowfish.NewSaltedCipher(password, legacyBcryptSalt)
	if err != nil {
		return "", err
	}
	for i := uint64(0); i < 1<<legacyBcryptCost; i++ {
		blowfish.ExpandKey(password, c)
		blowfish.ExpandKey(legacyBcryptSalt, c)
	}

	out := []byte("OrpheanBeholderScryDoubt")
	for i := 0; i < len(out); i += blowfish.BlockSize {
		for j := 0; j < 64; j++ {
			c.Encrypt(out[i:i+blowfish.BlockSize], out[i:i+blowfish.BlockSize])
		}
	}
	return base64.StdEncoding.EncodeToString(out), nil
}
