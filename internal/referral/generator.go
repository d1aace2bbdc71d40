// Package referral issues the public codes professionals share with clients.
package referral

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
)

const (
	DefaultPrefix      = "FG-"
	DefaultLength      = 6
	DefaultAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	DefaultMaxAttempts = 10
)

// ErrExhausted is returned when no unused code was drawn within the retry budget.
var ErrExhausted = errors.New("referral code retry budget exhausted")

// CodeChecker reports whether a code has already been issued.
type CodeChecker interface {
	ReferralCodeExists(ctx context.Context, code string) (bool, error)
}

// Options shape generated codes.
type Options struct {
	Prefix      string
	Length      int
	Alphabet    string
	MaxAttempts int
}

// Generator draws random codes and retries on collision.
type Generator struct {
	opts    Options
	checker CodeChecker
	random  io.Reader
}

// NewGenerator builds a generator; zero-valued options fall back to defaults.
func NewGenerator(opts Options, checker CodeChecker) *Generator {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.Length <= 0 {
		opts.Length = DefaultLength
	}
	if len(opts.Alphabet) < 2 {
		opts.Alphabet = DefaultAlphabet
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	return &Generator{opts: opts, checker: checker, random: rand.Reader}
}

// MaxAttempts returns the retry budget.
func (g *Generator) MaxAttempts() int {
	return g.opts.MaxAttempts
}

// Generate returns a code not yet issued according to the checker.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < g.opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code, err := g.draw()
		if err != nil {
			return "", fmt.Errorf("draw referral code: %w", err)
		}
		exists, err := g.checker.ReferralCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check referral code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrExhausted
}

// Valid reports whether code has the generator's shape.
func (g *Generator) Valid(code string) bool {
	body, ok := strings.CutPrefix(code, g.opts.Prefix)
	if !ok || len(body) != g.opts.Length {
		return false
	}
	for _, r := range body {
		if !strings.ContainsRune(g.opts.Alphabet, r) {
			return false
		}
	}
	return true
}

func (g *Generator) draw() (string, error) {
	var sb strings.Builder
	sb.Grow(len(g.opts.Prefix) + g.opts.Length)
	sb.WriteString(g.opts.Prefix)

	max := big.NewInt(int64(len(g.opts.Alphabet)))
	for i := 0; i < g.opts.Length; i++ {
		n, err := rand.Int(g.random, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(g.opts.Alphabet[n.Int64()])
	}
	return sb.String(), nil
}
