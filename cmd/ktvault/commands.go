package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/tjdeveng/KeepTower-sub013/internal/config"
	"github.com/tjdeveng/KeepTower-sub013/internal/crypto"
	"github.com/tjdeveng/KeepTower-sub013/internal/format"
	"github.com/tjdeveng/KeepTower-sub013/internal/logger"
	"github.com/tjdeveng/KeepTower-sub013/internal/store"
	"github.com/tjdeveng/KeepTower-sub013/internal/token"
	"github.com/tjdeveng/KeepTower-sub013/internal/tui"
	"github.com/tjdeveng/KeepTower-sub013/internal/utils"
	"github.com/tjdeveng/KeepTower-sub013/internal/vault"
	"github.com/tjdeveng/KeepTower-sub013/models"
)

// Environment of the development token backend. The engine itself only sees
// the token.Service interface; a real smartcard driver would slot in here.
const (
	tokenSecretEnv = "KEEPTOWER_TOKEN_SECRET"
	tokenSerialEnv = "KEEPTOWER_TOKEN_SERIAL"

	defaultTokenSerial = "KT-DEV-0001"
)

// ── create ───────────────────────────────────────────────────────────────────

func runCreate(ctx context.Context, cfg *config.EngineConfig, log *logger.Logger, path, username string, legacyV1, plain bool) error {
	interactive := !plain && term.IsTerminal(int(os.Stdout.Fd()))

	var extra []vault.ServiceOption
	if !interactive {
		extra = append(extra, vault.WithProgress(func(p models.StepProgress) {
			fmt.Printf("[%d/%d] %s\n", p.Step, p.Total, p.Description)
		}))
	}

	engine, err := buildEngine(cfg, log, extra...)
	if err != nil {
		return err
	}

	creds, err := promptCredentials(username, cfg.Token.Require)
	if err != nil {
		return err
	}

	fileFormat := models.FormatV2
	if legacyV1 {
		fileFormat = models.FormatV1
	}
	params := models.CreationParams{
		Path:   path,
		Admin:  creds,
		Format: fileFormat,
		Policy: cfg.Policy(),
	}

	var result *models.CreationResult
	if interactive {
		ui, uiErr := tui.New(engine, log)
		if uiErr != nil {
			return uiErr
		}
		result, err = ui.RunCreate(ctx, params)
	} else {
		result, err = engine.Create(ctx, params)
	}
	if err != nil {
		return err
	}
	// The CLI never touches the payload after creation; the caller-owned
	// key copy dies here.
	crypto.Zero(result.DEK)

	fmt.Printf("Created %s vault at %s\n", formatName(result.Format), result.Path)
	if result.Header != nil {
		fmt.Printf("Vault ID: %s\n", result.Header.VaultID)
	}
	return nil
}

// devToken builds the development stand-in for a hardware token. The secret
// must be stable across runs: challenge responses are keyed by it, so a lost
// secret makes every token-bound slot unopenable.
func devToken() (token.Service, error) {
	hexSecret := os.Getenv(tokenSecretEnv)
	if hexSecret == "" {
		return nil, fmt.Errorf("token policy is on but %s is not set", tokenSecretEnv)
	}
	secret, err := hex.DecodeString(hexSecret)
	if err != nil {
		return nil, fmt.Errorf("%s is not valid hex: %w", tokenSecretEnv, err)
	}

	serial := os.Getenv(tokenSerialEnv)
	if serial == "" {
		serial = defaultTokenSerial
	}
	return token.NewFake([]byte(serial), secret, ""), nil
}

func promptCredentials(username string, withPIN bool) (models.Credentials, error) {
	var creds models.Credentials
	var err error

	creds.Username = username
	if creds.Username == "" {
		if creds.Username, err = promptLine("Username"); err != nil {
			return models.Credentials{}, err
		}
	}

	password, err := promptSecret("Password")
	if err != nil {
		return models.Credentials{}, err
	}
	repeat, err := promptSecret("Repeat password")
	if err != nil {
		return models.Credentials{}, err
	}
	if password != repeat {
		return models.Credentials{}, errors.New("passwords do not match")
	}
	creds.Password = password

	if withPIN {
		if creds.TokenPIN, err = promptSecret("Token PIN"); err != nil {
			return models.Credentials{}, err
		}
	}
	return creds, nil
}

// promptSecret reads one line with terminal echo off. Prompt and newline go
// to stderr so stdout stays clean for command output.
func promptSecret(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", label, err)
	}
	return string(b), nil
}

func promptLine(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", label, err)
	}
	return strings.TrimSpace(line), nil
}

// ── inspect ──────────────────────────────────────────────────────────────────

func runInspect(ctx context.Context, formats format.Service, files store.VaultStore, path string) error {
	raw, err := files.Load(ctx, path)
	if err != nil {
		return err
	}

	fmt.Printf("File: %s (%d bytes)\n", path, len(raw))
	fmt.Printf("SHA-256: %s\n", utils.FingerprintString(raw))

	if !formats.IsContainer(raw) {
		parsed, err := formats.ParseEnvelope(raw)
		if err != nil {
			return err
		}
		printEnvelope("Format: V1 single-user envelope", parsed)
		return nil
	}

	info, err := formats.ParseContainer(raw)
	if err != nil {
		return err
	}

	header := info.Header
	fmt.Printf("Format: V2 container (layout version %d)\n", info.Version)
	fmt.Printf("Vault ID: %s\n", header.VaultID)
	fmt.Printf("Created: %s by %s\n", header.CreatedAt.Format(time.RFC3339), orNA(header.CreatorVersion))
	fmt.Printf("KDF iterations hint: %d\n", info.KDFIterations)
	fmt.Printf("Header FEC: %d%% parity\n", info.HeaderRedundancy)
	fmt.Printf("Key slots: %d active of %d\n", len(header.ActiveSlots()), len(header.Slots))
	for i, slot := range header.Slots {
		fmt.Printf("  [%d] %s\n", i, describeSlot(slot))
	}
	printEnvelope("Payload section:", info.Data)
	return nil
}

func printEnvelope(headline string, parsed *models.ParsedVaultData) {
	fmt.Println(headline)
	meta := parsed.Metadata
	if meta.HasFEC {
		fmt.Printf("  FEC: %d%% parity\n", meta.FECRedundancy)
	} else {
		fmt.Println("  FEC: none")
	}
	if meta.RequiresHWToken {
		fmt.Printf("  Hardware token: required (serial %s)\n", string(meta.TokenSerial))
	} else {
		fmt.Println("  Hardware token: not required")
	}
	fmt.Printf("  Ciphertext: %d bytes\n", len(parsed.Ciphertext))
}

func describeSlot(slot models.KeySlot) string {
	state := "active"
	if !slot.Active {
		state = "deactivated"
	}
	tokenNote := ""
	if slot.TokenEnrolled {
		tokenNote = ", token-bound"
	}
	return fmt.Sprintf("%s %s%s, created %s",
		state, roleName(slot.Role), tokenNote, slot.CreatedAt.Format(time.RFC3339))
}

func roleName(role models.SlotRole) string {
	switch role {
	case models.RoleAdmin:
		return "admin"
	case models.RoleUser:
		return "user"
	default:
		return fmt.Sprintf("role(%d)", role)
	}
}

func formatName(v models.FormatVersion) string {
	switch v {
	case models.FormatV1:
		return "V1"
	case models.FormatV2:
		return "V2"
	default:
		return fmt.Sprintf("V%d", v)
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// ── check ────────────────────────────────────────────────────────────────────

// runCheck decodes every FEC-protected section and reports whether parity had
// to step in. It needs no credentials: integrity is judged below the
// encryption layer.
func runCheck(ctx context.Context, formats format.Service, files store.VaultStore, path string) error {
	raw, err := files.Load(ctx, path)
	if err != nil {
		return err
	}

	repaired := 0
	if formats.IsContainer(raw) {
		info, err := formats.ParseContainer(raw)
		if err != nil {
			return fmt.Errorf("vault is damaged beyond repair: %w", err)
		}
		reportSection("header", true, info.HeaderRepairedBlocks)
		reportSection("payload", info.Data.Metadata.HasFEC, info.Data.RepairedBlocks)
		repaired = info.HeaderRepairedBlocks + info.Data.RepairedBlocks
	} else {
		parsed, err := formats.ParseEnvelope(raw)
		if err != nil {
			return fmt.Errorf("vault is damaged beyond repair: %w", err)
		}
		reportSection("payload", parsed.Metadata.HasFEC, parsed.RepairedBlocks)
		repaired = parsed.RepairedBlocks
	}

	if repaired > 0 {
		fmt.Printf("RECOVERED: %d blocks rebuilt from parity. Save the vault to rewrite it cleanly.\n", repaired)
		return nil
	}
	fmt.Println("OK: all sections intact.")
	return nil
}

func reportSection(name string, protected bool, repairedBlocks int) {
	switch {
	case !protected:
		fmt.Printf("%s: no FEC protection\n", name)
	case repairedBlocks > 0:
		fmt.Printf("%s: %d blocks rebuilt from parity\n", name, repairedBlocks)
	default:
		fmt.Printf("%s: intact\n", name)
	}
}
