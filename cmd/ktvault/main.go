package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/tjdeveng/KeepTower-sub013/internal/config"
	"github.com/tjdeveng/KeepTower-sub013/internal/crypto"
	"github.com/tjdeveng/KeepTower-sub013/internal/fec"
	"github.com/tjdeveng/KeepTower-sub013/internal/format"
	"github.com/tjdeveng/KeepTower-sub013/internal/keyslot"
	"github.com/tjdeveng/KeepTower-sub013/internal/logger"
	"github.com/tjdeveng/KeepTower-sub013/internal/record"
	"github.com/tjdeveng/KeepTower-sub013/internal/store"
	"github.com/tjdeveng/KeepTower-sub013/internal/tui"
	"github.com/tjdeveng/KeepTower-sub013/internal/vault"
	"github.com/tjdeveng/KeepTower-sub013/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	flag.Usage = usage
	username := flag.String("user", "", "Slot username (prompted when empty)")
	legacyV1 := flag.Bool("v1", false, "Create a legacy single-user vault")
	plain := flag.Bool("plain", false, "Line-by-line progress instead of the interactive view")

	log := logger.NewFileLogger("ktvault")
	cfg, err := config.GetEngineConfig()
	if err != nil {
		fail(log, err, "error getting configs")
	}
	applyLogLevel(log, cfg.Logging.Level)

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	command, rest := args[0], args[1:]

	if command == "version" {
		printBuildInfo()
		return
	}
	if len(rest) != 1 {
		usage()
		os.Exit(2)
	}
	path := resolvePath(cfg, rest[0])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "create":
		err = runCreate(ctx, cfg, log, path, *username, *legacyV1, *plain)
	case "inspect":
		err = runInspect(ctx, newFormats(log), newFiles(log), path)
	case "check":
		err = runCheck(ctx, newFormats(log), newFiles(log), path)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		if errors.Is(err, tui.ErrUserQuit) || errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fail(log, err, "command failed")
	}
}

// fail records the structured entry and prints a plain line for the terminal
// user, who may never see the log file.
func fail(log *logger.Logger, err error, msg string) {
	log.Error().Err(err).Msg(msg)
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// buildEngine wires the vault service the same way for every command.
// Per-command extras (progress printing) come in through opts.
func buildEngine(cfg *config.EngineConfig, log *logger.Logger, opts ...vault.ServiceOption) (vault.Service, error) {
	base := []vault.ServiceOption{
		vault.WithLegacyKDFIterations(uint32(cfg.KDF.Iterations)),
	}
	if buildVersion != "" {
		base = append(base, vault.WithCreatorVersion(buildVersion))
	}
	if cfg.Token.Require {
		tokens, err := devToken()
		if err != nil {
			return nil, err
		}
		base = append(base, vault.WithTokenService(tokens))
	}
	base = append(base, opts...)

	keys := crypto.NewKeyService()
	return vault.NewService(
		keys,
		keyslot.NewManager(keys),
		newFormats(log),
		record.NewSerializer(),
		newFiles(log),
		log,
		base...,
	), nil
}

func newFormats(log *logger.Logger) format.Service {
	return format.New(fec.NewCodec(models.MaxVaultSize), log)
}

func newFiles(log *logger.Logger) store.VaultStore {
	return store.NewFileStore(log)
}

// resolvePath joins a bare file name onto the configured vault directory.
// Anything that already names a directory is used as given.
func resolvePath(cfg *config.EngineConfig, arg string) string {
	if cfg.Vault.Dir == "" || filepath.IsAbs(arg) || strings.ContainsRune(arg, os.PathSeparator) {
		return arg
	}
	return filepath.Join(cfg.Vault.Dir, arg)
}

// applyLogLevel narrows the global level after config load. The logger starts
// at debug so errors in the config itself are never swallowed.
func applyLogLevel(log *logger.Logger, level string) {
	if level == "" {
		return
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		fail(log, err, "unknown log level")
	}
	zerolog.SetGlobalLevel(parsed)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: ktvault [flags] <command> <file>\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  create   Create a new vault file\n")
	fmt.Fprintf(os.Stderr, "  inspect  Print vault file facts without credentials\n")
	fmt.Fprintf(os.Stderr, "  check    Decode FEC sections and report repairs\n")
	fmt.Fprintf(os.Stderr, "  version  Print build information\n\n")
	fmt.Fprintf(os.Stderr, "Flags:\n")
	flag.PrintDefaults()
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
