package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pixelgroomer/internal/config"
	appErrors "pixelgroomer/internal/errors"
	"pixelgroomer/internal/infra/checksum"
	"pixelgroomer/internal/logging"
	"pixelgroomer/internal/presentation"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <dir>",
	Short: "Check files against their .checksums manifests",
	Long: "Recompute the digest of every file listed in the .checksums manifests below <dir> and report\n" +
		"mismatched or missing files. With --generate, add entries for files that have none yet.",
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

var (
	verifyGenerate    bool
	verifyNoRecursive bool
	verifyAlgorithm   string
	verifyVerbose     bool
)

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().BoolVar(&verifyGenerate, "generate", false, "Add manifest entries for files without one")
	verifyCmd.Flags().BoolVar(&verifyNoRecursive, "no-recursive", false, "Only look at <dir> itself")
	verifyCmd.Flags().StringVar(&verifyAlgorithm, "algorithm", "", "Checksum algorithm (default CHECKSUM_ALGORITHM or sha256)")
	verifyCmd.Flags().BoolVarP(&verifyVerbose, "verbose", "v", false, "List every checked file")
}

func runVerify(cmd *cobra.Command, args []string) error {
	root := args[0]
	logger := logging.New(os.Stderr, verifyVerbose)

	algorithm, err := verifyAlgorithmName()
	if err != nil {
		return err
	}
	hasher, err := checksum.New(algorithm)
	if err != nil {
		return appErrors.Wrap(appErrors.ConfigError, "checksum", "", err)
	}
	if _, err := os.Stat(root); err != nil {
		return appErrors.Wrap(appErrors.NotFound, "stat", root, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	verifier := checksum.Verifier{
		Hasher:    hasher,
		Manifest:  checksum.NewManifest(),
		Recursive: !verifyNoRecursive,
		Logger:    logger,
	}
	printer := presentation.Printer{Writer: os.Stdout, Verbose: verifyVerbose}

	if verifyGenerate {
		stopTimer := logger.Measure("Generating checksums")
		added, err := verifier.Generate(ctx, root)
		stopTimer()
		if err != nil {
			return appErrors.Wrap(appErrors.ChecksumFailed, "generate", root, err)
		}
		logger.Infof("Added %d %s entries under %s", added, hasher.Algorithm(), root)
		return nil
	}

	report, err := verifier.Verify(ctx, root)
	if err != nil {
		return appErrors.Wrap(appErrors.ChecksumFailed, "verify", root, err)
	}
	printer.PrintVerify(report)
	if report.Failed() {
		return errReported
	}
	return nil
}

// verifyAlgorithmName prefers the flag, then CHECKSUM_ALGORITHM from the
// environment or .env, then the default.
func verifyAlgorithmName() (string, error) {
	if verifyAlgorithm != "" {
		return verifyAlgorithm, nil
	}
	dotenv, _, err := config.LoadDotEnv(config.DotEnvCandidates()...)
	if err != nil {
		return "", appErrors.Wrap(appErrors.ConfigError, "env file", "", err)
	}
	for _, layer := range []config.Layer{config.EnvLayer(os.LookupEnv, dotenv), config.Defaults()} {
		if value, ok := layer.Lookup(config.KeyChecksumAlgorithm); ok {
			return value, nil
		}
	}
	return "sha256", nil
}
