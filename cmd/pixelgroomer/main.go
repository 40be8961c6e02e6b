package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	appErrors "pixelgroomer/internal/errors"
)

// errReported marks failures whose details were already printed.
var errReported = errors.New("reported")

var rootCmd = &cobra.Command{
	Use:           "pixelgroomer",
	Short:         "Import and organize photos into a dated library",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		exitWithError(err)
	}
}

func exitWithError(err error) {
	if !errors.Is(err, errReported) {
		fmt.Fprintln(os.Stderr, appErrors.UserMessage(err))
	}
	os.Exit(1)
}
