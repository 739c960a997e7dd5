package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"webtoonkit/comics"
	"webtoonkit/lib/telemetry"
)

var rootCmd = &cobra.Command{
	Use:   "comics",
	Short: "comics is a read-only CLI over webtoon platforms.",
}

var (
	flagPlatform string
	flagBaseURL  string
	flagSession  string
	flagCanvas   bool
	flagVerbose  bool
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagPlatform, "platform", "webtoons", "Platform to query: webtoons or naver.")
	pf.StringVar(&flagBaseURL, "base-url", "", "Override the platform base URL.")
	pf.StringVar(&flagSession, "session", "", "Session token for authenticated operations.")
	pf.BoolVar(&flagCanvas, "canvas", false, "Treat the id as a canvas submission.")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Log every request and retry.")
}

func ExecuteContext(ctx context.Context) {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		tel, err := telemetry.SetupFromEnv(cmd.Context(), "comics", flagVerbose)
		if err != nil {
			return err
		}
		cobra.OnFinalize(func() {
			if err := tel.Shutdown(context.Background()); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		})
		return nil
	}
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newClient() (*comics.Client, error) {
	platform := comics.PlatformWebtoons
	if flagPlatform == "naver" {
		platform = comics.PlatformNaver
	}
	return comics.NewClient(comics.Options{
		Platform:        platform,
		BaseURL:         flagBaseURL,
		Session:         flagSession,
		MaxConcurrent:   4,
		MaxAttempts:     5,
		MinRequestDelay: 250 * time.Millisecond,
	})
}

func kindFlag() comics.Kind {
	if flagCanvas {
		return comics.KindCanvas
	}
	return comics.KindOriginal
}
