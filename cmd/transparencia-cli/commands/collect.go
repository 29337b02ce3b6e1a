package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	sdk "github.com/kailas-cloud/transparencia/pkg/sdk"
)

var remote struct {
	url     string
	token   string
	filter  string
	timeout time.Duration
	retries int
}

func init() {
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(healthCmd)

	for _, c := range []*cobra.Command{collectCmd, healthCmd} {
		c.Flags().StringVar(&remote.url, "url", envOr("TRANSPARENCIA_URL", "http://localhost:8000"), "service address")
		c.Flags().StringVar(&remote.token, "token", os.Getenv("TRANSPARENCIA_TOKEN"), "access token")
		c.Flags().DurationVar(&remote.timeout, "timeout", 5*time.Minute, "request timeout")
	}
	collectCmd.Flags().StringVarP(&remote.filter, "filter", "f", "", "refinement filter (regular expression)")
	collectCmd.Flags().IntVar(&remote.retries, "retries", 0, "retries on transport errors and 5xx")
}

func newClient() (*sdk.Client, error) {
	return sdk.New(
		sdk.WithBaseURL(remote.url),
		sdk.WithToken(remote.token),
		sdk.WithTimeout(remote.timeout),
		sdk.WithRetries(remote.retries),
	)
}

var collectCmd = &cobra.Command{
	Use:   "collect <cpf|nis|name>",
	Short: "Collects the benefits of a person through a running transparencia service.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		res, err := client.Collect(cmd.Context(), args[0], remote.filter)
		var verr *sdk.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintln(cmd.ErrOrStderr(), verr.Message)
			return nil
		}
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), output, res)
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Shows the health of a running transparencia service.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		status, err := client.Health(cmd.Context())
		if err != nil {
			return err
		}
		if err := renderHealth(cmd.OutOrStdout(), output, status); err != nil {
			return err
		}
		if status.Status != "ok" {
			return fmt.Errorf("service %s", status.Status)
		}
		return nil
	},
}
