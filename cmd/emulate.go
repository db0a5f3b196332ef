package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/anneal-bench/anneal-bench/internal/sapi/sapitest"
)

var (
	emulateAddr    string // Emulator listen address
	emulateFixture string // Emulator fixture file
)

// emulateCmd serves the solver emulator on its own
var emulateCmd = &cobra.Command{
	Use:   "emulate",
	Short: "Serve the solver service emulator",
	Long: `emulate serves the SAPI emulator so another anneal-bench process, or any SAPI
client, can be pointed at it with service.endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fixture := sapitest.DefaultFixture()
		if emulateFixture != "" {
			f, err := sapitest.LoadFixture(emulateFixture)
			if err != nil {
				return err
			}
			fixture = f
		}
		addr, stop, err := startEmulator(fixture, emulateAddr)
		if err != nil {
			return err
		}
		defer stop()
		logrus.WithFields(logrus.Fields{"endpoint": "http://" + addr, "solvers": len(fixture.Solvers)}).Info("serving emulator")

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		<-ctx.Done()
		return nil
	},
}

func init() {
	emulateCmd.Flags().StringVar(&emulateAddr, "addr", "127.0.0.1:8060", "Listen address")
	emulateCmd.Flags().StringVar(&emulateFixture, "fixture", "", "Fixture file (default built-in)")
	rootCmd.AddCommand(emulateCmd)
}
