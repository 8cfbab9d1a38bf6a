// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/relabs-tech/mpu6050_telemetry/internal/app"
	"github.com/relabs-tech/mpu6050_telemetry/internal/config"
	"github.com/relabs-tech/mpu6050_telemetry/internal/sensors"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "mpu6050_config.txt"

var RootCmd = &cobra.Command{
	Use:   "mpu6050",
	Short: "MPU6050 telemetry acquisition over I2C",
	Long: `mpu6050 reads temperature, acceleration and angular rate from an MPU6050
on an I2C bus and serves them as text records, over MQTT, HTTP and an OLED display.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// loadConfig runs before every subcommand: configuration, then log level.
func loadConfig(cmd *cobra.Command, args []string) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	if err := config.InitGlobal(path); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := config.Get().LogLevel
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = log.DebugLevel
	}
	log.SetLevel(level)
	return nil
}

func ReadCmdFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("count", "n", 1, "number of open/read/close cycles")
	cmd.Flags().Duration("interval", 0, "pause between cycles")
}

var ReadCmd = &cobra.Command{
	Use:   "read",
	Short: "read one telemetry record and print its text form",
	Long: `read opens a session, reads the whole 1024 byte staging buffer, prints the
record text up to the NUL terminator and closes the session.`,
	Example: `  mpu6050 read
  mpu6050 read -n 10 --interval 500ms`,
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		interval, _ := cmd.Flags().GetDuration("interval")
		return app.RunReader(count, interval, cmd.OutOrStdout())
	},
}

var ProbeCmd = &cobra.Command{
	Use: "probe",
	SuggestFor: []string{
		"pro", "pr", "prob",
	},
	Short:   "read the identification register",
	Example: `  mpu6050 probe`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sensor, err := sensors.NewMPU6050FromConfig()
		if err != nil {
			return err
		}
		defer sensor.Close()

		id, err := sensor.Reader.ReadIdentification()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ID: 0x%X\n", id)
		return nil
	},
}

var ProduceCmd = &cobra.Command{
	Use:   "produce",
	Short: "publish telemetry records to MQTT",
	Long: `produce opens one session and publishes a record every SAMPLE_INTERVAL
milliseconds, as JSON on TOPIC_TELEMETRY and as text on TOPIC_TELEMETRY_TEXT.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunProducer()
	},
}

var ConsoleCmd = &cobra.Command{
	Use:   "console",
	Short: "print telemetry records received over MQTT",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunConsoleMQTT()
	},
}

var WebCmd = &cobra.Command{
	Use:   "web",
	Short: "serve the latest MQTT telemetry record over HTTP and WebSocket",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunWeb()
	},
}

var RegistersCmd = &cobra.Command{
	Use:   "registers",
	Short: "read-only register inspector over WebSocket",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunRegisterDebug()
	},
}

var DisplayCmd = &cobra.Command{
	Use:   "display",
	Short: "show the latest MQTT telemetry record on an SSD1306 display",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunDisplay()
	},
}

func init() {
	RootCmd.PersistentFlags().String("config", DefaultConfigPath, "configuration file path")
	RootCmd.PersistentFlags().Bool("debug", false, "toggle debug logging")

	ReadCmdFlags(ReadCmd)
	RootCmd.AddCommand(ReadCmd)

	RootCmd.AddCommand(ProbeCmd)
	RootCmd.AddCommand(ProduceCmd)
	RootCmd.AddCommand(ConsoleCmd)
	RootCmd.AddCommand(WebCmd)
	RootCmd.AddCommand(RegistersCmd)
	RootCmd.AddCommand(DisplayCmd)
}

func getRootCmd() *cobra.Command {
	return RootCmd
}

func Execute() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	rootCmd := getRootCmd()
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
