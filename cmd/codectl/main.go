// Package main provides codectl, a command line tool for building, decoding
// and rendering NEXUS label payloads without a running server.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/nexus/internal/codes"
	"github.com/danmuck/nexus/internal/logging"
	"github.com/danmuck/nexus/internal/render"
	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
	appName = "codectl"
)

func main() {
	logging.ConfigureRuntime()
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Encode, decode and render NEXUS label payloads",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(encodeCmd(), parseCmd(), renderCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})
	return cmd
}

func encodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Build a traveler, step or barcode payload",
	}

	var (
		travelerID int
		job        string
		part       string
		workOrder  string
	)
	traveler := &cobra.Command{
		Use:   "traveler",
		Short: "Traveler QR payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), codes.EncodeTravelerCode(travelerID, job, part))
			return nil
		},
	}
	traveler.Flags().IntVar(&travelerID, "id", 0, "traveler id")
	traveler.Flags().StringVar(&job, "job", "", "job number")
	traveler.Flags().StringVar(&part, "part", "", "part number")

	barcode := &cobra.Command{
		Use:   "barcode",
		Short: "Traveler barcode payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), codes.EncodeBarcodeCode(travelerID, job, workOrder))
			return nil
		},
	}
	barcode.Flags().IntVar(&travelerID, "id", 0, "traveler id")
	barcode.Flags().StringVar(&job, "job", "", "job number")
	barcode.Flags().StringVar(&workOrder, "work-order", "", "work order number")

	var (
		workCenter string
		operation  string
		kind       string
		stepNumber int
		stepID     int
		format     string
	)
	step := &cobra.Command{
		Use:   "step",
		Short: "Step QR metadata payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			code := codes.StepCode{
				TravelerID: travelerID,
				JobNumber:  job,
				WorkOrder:  workOrder,
				WorkCenter: workCenter,
				Operation:  operation,
				Kind:       codes.StepKind(strings.ToUpper(kind)),
			}
			if cmd.Flags().Changed("step-number") {
				code.StepNumber = codes.IntPtr(stepNumber)
			}
			if cmd.Flags().Changed("step-id") {
				code.StepID = codes.IntPtr(stepID)
			}

			var (
				out string
				err error
			)
			switch codes.StepFormat(strings.ToLower(format)) {
			case codes.StepFormatCurrent:
				out, err = codes.EncodeStepCode(code)
			case codes.StepFormatV2:
				out, err = codes.EncodeStepCodeV2(code)
			default:
				return fmt.Errorf("unknown step format %q (want current|v2)", format)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	step.Flags().IntVar(&travelerID, "id", 0, "traveler id")
	step.Flags().StringVar(&job, "job", "", "job number")
	step.Flags().StringVar(&workOrder, "work-order", "", "work order number")
	step.Flags().StringVar(&workCenter, "work-center", "", "work center code")
	step.Flags().StringVar(&operation, "operation", "", "operation name")
	step.Flags().StringVar(&kind, "kind", string(codes.StepProcess), "step kind (PROCESS|MANUAL)")
	step.Flags().IntVar(&stepNumber, "step-number", 0, "step number")
	step.Flags().IntVar(&stepID, "step-id", 0, "step id")
	step.Flags().StringVar(&format, "format", string(codes.StepFormatCurrent), "payload generation (current|v2)")

	cmd.AddCommand(traveler, barcode, step)
	return cmd
}

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <payload>",
		Short: "Classify and decode a scanned payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := codes.Classify(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", codes.ErrorCode(err), err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(c)
		},
	}
}

func renderCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "render <barcode|traveler-qr|step-qr> <payload>",
		Short: "Render a payload to a PNG symbol",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				img []byte
				err error
			)
			switch args[0] {
			case "barcode":
				img, err = render.Code128(args[1])
			case "traveler-qr":
				img, err = render.TravelerQR(args[1])
			case "step-qr":
				img, err = render.StepQR(args[1])
			default:
				return fmt.Errorf("unknown symbol %q", args[0])
			}
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(img)
				return err
			}
			if err := os.WriteFile(output, img, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d bytes to %s\n", len(img), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout when empty)")
	return cmd
}
