package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	addr   string
	client = &http.Client{Timeout: 30 * time.Second}
)

func main() {
	root := &cobra.Command{
		Use:           "reconctl",
		Short:         "Control client for the parcel reconciliation daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&addr, "addr", "http://127.0.0.1:8080", "daemon base URL")

	root.AddCommand(statusCmd(), dataCmd(), exportCmd(), clearCmd(), automationCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show store sizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/status")
		},
	}
}

func dataCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "data",
		Short: "Print all collected parcels as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/parcels")
		},
	}
}

func exportCmd() *cobra.Command {
	var out, format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get(addr + "/api/v1/export?format=" + format)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("export failed: %s", strings.TrimSpace(string(body)))
			}
			if out == "" {
				out = "parcels." + format
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			if _, err := io.Copy(f, resp.Body); err != nil {
				return err
			}
			fmt.Printf("{\"status\":\"downloading\",\"file\":%q}\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default parcels.<format>)")
	cmd.Flags().StringVar(&format, "format", "csv", "export format: csv or xlsx")
	return cmd
}

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all collected state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postJSON("/api/v1/clear")
		},
	}
}

func automationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "automation",
		Short: "Control the automation schedule",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "start",
			Short: "Start automation",
			RunE: func(cmd *cobra.Command, args []string) error {
				return postJSON("/api/v1/automation/start")
			},
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Stop automation",
			RunE: func(cmd *cobra.Command, args []string) error {
				return postJSON("/api/v1/automation/stop")
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show automation status",
			RunE: func(cmd *cobra.Command, args []string) error {
				return getJSON("/api/v1/automation")
			},
		},
	)
	return cmd
}

func getJSON(path string) error {
	resp, err := client.Get(addr + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return printJSON(resp)
}

func postJSON(path string) error {
	resp, err := client.Post(addr+path, "application/json", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return printJSON(resp)
}

func printJSON(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var pretty json.RawMessage = body
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		fmt.Println(string(body))
		return nil
	}
	fmt.Println(string(out))
	return nil
}
