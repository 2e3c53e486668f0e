// Command brahma is a terminal client for the orchestration API.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"infrax/backend/pkg/models"
)

const cliVersion = "1.0.0"

var serverURL string

func main() {
	root := &cobra.Command{
		Use:   "brahma",
		Short: "Generate and inspect cloud infrastructure from natural language",
	}
	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Base URL of the orchestration API")

	root.AddCommand(generateCmd(), historyCmd(), showCmd(), codeCmd(), versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func client() *http.Client {
	// generation runs several completion round-trips
	return &http.Client{Timeout: 5 * time.Minute}
}

func getJSON(path string, out any) error {
	resp, err := client().Get(serverURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func postJSON(path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := client().Post(serverURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var problem models.ProblemDetails
		if json.Unmarshal(raw, &problem) == nil && problem.Detail != "" {
			return fmt.Errorf("%s (%s)", problem.Detail, problem.Fault)
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return json.Unmarshal(raw, out)
}

func generateCmd() *cobra.Command {
	var location, dialect string
	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Run the full generation pipeline for an application description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Generating infrastructure, this can take a minute...")
			var record models.WorkflowRecord
			err := postJSON("/api/v1/workflows", models.WorkflowInput{
				Prompt:   args[0],
				Location: location,
				Dialect:  dialect,
			}, &record)
			if err != nil {
				return err
			}

			fmt.Printf("\nWorkflow %s: %s\n", record.ID, record.Status)
			if record.Error != nil {
				fmt.Printf("Failed at stage %s: %s\n", record.Error.Stage, record.Error.Message)
				return nil
			}
			if s := record.Summary; s != nil {
				fmt.Printf("  Provider:  %s (%s)\n", s.CloudProvider, s.Region)
				if s.LocationRationale != "" {
					fmt.Printf("  Rationale: %s\n", s.LocationRationale)
				}
				fmt.Printf("  IaC tool:  %s\n", s.IaCTool)
				fmt.Printf("  Services:  %d\n", s.ServicesCount)
				fmt.Printf("  Code:      %s\n", s.CodePath)
				if s.DiagramFile != "" {
					fmt.Printf("  Diagram:   %s\n", s.DiagramFile)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&location, "location", "", "Geographic location of the users, e.g. india")
	cmd.Flags().StringVar(&dialect, "iac-tool", "", "IaC dialect: terraform, cloudformation, or pulumi")
	return cmd
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List past workflow runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var listings []models.WorkflowListing
			if err := getJSON("/api/v1/workflows", &listings); err != nil {
				return err
			}
			if len(listings) == 0 {
				fmt.Println("No workflows yet.")
				return nil
			}
			for _, l := range listings {
				provider := "-"
				if l.Summary != nil {
					provider = fmt.Sprintf("%s/%s", l.Summary.CloudProvider, l.Summary.Region)
				}
				fmt.Printf("%s  %-9s  %-24s  %s\n",
					l.CreatedAt.Local().Format("2006-01-02 15:04"), l.Status, provider, truncate(l.Prompt, 60))
				fmt.Printf("    id: %s\n", l.ID)
			}
			return nil
		},
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <workflow-id>",
		Short: "Print a full workflow record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var record json.RawMessage
			if err := getJSON("/api/v1/workflows/"+args[0], &record); err != nil {
				return err
			}
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, record, "", "  "); err != nil {
				return err
			}
			fmt.Println(pretty.String())
			return nil
		},
	}
}

func codeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "code <workflow-id>",
		Short: "Print a workflow's current infrastructure code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Version int    `json:"version"`
				Code    string `json:"code"`
			}
			if err := getJSON("/api/v1/workflows/"+args[0]+"/code", &resp); err != nil {
				return err
			}
			if resp.Version > 0 {
				fmt.Fprintf(os.Stderr, "# version %d\n", resp.Version)
			}
			fmt.Println(resp.Code)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("brahma", cliVersion)
		},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
