// Command pda is the reference CLI/MCP host for a PDA app: it runs the
// bundled calculator example from the command line, serves it as a single
// MCP tool over stdio, or prints its tool definition.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/oriys/nova/examples/calculator"
	"github.com/oriys/nova/internal/config"
	"github.com/oriys/nova/internal/logging"
	"github.com/oriys/nova/internal/schema"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "pda",
		Short: "pda - Protocol-Driven Application host",
		Long:  "Runs a PDA app from the command line, as an MCP tool server, or prints its tool definition.",
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (optional, defaults are used otherwise)")

	rootCmd.AddCommand(runCmd(), serveMCPCmd(), describeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	var cfg *config.Config
	if configFile != "" {
		loaded, err := config.LoadFromFile(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load config %s: %v\n", configFile, err)
			cfg = config.DefaultConfig()
		} else {
			cfg = loaded
		}
	} else {
		cfg = config.DefaultConfig()
	}
	config.LoadFromEnv(cfg)
	logging.SetLevelFromString(cfg.Logging.Level)
	return cfg
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "run -- [--field=value ...]",
		Short:              "Run the bundled app from the command line",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadConfig()
			app, err := calculator.New()
			if err != nil {
				return err
			}
			res, code, err := app.RunCLI(context.Background(), args)
			if err != nil {
				return err
			}
			if !res.Success {
				os.Exit(code)
			}
			return nil
		},
	}
}

func serveMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve-mcp",
		Short: "Expose the bundled app as a single MCP tool over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			loadConfig()
			app, err := calculator.New()
			if err != nil {
				return err
			}
			def := app.GetMCPToolDefinition()

			server := mcp.NewServer(&mcp.Implementation{
				Name:    "pda-" + def.Name,
				Version: "1.0.0",
			}, &mcp.ServerOptions{
				Instructions: def.Description,
			})

			tool := &mcp.Tool{
				Name:        def.Name,
				Description: def.Description,
				InputSchema: schema.ToJSONSchema(def.InputSchema),
			}

			mcp.AddTool(server, tool,
				func(ctx context.Context, req *mcp.CallToolRequest, input map[string]any) (*mcp.CallToolResult, any, error) {
					out := app.RunMCP(ctx, input, nil)
					return out.(*mcp.CallToolResult), nil, nil
				})

			return server.Run(context.Background(), &mcp.StdioTransport{})
		},
	}
}

func describeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Print the bundled app's MCP tool definition as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := calculator.New()
			if err != nil {
				return err
			}
			def := app.GetMCPToolDefinition()
			data, err := json.MarshalIndent(map[string]any{
				"name":        def.Name,
				"description": def.Description,
				"inputSchema": def.InputSchema,
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
}
