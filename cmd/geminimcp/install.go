package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
)

// serverKey is the entry name written into the client's mcpServers map.
const serverKey = "gemini-mcp"

func installCmd() *cobra.Command {
	var project bool
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Register gemini-mcp with Claude Desktop or a project .mcp.json",
		Long:  "Adds a gemini-mcp entry to the MCP client configuration so the client spawns 'gemini-mcp serve'. Entries for other servers are preserved.",
		RunE: func(cmd *cobra.Command, args []string) error {
			execPath, err := os.Executable()
			if err != nil {
				return fmt.Errorf("cannot determine executable path: %w", err)
			}

			target, err := clientConfigPath(project)
			if err != nil {
				return err
			}

			entry := map[string]any{
				"command": execPath,
				"args":    serveArgs(),
			}
			if err := upsertServer(target, serverKey, entry); err != nil {
				return err
			}

			fmt.Printf("Registered %q in %s\n", serverKey, target)
			fmt.Printf("Restart the MCP client to pick up the new server.\n")
			return nil
		},
	}
	cmd.Flags().BoolVar(&project, "project", false, "write to ./.mcp.json instead of the Claude Desktop config")
	return cmd
}

func uninstallCmd() *cobra.Command {
	var project bool
	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the gemini-mcp entry from the MCP client configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := clientConfigPath(project)
			if err != nil {
				return err
			}
			if err := removeServer(target, serverKey); err != nil {
				return err
			}
			fmt.Printf("Removed %q from %s\n", serverKey, target)
			return nil
		},
	}
	cmd.Flags().BoolVar(&project, "project", false, "remove from ./.mcp.json instead of the Claude Desktop config")
	return cmd
}

// serveArgs builds the argument vector the client uses to spawn the server.
// A --config flag given to install is baked into the registration.
func serveArgs() []string {
	args := []string{"serve"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	return args
}

// clientConfigPath picks the MCP client config file to edit.
func clientConfigPath(project bool) (string, error) {
	if project {
		return ".mcp.json", nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot resolve home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json"), nil
	case "linux":
		return filepath.Join(home, ".config", "Claude", "claude_desktop_config.json"), nil
	default:
		return "", fmt.Errorf("unsupported OS: %s (supported: darwin, linux; use --project for a local .mcp.json)", runtime.GOOS)
	}
}

// upsertServer merges one server entry into the mcpServers map of the client
// config, creating the file when it does not exist. Other server entries and
// unknown top-level keys survive the rewrite.
func upsertServer(path, key string, entry map[string]any) error {
	doc, err := readClientConfig(path)
	if err != nil {
		return err
	}

	servers, ok := doc["mcpServers"].(map[string]any)
	if !ok {
		servers = make(map[string]any)
	}
	servers[key] = entry
	doc["mcpServers"] = servers

	return writeClientConfig(path, doc)
}

// removeServer deletes one entry from the mcpServers map, leaving everything
// else in the file untouched.
func removeServer(path, key string) error {
	doc, err := readClientConfig(path)
	if err != nil {
		return err
	}
	servers, ok := doc["mcpServers"].(map[string]any)
	if !ok {
		return fmt.Errorf("no mcpServers section in %s", path)
	}
	if _, ok := servers[key]; !ok {
		return fmt.Errorf("%q is not registered in %s", key, path)
	}
	delete(servers, key)
	doc["mcpServers"] = servers
	return writeClientConfig(path, doc)
}

func readClientConfig(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("cannot parse %s: %w", path, err)
	}
	return doc, nil
}

func writeClientConfig(path string, doc map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
