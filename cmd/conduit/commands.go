// commands.go contains the cobra command definitions. Each builder creates
// a command and wires it to its handler.
package main

import (
	"github.com/spf13/cobra"
)

// promptFlags collects the per-request options shared by prompt and the
// serve endpoint's CLI counterpart.
type promptFlags struct {
	configPath string
	debug      bool

	chatID       string
	projectPath  string
	model        string
	workDir      string
	agentID      string
	feature      string
	profile      string
	skillNames   []string
	requireSkill bool
	allowedTools []string
}

func buildRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conduit",
		Short: "Session orchestration between chat surfaces and a coding agent",
		Long: `Conduit binds chat conversations to stateful coding-agent sessions.

It keys sessions by conversation, reuses them while the requested
configuration is unchanged, filters control markup out of streamed
responses, and enforces tool policy around upstream tool execution.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(
		buildPromptCmd(),
		buildServeCmd(),
		buildSkillsCmd(),
		buildVersionCmd(),
	)
	return cmd
}

func buildPromptCmd() *cobra.Command {
	var flags promptFlags

	cmd := &cobra.Command{
		Use:   "prompt [text]",
		Short: "Send one prompt and stream the response as JSON lines",
		Example: `  # Ask in the default conversation
  conduit prompt --model claude-sonnet-4 "explain this repo"

  # Pin the conversation and working directory
  conduit prompt --chat support-42 --workdir ~/src/app --model claude-sonnet-4 "run the tests"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrompt(cmd.Context(), flags, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "Path to YAML configuration file")
	cmd.Flags().BoolVarP(&flags.debug, "debug", "d", false, "Enable debug logging")
	cmd.Flags().StringVar(&flags.chatID, "chat", "", "Conversation identifier")
	cmd.Flags().StringVar(&flags.projectPath, "project", "", "Project path used when no chat is given")
	cmd.Flags().StringVar(&flags.model, "model", "", "Model identifier (required)")
	cmd.Flags().StringVar(&flags.workDir, "workdir", "", "Session working directory")
	cmd.Flags().StringVar(&flags.agentID, "agent", "", "Agent persona identifier")
	cmd.Flags().StringVar(&flags.feature, "feature", "", "Requesting surface tag")
	cmd.Flags().StringVar(&flags.profile, "profile", "", "Tool policy profile")
	cmd.Flags().StringSliceVar(&flags.skillNames, "skill", nil, "Restrict the request to these skills (repeatable)")
	cmd.Flags().BoolVar(&flags.requireSkill, "require-skills", false, "Fail when a requested skill is missing")
	cmd.Flags().StringSliceVar(&flags.allowedTools, "allow-tool", nil, "Restrict upstream tools to this list (repeatable)")

	return cmd
}

func buildServeCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
		listenAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the conduit HTTP server",
		Long: `Start the HTTP server exposing the prompt endpoint, health checks,
and Prometheus metrics. Sessions are torn down on SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, debug, listenAddr)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	cmd.Flags().StringVar(&listenAddr, "listen", ":8080", "HTTP listen address")

	return cmd
}

func buildSkillsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "Inspect skill discovery",
	}
	cmd.AddCommand(buildSkillsListCmd())
	return cmd
}

func buildSkillsListCmd() *cobra.Command {
	var (
		configPath string
		agentID    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List skills visible to an agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSkillsList(configPath, agentID, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	cmd.Flags().StringVar(&agentID, "agent", "", "Scope discovery to this agent persona")

	return cmd
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the conduit version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("conduit %s\n", version)
		},
	}
}
