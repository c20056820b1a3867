package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"huddle/internal/domain"

	"github.com/spf13/cobra"
)

func askCmd() *cobra.Command {
	var (
		threadFile string
		title      string
	)
	cmd := &cobra.Command{
		Use:   "ask [agent] [text...]",
		Short: "Run one agent and print its envelope as JSON",
		Long: `Runs a single agent against the configured store and provider.

  huddle ask org-brain "who owns the release checklist?"
  huddle ask tone "can you fix this today"
  huddle ask reply --thread thread.json
  huddle ask notes --thread - --title "Sprint review" < thread.json

The thread file is a JSON array of {author, content, timestamp} messages; "-" reads stdin.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := parseKindArg(args[0])
			if !ok {
				return fmt.Errorf("unknown agent %q (want one of %s)", args[0], kindNames())
			}
			req := domain.AgentRequest{
				Kind:  kind,
				Query: strings.Join(args[1:], " "),
				Title: title,
			}
			if threadFile != "" {
				msgs, err := readThread(cmd.InOrStdin(), threadFile)
				if err != nil {
					return err
				}
				req.ThreadMessages = msgs
			}

			cfg, closeLog, err := loadRuntime()
			if err != nil {
				return err
			}
			defer closeLog()

			router, st, _, err := buildRouter(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			env := router.Dispatch(cmd.Context(), req)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(env); err != nil {
				return err
			}
			if !env.Success {
				return fmt.Errorf("%s failed", kind)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&threadFile, "thread", "t", "", `JSON file of thread messages ("-" for stdin)`)
	cmd.Flags().StringVar(&title, "title", "", "meeting title for the notes agent")
	return cmd
}

// parseKindArg accepts the agent names plus the short forms used on the command line.
func parseKindArg(s string) (domain.AgentKind, bool) {
	switch strings.ToLower(s) {
	case "org", "brain":
		return domain.KindOrgBrain, true
	case "reply", "replies":
		return domain.KindReplySuggestion, true
	case "tone":
		return domain.KindToneAnalysis, true
	case "notes":
		return domain.KindMeetingNotes, true
	}
	return domain.ParseAgentKind(s)
}

func kindNames() string {
	names := make([]string, len(domain.AllKinds))
	for i, k := range domain.AllKinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

func readThread(stdin io.Reader, path string) ([]domain.ThreadMessage, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read thread: %w", err)
	}
	var msgs []domain.ThreadMessage
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("parse thread %s: %w", path, err)
	}
	return msgs, nil
}
