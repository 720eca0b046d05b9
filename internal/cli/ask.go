package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"aissistant/internal/logging"
)

var askNoSave bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a one-shot question",
	Long: `Ask a single question and print the answer. When a knowledge
store exists and use_knowledge is enabled, the answer is grounded in
your ingested documents.

Examples:
  aissistant ask "what does the ingest command do?"
  aissistant ask -p reviewer "critique this design"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&askNoSave, "no-save", false, "do not persist this exchange as a session")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	chat, err := buildChat(st)
	if err != nil {
		return err
	}
	p, err := loadPersona()
	if err != nil {
		return err
	}

	conv, err := chat.StartConversation(p, cfg.Provider.Model)
	if err != nil {
		return err
	}

	resp, err := chat.Ask(cmd.Context(), conv, p, question)
	if err != nil {
		return err
	}

	fmt.Println(resp.Content)
	logging.Debugf("model=%s tokens in=%d out=%d duration=%s",
		resp.Model, resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.Duration)

	if askNoSave {
		if err := st.DeleteConversation(conv.ID); err != nil {
			logging.Warnf("failed to discard session: %v", err)
		}
	}
	return nil
}
