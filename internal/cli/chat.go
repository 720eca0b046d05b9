package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"aissistant/internal/domain"
	"aissistant/internal/logging"
)

var chatSession string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive multi-turn session",
	Long: `Start an interactive chat. Each exchange is persisted, so a
session can be resumed later with --session.

In-session commands:
  /quit    leave the session
  /id      print the session id (for --session)

Examples:
  aissistant chat
  aissistant chat --session 1a2b3c4d5e6f7a8b`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatSession, "session", "", "resume an existing session by id")
}

func runChat(cmd *cobra.Command, args []string) error {
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

	var conv domain.Conversation
	if chatSession != "" {
		conv, err = st.GetConversation(chatSession)
		if err != nil {
			return err
		}
		fmt.Printf("resuming session %s (%s)\n", conv.ID, conv.Title)
	} else {
		conv, err = chat.StartConversation(p, cfg.Provider.Model)
		if err != nil {
			return err
		}
	}

	fmt.Printf("persona: %s, model: %s. /quit to leave.\n", p.Name, cfg.Provider.Model)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch line {
		case "/quit", "/exit":
			return nil
		case "/id":
			fmt.Println(conv.ID)
			continue
		}

		fmt.Print("assistant> ")
		if cfg.Chat.Stream {
			_, err = chat.AskStream(cmd.Context(), conv, p, line, func(delta string) {
				fmt.Print(delta)
			})
			fmt.Println()
		} else {
			var content string
			resp, askErr := chat.Ask(cmd.Context(), conv, p, line)
			if askErr == nil {
				content = resp.Content
			}
			err = askErr
			fmt.Println(content)
		}
		if err != nil {
			logging.Errorf("request failed: %v", err)
		}
	}
	return scanner.Err()
}
