package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"aissistant/internal/domain"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage stored conversations",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions, newest first",
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a session transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session and its messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsDeleteCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	convs, err := st.ListConversations()
	if err != nil {
		return err
	}
	if len(convs) == 0 {
		fmt.Println("no sessions stored")
		return nil
	}

	fmt.Printf("%-18s %-12s %-20s %s\n", "ID", "PERSONA", "UPDATED", "TITLE")
	for _, c := range convs {
		title := c.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%-18s %-12s %-20s %s\n",
			c.ID, c.Persona, c.UpdatedAt.Format("2006-01-02 15:04"), title)
	}
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	conv, err := st.GetConversation(args[0])
	if err != nil {
		return err
	}
	msgs, err := st.GetMessages(conv.ID)
	if err != nil {
		return err
	}

	fmt.Printf("session %s (persona: %s, model: %s)\n\n", conv.ID, conv.Persona, conv.Model)
	for _, m := range msgs {
		switch m.Role {
		case domain.RoleTool:
			fmt.Printf("[tool:%s]\n%s\n\n", m.Name, m.Content)
		default:
			fmt.Printf("%s> %s\n\n", m.Role, m.Content)
		}
	}
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if _, err := st.GetConversation(args[0]); err != nil {
		return err
	}
	if err := st.DeleteConversation(args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted session %s\n", args[0])
	return nil
}
