package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/lumivox/chatkit/pkg/chatx"
)

var (
	chatMessage string
	chatDelay   time.Duration

	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	faintStyle     = lipgloss.NewStyle().Faint(true)
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run a chat session against the built-in scripted model",
	RunE: func(cmd *cobra.Command, args []string) error {
		model := &scriptedModel{delay: chatDelay}
		ctrl := chatx.NewFromModel(model,
			chatx.WithSystem("You are the chatkit playground."),
		)
		defer ctrl.Destroy()

		states := ctrl.States()
		defer states.Close()

		fmt.Println(userStyle.Render("user:"), chatMessage)
		ctrl.Send(chatMessage, nil)

		fmt.Print(assistantStyle.Render("assistant:"), " ")
		printed := 0
		for {
			st, err := states.Next()
			if err != nil {
				if errors.Is(err, chatx.ErrDone) {
					return nil
				}
				return err
			}
			if n := len(st.Messages); n > 0 {
				last := st.Messages[n-1]
				if last.Role == chatx.RoleAssistant && printed < len(last.Content) {
					fmt.Print(last.Content[printed:])
					printed = len(last.Content)
				}
			}
			switch st.Status {
			case chatx.StatusIdle:
				if printed > 0 {
					fmt.Println()
					fmt.Println(faintStyle.Render("session complete"))
					return nil
				}
			case chatx.StatusError:
				fmt.Println()
				fmt.Println(errorStyle.Render("error:"), st.Err)
				return st.Err
			}
		}
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "hello", "user message to send")
	chatCmd.Flags().DurationVar(&chatDelay, "delay", 80*time.Millisecond, "delay between streamed fragments")
	rootCmd.AddCommand(chatCmd)
}
