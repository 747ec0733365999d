package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/lumivox/chatkit/pkg/chatx"
)

var (
	streamMessage string
	streamDelay   time.Duration
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Run one streaming completion and print the usage report",
	RunE: func(cmd *cobra.Command, args []string) error {
		model := &scriptedModel{delay: streamDelay}

		var finish *chatx.FinishResult
		ts := chatx.StreamText(context.Background(), chatx.StreamTextRequest{
			Model: model,
			Request: chatx.Request{
				Messages: []*chatx.Message{{
					ID:        "u1",
					Role:      chatx.RoleUser,
					Content:   streamMessage,
					CreatedAt: time.Now(),
				}},
			},
			OnFinish: func(fr *chatx.FinishResult) { finish = fr },
		})

		deltas := ts.TextDeltas()
		for {
			delta, err := deltas.Next()
			if err != nil {
				if errors.Is(err, chatx.ErrDone) {
					break
				}
				return err
			}
			fmt.Print(delta)
		}
		fmt.Println()

		if finish == nil {
			return nil
		}
		report, err := yaml.Marshal(map[string]any{
			"model":        model.ModelID(),
			"finishReason": finish.FinishReason,
			"usage": map[string]int64{
				"prompt":     finish.Usage.PromptTokens,
				"completion": finish.Usage.CompletionTokens,
				"total":      finish.Usage.TotalTokens,
			},
		})
		if err != nil {
			return err
		}
		fmt.Println(faintStyle.Render(string(report)))
		return nil
	},
}

func init() {
	streamCmd.Flags().StringVarP(&streamMessage, "message", "m", "hello", "user message to complete")
	streamCmd.Flags().DurationVar(&streamDelay, "delay", 40*time.Millisecond, "delay between streamed fragments")
	rootCmd.AddCommand(streamCmd)
}
